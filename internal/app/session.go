package app

import (
	"sync"
	"time"

	"geoquiz-service/internal/domain"
	"geoquiz-service/internal/obfuscate"
)

// DefaultTimeLimit is the countdown length per question, in ticks.
const DefaultTimeLimit = 30

// SessionConfig tunes one session's countdown behavior. The tick interval
// is wall time per countdown unit; tests shrink it.
type SessionConfig struct {
	TimeLimit    int
	TickInterval time.Duration
	Now          func() time.Time
}

func (c SessionConfig) withDefaults() SessionConfig {
	if c.TimeLimit <= 0 {
		c.TimeLimit = DefaultTimeLimit
	}
	if c.TickInterval <= 0 {
		c.TickInterval = time.Second
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Session is the state machine for one quiz run. All transitions happen
// under the mutex and run to completion; the countdown goroutine re-enters
// through tick, which re-checks that its countdown is still the live one
// so a cancelled timer can never fire against a superseded focus.
type Session struct {
	id  string
	cfg SessionConfig

	mu      sync.Mutex
	state   domain.SessionState
	country string
	topic   string
	items   []domain.QuizItem
	active  string
	grading bool
	cd      *countdown

	subscribers map[chan domain.SessionSnapshot]struct{}
}

// countdown is the cancellable scheduled task owned by the focused item.
type countdown struct {
	itemID    string
	remaining int
	stop      chan struct{}
}

func newSession(id string, cfg SessionConfig) *Session {
	return &Session{
		id:          id,
		cfg:         cfg.withDefaults(),
		state:       domain.StateIdle,
		subscribers: make(map[chan domain.SessionSnapshot]struct{}),
	}
}

// NewSession is exported for infrastructure layers that build sessions.
func NewSession(id string, cfg SessionConfig) *Session {
	return newSession(id, cfg)
}

func (s *Session) ID() string { return s.id }

// beginGeneration moves idle → generating. Only one generation may be
// outstanding per session.
func (s *Session) beginGeneration(country, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case domain.StateIdle:
	case domain.StateGenerating:
		return domain.ErrGenerationInFlight
	default:
		return domain.ErrQuizInProgress
	}

	s.state = domain.StateGenerating
	s.country = country
	s.topic = topic
	s.broadcastLocked()
	return nil
}

// failGeneration returns to idle with no partial item set.
func (s *Session) failGeneration() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != domain.StateGenerating {
		return
	}
	s.state = domain.StateIdle
	s.items = nil
	s.broadcastLocked()
}

// activate installs the generated items and moves generating → active.
func (s *Session) activate(items []domain.QuizItem) domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]domain.QuizItem, len(items))
	copy(s.items, items)
	s.state = domain.StateActive
	s.active = ""
	s.grading = false
	return s.broadcastLocked()
}

// focus marks an unanswered item as the one being answered and starts its
// countdown. Focusing while another item is focused supersedes the prior
// focus and cancels its timer.
func (s *Session) focus(itemID string) (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateActive {
		return domain.SessionSnapshot{}, domain.ErrQuizNotActive
	}
	item := s.itemLocked(itemID)
	if item == nil {
		return domain.SessionSnapshot{}, domain.ErrItemNotFound
	}
	if item.Status.Terminal() {
		return domain.SessionSnapshot{}, domain.ErrItemAlreadyAnswered
	}

	s.stopCountdownLocked()
	s.active = itemID
	s.grading = false
	cd := &countdown{
		itemID:    itemID,
		remaining: s.cfg.TimeLimit,
		stop:      make(chan struct{}),
	}
	s.cd = cd
	go s.runCountdown(cd)
	return s.broadcastLocked(), nil
}

func (s *Session) runCountdown(cd *countdown) {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-cd.stop:
			return
		case <-ticker.C:
			if done := s.tick(cd); done {
				return
			}
		}
	}
}

// tick advances one countdown unit. Expiry forces the incorrect grade
// exactly once; a countdown that has been superseded or stopped is inert.
func (s *Session) tick(cd *countdown) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cd != cd {
		return true
	}
	cd.remaining--
	if cd.remaining >= 0 {
		s.broadcastLocked()
		return false
	}

	if item := s.itemLocked(cd.itemID); item != nil && !item.Status.Terminal() {
		item.Status = domain.StatusIncorrect
	}
	s.active = ""
	s.grading = false
	s.cd = nil
	s.broadcastLocked()
	return true
}

// beginGrading claims the focused item for grading, stops its countdown,
// and hands back the decoded canonical answer and context. The grading
// flag keeps a second submission out until finishGrading runs.
func (s *Session) beginGrading(codec obfuscate.Codec) (itemID, name, explanation string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateActive {
		return "", "", "", domain.ErrQuizNotActive
	}
	if s.active == "" {
		return "", "", "", domain.ErrNoFocusedItem
	}
	if s.grading {
		return "", "", "", domain.ErrGradingInFlight
	}
	item := s.itemLocked(s.active)
	if item == nil {
		return "", "", "", domain.ErrItemNotFound
	}

	name, err = codec.Decode(item.EncodedName)
	if err != nil {
		return "", "", "", err
	}
	explanation, err = codec.Decode(item.EncodedExplanation)
	if err != nil {
		return "", "", "", err
	}

	s.stopCountdownLocked()
	s.grading = true
	return item.ID, name, explanation, nil
}

// finishGrading applies the grade decided for itemID. The status is set
// only if the item is still unanswered, so a grade can never overwrite a
// forced expiry.
func (s *Session) finishGrading(itemID string, correct bool) domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.grading = false
	if item := s.itemLocked(itemID); item != nil && !item.Status.Terminal() {
		if correct {
			item.Status = domain.StatusCorrect
		} else {
			item.Status = domain.StatusIncorrect
		}
	}
	if s.active == itemID {
		s.active = ""
	}
	return s.broadcastLocked()
}

// cancelFocus dismisses the input prompt: countdown stopped, no grade.
func (s *Session) cancelFocus() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopCountdownLocked()
	s.active = ""
	s.grading = false
	return s.broadcastLocked()
}

// complete freezes the session and returns a copy of the final item set
// for summary building. Further status-changing transitions are rejected
// by the state checks above.
func (s *Session) complete() ([]domain.QuizItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.StateActive {
		return nil, domain.ErrQuizNotActive
	}
	s.stopCountdownLocked()
	s.active = ""
	s.grading = false
	s.state = domain.StateCompleted

	final := make([]domain.QuizItem, len(s.items))
	copy(final, s.items)
	s.broadcastLocked()
	return final, nil
}

// restart clears the quiz and re-enables the start flow. Restarting an
// idle session is a no-op; a generating session cannot be restarted.
func (s *Session) restart() (domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == domain.StateGenerating {
		return domain.SessionSnapshot{}, domain.ErrGenerationInFlight
	}
	s.stopCountdownLocked()
	s.state = domain.StateIdle
	s.items = nil
	s.active = ""
	s.grading = false
	s.country = ""
	s.topic = ""
	return s.broadcastLocked(), nil
}

func (s *Session) stopCountdownLocked() {
	if s.cd != nil {
		close(s.cd.stop)
		s.cd = nil
	}
}

func (s *Session) itemLocked(itemID string) *domain.QuizItem {
	for i := range s.items {
		if s.items[i].ID == itemID {
			return &s.items[i]
		}
	}
	return nil
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() domain.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) subscribe() (<-chan domain.SessionSnapshot, func()) {
	ch := make(chan domain.SessionSnapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.snapshotLocked()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.SessionSnapshot {
	snapshot := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
			// Drop the stale update so a slow subscriber cannot block a transition.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
	return snapshot
}

func (s *Session) snapshotLocked() domain.SessionSnapshot {
	views := make([]domain.ItemView, 0, len(s.items))
	for _, item := range s.items {
		views = append(views, domain.ItemView{
			ID:     item.ID,
			Coords: item.Coords,
			Status: item.Status,
		})
	}
	remaining := -1
	if s.cd != nil {
		remaining = s.cd.remaining
	}
	return domain.SessionSnapshot{
		SessionID:    s.id,
		State:        s.state,
		Country:      s.country,
		Topic:        s.topic,
		Items:        views,
		ActiveItemID: s.active,
		Remaining:    remaining,
		Scores:       domain.TallyScores(s.items),
		UpdatedAt:    s.cfg.Now(),
	}
}
