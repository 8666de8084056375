package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"geoquiz-service/internal/domain"
	"geoquiz-service/internal/obfuscate"
)

// SessionRepository abstracts how quiz sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	GetOrCreate(sessionID string) *Session
	Get(sessionID string) (*Session, bool)
	Delete(sessionID string)
}

// LocationSource produces the item set for a quiz.
type LocationSource interface {
	Generate(ctx context.Context, country, topic, audienceLevel string) ([]domain.QuizItem, error)
}

// TopicSource suggests quiz topics for a country and audience level.
type TopicSource interface {
	SuggestTopics(ctx context.Context, country, audienceLevel string) ([]string, error)
}

// AnswerGrader decides whether a free-text answer is correct. It never fails.
type AnswerGrader interface {
	Grade(ctx context.Context, userAnswer, canonical, contextText string) bool
}

// Credentials are the two external service keys required before a quiz
// can start. Their absence is a validation failure, not a runtime error.
type Credentials struct {
	OracleKey string
	MapKey    string
}

func (c Credentials) validate() error {
	if c.OracleKey == "" {
		return domain.ErrMissingOracleKey
	}
	if c.MapKey == "" {
		return domain.ErrMissingMapKey
	}
	return nil
}

// CongratulationsText is the summary entry shown when nothing was missed.
const CongratulationsText = "Great job! No incorrect answers."

// QuizService contains the quiz use cases: start, focus, answer, finish,
// restart, plus topic suggestion.
type QuizService struct {
	sessions  SessionRepository
	locations LocationSource
	topics    TopicSource
	grader    AnswerGrader
	codec     obfuscate.Codec
	creds     Credentials
	log       *zap.Logger
}

func NewQuizService(
	sessions SessionRepository,
	locations LocationSource,
	topics TopicSource,
	grader AnswerGrader,
	codec obfuscate.Codec,
	creds Credentials,
	log *zap.Logger,
) *QuizService {
	return &QuizService{
		sessions:  sessions,
		locations: locations,
		topics:    topics,
		grader:    grader,
		codec:     codec,
		creds:     creds,
		log:       log,
	}
}

// Start validates the request, generates the item set, and activates the
// session. A generation failure leaves the session idle with nothing
// retained.
func (s *QuizService) Start(ctx context.Context, sessionID, country, topic, audienceLevel string) (domain.SessionSnapshot, error) {
	if country == "" {
		return domain.SessionSnapshot{}, domain.ErrMissingCountry
	}
	if topic == "" {
		return domain.SessionSnapshot{}, domain.ErrMissingTopic
	}
	if err := s.creds.validate(); err != nil {
		return domain.SessionSnapshot{}, err
	}

	session := s.sessions.GetOrCreate(sessionID)
	if err := session.beginGeneration(country, topic); err != nil {
		return domain.SessionSnapshot{}, err
	}

	items, err := s.locations.Generate(ctx, country, topic, audienceLevel)
	if err != nil {
		session.failGeneration()
		s.log.Warn("quiz generation failed",
			zap.String("sessionId", sessionID),
			zap.String("country", country),
			zap.String("topic", topic),
			zap.Error(err))
		return domain.SessionSnapshot{}, err
	}

	snapshot := session.activate(items)
	s.log.Info("quiz started",
		zap.String("sessionId", sessionID),
		zap.String("country", country),
		zap.String("topic", topic),
		zap.Int("items", len(items)))
	return snapshot, nil
}

// SuggestTopics proxies topic suggestion; it shares the oracle credential
// requirement with Start but needs no session.
func (s *QuizService) SuggestTopics(ctx context.Context, country, audienceLevel string) ([]string, error) {
	if country == "" {
		return nil, domain.ErrMissingCountry
	}
	if s.creds.OracleKey == "" {
		return nil, domain.ErrMissingOracleKey
	}
	return s.topics.SuggestTopics(ctx, country, audienceLevel)
}

// Focus begins answering an item: sets the active focus and starts the
// countdown. Focusing an already answered item changes nothing.
func (s *QuizService) Focus(sessionID, itemID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.focus(itemID)
}

// SubmitAnswer grades the focused item's answer synchronously and applies
// the result. A late submission after countdown expiry fails with
// ErrNoFocusedItem and does not re-trigger grading.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID, answer string) (domain.GradeResult, domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.GradeResult{}, domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}

	itemID, name, explanation, err := session.beginGrading(s.codec)
	if err != nil {
		return domain.GradeResult{}, domain.SessionSnapshot{}, err
	}

	correct := s.grader.Grade(ctx, answer, name, explanation)
	snapshot := session.finishGrading(itemID, correct)
	s.log.Debug("answer graded",
		zap.String("sessionId", sessionID),
		zap.String("itemId", itemID),
		zap.Bool("correct", correct))
	return domain.GradeResult{
		ItemID:      itemID,
		Correct:     correct,
		Name:        name,
		Explanation: explanation,
	}, snapshot, nil
}

// CancelAnswer dismisses the input prompt without grading.
func (s *QuizService) CancelAnswer(sessionID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.cancelFocus(), nil
}

// Finish completes the quiz, freezing item transitions, and returns the
// decoded summary. Finishing early with unanswered items is allowed.
func (s *QuizService) Finish(sessionID string) (domain.Summary, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.Summary{}, domain.ErrSessionNotFound
	}
	items, err := session.complete()
	if err != nil {
		return domain.Summary{}, err
	}
	return buildSummary(items, s.codec)
}

// Restart clears the session back to idle so a new quiz can start.
func (s *QuizService) Restart(sessionID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.restart()
}

// Snapshot returns the current view of a session.
func (s *QuizService) Snapshot(sessionID string) (domain.SessionSnapshot, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.SessionSnapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// Subscribe returns a channel receiving session snapshots after every
// transition. The caller must invoke the cancel function to avoid leaks.
func (s *QuizService) Subscribe(sessionID string) (<-chan domain.SessionSnapshot, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe()
	return ch, cancel, nil
}

// Drop removes a session entirely, e.g. when its last client disconnects.
func (s *QuizService) Drop(sessionID string) {
	s.sessions.Delete(sessionID)
}

// buildSummary decodes every incorrect item for display. With no
// incorrect items and at least one item, the single congratulatory entry
// stands in for the empty list.
func buildSummary(items []domain.QuizItem, codec obfuscate.Codec) (domain.Summary, error) {
	summary := domain.Summary{
		Entries: []domain.SummaryEntry{},
		Scores:  domain.TallyScores(items),
	}
	for _, item := range items {
		if item.Status != domain.StatusIncorrect {
			continue
		}
		name, err := codec.Decode(item.EncodedName)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("decode item %s name: %w", item.ID, err)
		}
		explanation, err := codec.Decode(item.EncodedExplanation)
		if err != nil {
			return domain.Summary{}, fmt.Errorf("decode item %s explanation: %w", item.ID, err)
		}
		summary.Entries = append(summary.Entries, domain.SummaryEntry{Name: name, Explanation: explanation})
	}
	if len(summary.Entries) == 0 && len(items) > 0 {
		summary.Entries = append(summary.Entries, domain.SummaryEntry{Explanation: CongratulationsText})
	}
	return summary, nil
}
