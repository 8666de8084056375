package domain

import "time"

// Status is the answer state of a single quiz item. An item starts
// unanswered and moves exactly once to correct or incorrect.
type Status string

const (
	StatusUnanswered Status = "unanswered"
	StatusCorrect    Status = "correct"
	StatusIncorrect  Status = "incorrect"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCorrect || s == StatusIncorrect
}

// SessionState is the lifecycle state of a quiz session.
type SessionState string

const (
	StateIdle       SessionState = "idle"
	StateGenerating SessionState = "generating"
	StateActive     SessionState = "active"
	StateCompleted  SessionState = "completed"
)

// Coordinates is a latitude/longitude pair in decimal degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// QuizItem is one clickable map location to be identified. Name and
// explanation are held in obfuscated form until they are revealed by
// grading or the final summary.
type QuizItem struct {
	ID                 string
	EncodedName        string
	EncodedExplanation string
	Coords             Coordinates
	Status             Status
}

// ItemView is the client-facing projection of a quiz item. The encoded
// answer text is deliberately absent.
type ItemView struct {
	ID     string      `json:"id"`
	Coords Coordinates `json:"coords"`
	Status Status      `json:"status"`
}

// Scores are always derived from item statuses, never stored, so they
// cannot drift from the items themselves.
type Scores struct {
	Correct    int `json:"correct"`
	Incorrect  int `json:"incorrect"`
	Unanswered int `json:"unanswered"`
}

// TallyScores recomputes the score counts from a set of items.
func TallyScores(items []QuizItem) Scores {
	var s Scores
	for _, item := range items {
		switch item.Status {
		case StatusCorrect:
			s.Correct++
		case StatusIncorrect:
			s.Incorrect++
		default:
			s.Unanswered++
		}
	}
	return s
}

// SummaryEntry is one line of the end-of-quiz summary. The congratulatory
// entry produced when nothing was missed carries no name.
type SummaryEntry struct {
	Name        string `json:"name,omitempty"`
	Explanation string `json:"explanation"`
}

// Summary is produced once when a session is finished.
type Summary struct {
	Entries []SummaryEntry `json:"entries"`
	Scores  Scores         `json:"scores"`
}

// SessionSnapshot is a point-in-time view of a session, pushed to
// subscribers after every transition.
type SessionSnapshot struct {
	SessionID    string       `json:"sessionId"`
	State        SessionState `json:"state"`
	Country      string       `json:"country"`
	Topic        string       `json:"topic"`
	Items        []ItemView   `json:"items"`
	ActiveItemID string       `json:"activeItemId,omitempty"`
	Remaining    int          `json:"remaining"` // countdown ticks left, -1 when no item is focused
	Scores       Scores       `json:"scores"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// GradeResult reports the outcome of grading one answer, with the
// canonical name and explanation decoded for display.
type GradeResult struct {
	ItemID      string `json:"itemId"`
	Correct     bool   `json:"correct"`
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
}
