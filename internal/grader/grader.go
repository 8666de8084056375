// Package grader decides whether a free-text answer names the right
// location. The oracle handles abbreviations, misspellings, and alternate
// names; when it is unreachable, grading degrades to exact matching and
// never fails.
package grader

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"geoquiz-service/internal/oracle"
)

const correctToken = "CORRECT"

// Grader grades answers against canonical location names.
type Grader struct {
	oracle oracle.Client
	log    *zap.Logger
}

func New(client oracle.Client, log *zap.Logger) *Grader {
	return &Grader{oracle: client, log: log}
}

// Grade returns whether userAnswer names the same place as canonical.
// The oracle call is attempted once; on any failure the exact-match
// fallback is the terminal safety net.
func (g *Grader) Grade(ctx context.Context, userAnswer, canonical, contextText string) bool {
	response, err := g.oracle.Complete(ctx, buildGradingPrompt(userAnswer, canonical, contextText))
	if err != nil {
		g.log.Warn("oracle grading failed, using exact-match fallback", zap.Error(err))
		return fallbackGrade(userAnswer, canonical)
	}

	clean := strings.ToUpper(strings.TrimSpace(response))
	return clean == correctToken || strings.HasPrefix(clean, correctToken)
}

// fallbackGrade is the deterministic local grade: case-insensitive,
// whitespace-trimmed equality.
func fallbackGrade(userAnswer, canonical string) bool {
	return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(canonical))
}

func buildGradingPrompt(userAnswer, canonical, contextText string) string {
	return fmt.Sprintf(`Check if this geography quiz answer is correct:

Correct answer: %q
User answer: %q
Context: %s

Consider correct if user answer:
- Matches exactly
- Uses common abbreviations (like "Mumbai" for "Mumbai, Maharashtra")
- Has minor spelling errors
- Refers to the same location (like "Narmada" for "Narmada River")
- Uses alternative names

Respond with only: CORRECT or INCORRECT`, canonical, userAnswer, contextText)
}
