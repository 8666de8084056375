// Package generator turns free-form oracle output into strict quiz item
// records. The oracle is permitted to be sloppy about field names and
// markdown fencing; everything downstream gets clean, validated items.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"geoquiz-service/internal/domain"
	"geoquiz-service/internal/obfuscate"
	"geoquiz-service/internal/oracle"
)

const (
	// DefaultLocationCount is how many locations one quiz asks the oracle for.
	DefaultLocationCount = 5
	// DefaultTopicCount is how many topic suggestions are requested.
	DefaultTopicCount = 5

	fallbackExplanation = "No description available"
)

// Generator requests quiz content from the oracle and normalizes it.
// It keeps no state between calls.
type Generator struct {
	oracle oracle.Client
	codec  obfuscate.Codec
	log    *zap.Logger
	count  int
}

func New(client oracle.Client, codec obfuscate.Codec, log *zap.Logger, locationCount int) *Generator {
	if locationCount <= 0 {
		locationCount = DefaultLocationCount
	}
	return &Generator{oracle: client, codec: codec, log: log, count: locationCount}
}

// Generate produces the item set for one quiz. Invalid records are
// dropped; the call fails only if the oracle call fails, the payload is
// not a JSON list, or no valid record remains.
func (g *Generator) Generate(ctx context.Context, country, topic, audienceLevel string) ([]domain.QuizItem, error) {
	raw, err := g.oracle.Complete(ctx, buildLocationsPrompt(country, topic, audienceLevel, g.count))
	if err != nil {
		return nil, fmt.Errorf("generate locations: %w", err)
	}

	var records []map[string]any
	decoder := json.NewDecoder(strings.NewReader(stripFences(raw)))
	decoder.UseNumber()
	if err := decoder.Decode(&records); err != nil {
		g.log.Warn("oracle returned unparseable location payload", zap.Error(err))
		return nil, fmt.Errorf("parse locations: %w", err)
	}

	items := make([]domain.QuizItem, 0, len(records))
	for _, record := range records {
		loc, ok := normalizeRecord(record)
		if !ok {
			g.log.Warn("dropping invalid location record", zap.Any("record", record))
			continue
		}
		items = append(items, domain.QuizItem{
			ID:                 fmt.Sprintf("item_%d", len(items)),
			EncodedName:        g.codec.Encode(loc.name),
			EncodedExplanation: g.codec.Encode(loc.explanation),
			Coords:             loc.coords,
			Status:             domain.StatusUnanswered,
		})
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("generate locations: %w", domain.ErrEmptyGeneration)
	}

	g.log.Info("generated quiz items",
		zap.String("country", country),
		zap.String("topic", topic),
		zap.Int("requested", g.count),
		zap.Int("valid", len(items)),
		zap.Int("dropped", len(records)-len(items)))
	return items, nil
}

// SuggestTopics asks the oracle for a comma-separated topic list.
func (g *Generator) SuggestTopics(ctx context.Context, country, audienceLevel string) ([]string, error) {
	raw, err := g.oracle.Complete(ctx, buildTopicsPrompt(country, audienceLevel, DefaultTopicCount))
	if err != nil {
		return nil, fmt.Errorf("suggest topics: %w", err)
	}

	var topics []string
	for _, part := range strings.Split(stripFences(raw), ",") {
		if topic := strings.TrimSpace(part); topic != "" {
			topics = append(topics, topic)
		}
	}
	if len(topics) == 0 {
		return nil, fmt.Errorf("suggest topics: %w", domain.ErrNoTopics)
	}
	return topics, nil
}

// stripFences removes a markdown code fence wrapper the oracle sometimes
// adds despite being told not to.
func stripFences(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}
