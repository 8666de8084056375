package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"geoquiz-service/internal/domain"
	"geoquiz-service/internal/obfuscate"
	"geoquiz-service/internal/oracle"
)

const locationsPayload = `[
  {"name": "Gateway of India", "latitude": 18.922, "longitude": 72.8347, "explanation": "Arch monument in Mumbai"},
  {"Name": "Marine Drive", "Latitude": "18.9432", "Longitude": "72.8235", "Description": "Seafront boulevard"},
  {"name": "Null Island", "coords": {"lat": 0, "lng": 0}},
  {"name": "Elephanta Caves", "longitude": 72.9315, "explanation": "missing latitude, dropped"},
  {"latitude": 19.076, "longitude": 72.8777, "explanation": "missing name, dropped"}
]`

func staticOracle(response string) oracle.Client {
	return oracle.CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		return response, nil
	})
}

func newTestGenerator(client oracle.Client) *Generator {
	return New(client, obfuscate.NewBase64(), zap.NewNop(), DefaultLocationCount)
}

func TestGenerateNormalizesFieldAliases(t *testing.T) {
	gen := newTestGenerator(staticOracle(locationsPayload))

	items, err := gen.Generate(context.Background(), "India", "Famous Landmarks", "Class 8")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 valid items, got %d", len(items))
	}

	codec := obfuscate.NewBase64()
	name, err := codec.Decode(items[0].EncodedName)
	if err != nil || name != "Gateway of India" {
		t.Fatalf("expected decodable name, got %q err %v", name, err)
	}
	if items[0].Coords.Lat != 18.922 || items[0].Coords.Lng != 72.8347 {
		t.Fatalf("unexpected coords: %+v", items[0].Coords)
	}

	// String coordinates are coerced to numbers.
	if items[1].Coords.Lat != 18.9432 {
		t.Fatalf("expected coerced string latitude, got %v", items[1].Coords.Lat)
	}

	// Zero coordinates are present, not absent.
	if items[2].Coords.Lat != 0 || items[2].Coords.Lng != 0 {
		t.Fatalf("expected zero coords retained, got %+v", items[2].Coords)
	}
	explanation, _ := codec.Decode(items[2].EncodedExplanation)
	if explanation != "No description available" {
		t.Fatalf("expected fallback explanation, got %q", explanation)
	}
}

func TestGenerateAssignsSequentialIDs(t *testing.T) {
	gen := newTestGenerator(staticOracle(locationsPayload))

	items, err := gen.Generate(context.Background(), "India", "Landmarks", "Class 8")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i, item := range items {
		want := fmt.Sprintf("item_%d", i)
		if item.ID != want {
			t.Fatalf("expected id %q, got %q", want, item.ID)
		}
		if item.Status != domain.StatusUnanswered {
			t.Fatalf("expected unanswered status, got %q", item.Status)
		}
	}
}

func TestGenerateStripsCodeFences(t *testing.T) {
	plain := newTestGenerator(staticOracle(locationsPayload))
	fenced := newTestGenerator(staticOracle("```json\n" + locationsPayload + "\n```"))

	plainItems, err := plain.Generate(context.Background(), "India", "Landmarks", "Class 8")
	if err != nil {
		t.Fatalf("generate plain: %v", err)
	}
	fencedItems, err := fenced.Generate(context.Background(), "India", "Landmarks", "Class 8")
	if err != nil {
		t.Fatalf("generate fenced: %v", err)
	}
	if len(plainItems) != len(fencedItems) {
		t.Fatalf("fenced and unfenced payloads parsed differently: %d vs %d", len(plainItems), len(fencedItems))
	}
	for i := range plainItems {
		if plainItems[i].EncodedName != fencedItems[i].EncodedName {
			t.Fatalf("item %d differs between fenced and unfenced parse", i)
		}
	}
}

func TestGenerateFailsWhenNoValidRecords(t *testing.T) {
	gen := newTestGenerator(staticOracle(`[{"explanation": "no name, no coords"}]`))

	_, err := gen.Generate(context.Background(), "India", "Landmarks", "Class 8")
	if !errors.Is(err, domain.ErrEmptyGeneration) {
		t.Fatalf("expected ErrEmptyGeneration, got %v", err)
	}
}

func TestGenerateFailsOnOracleError(t *testing.T) {
	gen := newTestGenerator(oracle.CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("network down")
	}))

	if _, err := gen.Generate(context.Background(), "India", "Landmarks", "Class 8"); err == nil {
		t.Fatalf("expected error when oracle fails")
	}
}

func TestGenerateFailsOnNonListPayload(t *testing.T) {
	gen := newTestGenerator(staticOracle("Sorry, I cannot help with that."))

	if _, err := gen.Generate(context.Background(), "India", "Landmarks", "Class 8"); err == nil {
		t.Fatalf("expected parse error for prose payload")
	}
}

func TestGenerateRejectsOutOfRangeCoordinates(t *testing.T) {
	gen := newTestGenerator(staticOracle(`[
	  {"name": "Too far north", "latitude": 95.0, "longitude": 10.0},
	  {"name": "In range", "latitude": 45.0, "longitude": 10.0}
	]`))

	items, err := gen.Generate(context.Background(), "Norway", "Fjords", "Class 8")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected out-of-range record dropped, got %d items", len(items))
	}
}

func TestSuggestTopicsParsesCommaList(t *testing.T) {
	gen := newTestGenerator(staticOracle("Rivers of India, Famous Forts , Himalayan Peaks,,National Parks"))

	topics, err := gen.SuggestTopics(context.Background(), "India", "Class 8")
	if err != nil {
		t.Fatalf("suggest topics: %v", err)
	}
	want := []string{"Rivers of India", "Famous Forts", "Himalayan Peaks", "National Parks"}
	if len(topics) != len(want) {
		t.Fatalf("expected %d topics, got %v", len(want), topics)
	}
	for i := range want {
		if topics[i] != want[i] {
			t.Fatalf("topic %d: want %q, got %q", i, want[i], topics[i])
		}
	}
}

func TestSuggestTopicsFailsOnEmptyResponse(t *testing.T) {
	gen := newTestGenerator(staticOracle("  , ,  "))

	_, err := gen.SuggestTopics(context.Background(), "India", "Class 8")
	if !errors.Is(err, domain.ErrNoTopics) {
		t.Fatalf("expected ErrNoTopics, got %v", err)
	}
}

func TestPromptMentionsInputs(t *testing.T) {
	var captured string
	gen := newTestGenerator(oracle.CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		captured = prompt
		return locationsPayload, nil
	}))

	if _, err := gen.Generate(context.Background(), "Brazil", "Amazon Basin", "Class 10"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, fragment := range []string{"Brazil", "Amazon Basin", "Class 10", "JSON array"} {
		if !strings.Contains(captured, fragment) {
			t.Fatalf("prompt missing %q: %s", fragment, captured)
		}
	}
}
