package http

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/domain"
	"geoquiz-service/internal/infra/memory"
	"geoquiz-service/internal/obfuscate"
)

var codec = obfuscate.NewBase64()

type fakeLocations struct{}

func (fakeLocations) Generate(context.Context, string, string, string) ([]domain.QuizItem, error) {
	names := []string{"Mumbai", "Delhi"}
	items := make([]domain.QuizItem, 0, len(names))
	for i, name := range names {
		items = append(items, domain.QuizItem{
			ID:                 fmt.Sprintf("item_%d", i),
			EncodedName:        codec.Encode(name),
			EncodedExplanation: codec.Encode("About " + name),
			Coords:             domain.Coordinates{Lat: float64(10 + i), Lng: float64(70 + i)},
			Status:             domain.StatusUnanswered,
		})
	}
	return items, nil
}

type fakeTopics struct{}

func (fakeTopics) SuggestTopics(context.Context, string, string) ([]string, error) {
	return []string{"Rivers", "Forts"}, nil
}

type exactGrader struct{}

func (exactGrader) Grade(_ context.Context, userAnswer, canonical, _ string) bool {
	return strings.EqualFold(strings.TrimSpace(userAnswer), strings.TrimSpace(canonical))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := memory.NewSessionStore(func(id string) *app.Session {
		return app.NewSession(id, app.SessionConfig{TickInterval: time.Hour})
	})
	service := app.NewQuizService(
		store,
		fakeLocations{},
		fakeTopics{},
		exactGrader{},
		codec,
		app.Credentials{OracleKey: "oracle-key", MapKey: "map-key"},
		zap.NewNop(),
	)
	wsHandler := NewWSHandler(service, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws"
	if sessionID != "" {
		u += "?sessionId=" + sessionID
	}
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil skips interleaved snapshot pushes until a message of the
// wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, want string) map[string]any {
	t.Helper()
	for i := 0; i < 10; i++ {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == "error" {
			t.Fatalf("unexpected error message: %v", msg.Payload)
		}
		if msg.Type == want {
			return msg.Payload
		}
	}
	t.Fatalf("never received %q", want)
	return nil
}

func TestWebSocketQuizFlow(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "s1")

	payload := readUntil(t, conn, "session")
	if payload["sessionId"] != "s1" {
		t.Fatalf("expected echoed session id, got %v", payload)
	}

	writeJSON(t, conn, map[string]any{
		"type":    "start",
		"payload": map[string]any{"country": "India", "topic": "Major Cities", "classLevel": "Class 8"},
	})
	state := readUntil(t, conn, "state")
	if state["state"] != string(domain.StateActive) {
		t.Fatalf("expected active state, got %v", state["state"])
	}

	writeJSON(t, conn, map[string]any{
		"type":    "focus",
		"payload": map[string]any{"itemId": "item_0"},
	})
	writeJSON(t, conn, map[string]any{
		"type":    "answer",
		"payload": map[string]any{"text": "Mumbai"},
	})
	result := readUntil(t, conn, "answerResult")
	if result["correct"] != true || result["name"] != "Mumbai" {
		t.Fatalf("unexpected answer result: %v", result)
	}

	writeJSON(t, conn, map[string]any{"type": "finish"})
	summary := readUntil(t, conn, "summary")
	entries, ok := summary["entries"].([]any)
	if !ok || len(entries) != 1 {
		t.Fatalf("expected one summary entry, got %v", summary)
	}
}

func TestWebSocketAssignsSessionID(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "")

	payload := readUntil(t, conn, "session")
	id, _ := payload["sessionId"].(string)
	if id == "" {
		t.Fatalf("expected generated session id, got %v", payload)
	}
}

func TestWebSocketTopicSuggestion(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "s2")
	readUntil(t, conn, "session")

	writeJSON(t, conn, map[string]any{
		"type":    "topics",
		"payload": map[string]any{"country": "India", "classLevel": "Class 8"},
	})
	payload := readUntil(t, conn, "topics")
	topics, ok := payload["topics"].([]any)
	if !ok || len(topics) != 2 {
		t.Fatalf("expected two topics, got %v", payload)
	}
}

func TestWebSocketStartValidationError(t *testing.T) {
	server := newTestServer(t)
	conn := dial(t, server, "s3")
	readUntil(t, conn, "session")

	writeJSON(t, conn, map[string]any{
		"type":    "start",
		"payload": map[string]any{"country": "", "topic": "Rivers", "classLevel": "Class 8"},
	})

	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %s", msg.Type)
	}
}

func writeJSON(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %v: %v", msg["type"], err)
	}
}
