package websocket

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"

	"github.com/Auyante/refineryiq-system/models"
)

func testHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()

	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ServeWS(hub, w, r)
	}))
	t.Cleanup(srv.Close)

	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *gws.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcastsAlerts(t *testing.T) {
	hub, srv := testHub(t)
	conn := dial(t, srv)

	// Registration races the publish; give the hub loop a beat.
	time.Sleep(50 * time.Millisecond)

	alert := models.Alert{
		ID:        "alert-1",
		EntityID:  "PUMP-CDU-101",
		Condition: models.ConditionHighFailureRisk,
		Severity:  models.SeverityHigh,
		Message:   "risk over threshold",
		CreatedAt: time.Now().UTC(),
	}
	if err := hub.PublishAlert(context.Background(), alert); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg struct {
		Type    string       `json:"type"`
		Payload models.Alert `json:"payload"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "alert" {
		t.Fatalf("message type = %q, want alert", msg.Type)
	}
	if msg.Payload.ID != "alert-1" || msg.Payload.EntityID != "PUMP-CDU-101" {
		t.Fatalf("unexpected payload: %+v", msg.Payload)
	}
}

func TestHubBroadcastsSnapshots(t *testing.T) {
	hub, srv := testHub(t)
	conn := dial(t, srv)

	time.Sleep(50 * time.Millisecond)

	snap := &models.Snapshot{GeneratedAt: time.Now().UTC(), Cycle: 7}
	if err := hub.PublishSnapshot(context.Background(), snap); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var msg struct {
		Type    string          `json:"type"`
		Payload models.Snapshot `json:"payload"`
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "snapshot" {
		t.Fatalf("message type = %q, want snapshot", msg.Type)
	}
	if msg.Payload.Cycle != 7 {
		t.Fatalf("cycle = %d, want 7", msg.Payload.Cycle)
	}
}

func TestHubSurvivesNoClients(t *testing.T) {
	hub, _ := testHub(t)

	// Publishing with nobody connected must not error or block.
	if err := hub.PublishAlert(context.Background(), models.Alert{ID: "x"}); err != nil {
		t.Fatal(err)
	}
}
