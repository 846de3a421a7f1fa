package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/ziadkadry99/queryflow/internal/db"
	"github.com/ziadkadry99/queryflow/internal/resolver"
	"github.com/ziadkadry99/queryflow/internal/session"
	"github.com/ziadkadry99/queryflow/internal/turnlog"
)

func setupTest(t *testing.T) (Deps, chi.Router) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	deps := Deps{
		Engine:   resolver.NewEngine(resolver.Options{}),
		Sessions: session.NewStore(database, time.Hour),
		Turns:    turnlog.NewStore(database),
	}
	r := chi.NewRouter()
	RegisterRoutes(r, deps)
	return deps, r
}

func postAnalyze(t *testing.T, r chi.Router, req *resolver.TurnRequest) *resolver.TurnResponse {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	httpReq := httptest.NewRequest(http.MethodPost, "/algorithm/analyze", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp resolver.TurnResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return &resp
}

func TestAnalyzeMintsSession(t *testing.T) {
	_, r := setupTest(t)

	resp := postAnalyze(t, r, &resolver.TurnRequest{
		StatusCode: resolver.StatusNewSession,
		UserInput:  "查询浙江各地市idc省内流出流入的月均流量",
	})
	if resp.SessionID == "" {
		t.Fatal("no session id minted")
	}
	if resp.StatusCode != resolver.StatusConfirmation {
		t.Errorf("StatusCode = %d (analysis %q)", resp.StatusCode, resp.AnalysisResult)
	}
}

func TestAnalyzeMultiTurn(t *testing.T) {
	_, r := setupTest(t)

	first := postAnalyze(t, r, &resolver.TurnRequest{
		StatusCode: resolver.StatusNewSession,
		UserInput:  "查询绍兴近一周的流量",
	})
	if first.StatusCode != resolver.StatusFieldPending {
		t.Fatalf("first turn StatusCode = %d (analysis %q)", first.StatusCode, first.AnalysisResult)
	}

	// The follow-up sends only the session id and the new text; the
	// persisted session supplies the rest.
	second := postAnalyze(t, r, &resolver.TurnRequest{
		SessionID: first.SessionID,
		UserInput: "对端是外省",
	})
	if second.SessionID != first.SessionID {
		t.Errorf("session changed between turns: %q -> %q", first.SessionID, second.SessionID)
	}
	if second.StatusCode != resolver.StatusConfirmation {
		t.Errorf("second turn StatusCode = %d (analysis %q)", second.StatusCode, second.AnalysisResult)
	}
	if second.Intermediate.Attributes.Source != "绍兴" {
		t.Errorf("Source = %q, prior turn's endpoint lost", second.Intermediate.Attributes.Source)
	}
}

func TestAnalyzeRejectsEmptyInput(t *testing.T) {
	_, r := setupTest(t)

	httpReq := httptest.NewRequest(http.MethodPost, "/algorithm/analyze", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAnalyzeLogsTurns(t *testing.T) {
	deps, r := setupTest(t)

	resp := postAnalyze(t, r, &resolver.TurnRequest{
		StatusCode: resolver.StatusNewSession,
		UserInput:  "查询杭州到外省的流量",
	})

	httpReq := httptest.NewRequest(http.MethodGet, "/api/sessions/"+resp.SessionID+"/turns", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var entries []turnlog.Entry
	if err := json.NewDecoder(w.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d logged turns, want 1", len(entries))
	}
	if entries[0].UserInput != "查询杭州到外省的流量" {
		t.Errorf("UserInput = %q", entries[0].UserInput)
	}

	_ = deps
}

func TestGetUnknownSession(t *testing.T) {
	_, r := setupTest(t)

	httpReq := httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestWebSocketTurn(t *testing.T) {
	_, r := setupTest(t)

	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/algorithm/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}

	if err := conn.WriteJSON(wsRequest{Content: "查询浙江各地市idc省内的月均流量"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reply wsResponse
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != "turn" {
		t.Fatalf("Type = %q (error %q)", reply.Type, reply.Error)
	}
	if reply.SessionID == "" {
		t.Error("no session id in reply")
	}
	if reply.StatusCode != resolver.StatusConfirmation {
		t.Errorf("StatusCode = %d (analysis %q)", reply.StatusCode, reply.AnalysisResult)
	}
}

func TestWebSocketEmptyContent(t *testing.T) {
	_, r := setupTest(t)

	server := httptest.NewServer(r)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/algorithm/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(wsRequest{}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var reply wsResponse
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read: %v", err)
	}
	if reply.Type != "error" {
		t.Errorf("Type = %q", reply.Type)
	}
}
