package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	orchestratorx "github.com/tripmind-ai/tripmind/agent/agents/orchestrator"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

type stubHandler struct {
	reply        string
	state        *statex.TurnState
	err          error
	suggestions  []string
	lastID       string
	lastText     string
	resetCalls   []string
	profileWipes int
}

func (s *stubHandler) HandleTurn(_ context.Context, sessionID, text string) (string, *statex.TurnState, error) {
	s.lastID = sessionID
	s.lastText = text
	if s.err != nil {
		return "", nil, s.err
	}
	return s.reply, s.state, nil
}

func (s *stubHandler) Profile(context.Context) (statex.Profile, error) {
	return statex.Profile{UserID: "u1", Summary: "已记住 2 条偏好"}, nil
}

func (s *stubHandler) Suggestions(context.Context) ([]string, error) {
	return s.suggestions, nil
}

func (s *stubHandler) ClearProfile(context.Context) error {
	s.profileWipes++
	return nil
}

func (s *stubHandler) Reset(_ context.Context, sessionID string) error {
	s.resetCalls = append(s.resetCalls, sessionID)
	return nil
}

func newTestServer(stub *stubHandler) *httptest.Server {
	return httptest.NewServer(New(stub, Config{Addr: ":0"}).Router())
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubHandler{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestChatReturnsReplyAndSessionID(t *testing.T) {
	t.Parallel()

	stub := &stubHandler{
		reply: "好的，已为你规划行程。",
		state: &statex.TurnState{
			SessionID:    "s1",
			Intent:       &statex.Intent{Tag: statex.IntentTripPlanning, Confidence: 0.9},
			Entities:     statex.Entities{Cities: []string{"成都"}, DurationDays: 2},
			CurrentStage: "update_memory",
		},
	}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"session_id":"s1","message":"去成都玩两天"}`))
	if err != nil {
		t.Fatalf("POST /api/chat error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if body.Reply != "好的，已为你规划行程。" {
		t.Fatalf("reply = %q", body.Reply)
	}
	if body.SessionID != "s1" {
		t.Fatalf("session id = %q, want s1", body.SessionID)
	}
	if body.Intent != string(statex.IntentTripPlanning) {
		t.Fatalf("intent = %q", body.Intent)
	}
	if body.Entities == nil || len(body.Entities.Cities) != 1 || body.Entities.Cities[0] != "成都" {
		t.Fatalf("entities = %#v", body.Entities)
	}
	if stub.lastText != "去成都玩两天" {
		t.Fatalf("handler got text %q", stub.lastText)
	}
}

func TestChatGeneratesSessionIDWhenMissing(t *testing.T) {
	t.Parallel()

	stub := &stubHandler{reply: "你好"}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"message":"你好"}`))
	if err != nil {
		t.Fatalf("POST /api/chat error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if body.SessionID == "" {
		t.Fatal("expected generated session id")
	}
	if stub.lastID != body.SessionID {
		t.Fatalf("handler session %q != response session %q", stub.lastID, body.SessionID)
	}
}

func TestChatValidationErrorsAreBadRequest(t *testing.T) {
	t.Parallel()

	stub := &stubHandler{err: orchestratorx.ErrInvalidMessage}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"session_id":"s1","message":""}`))
	if err != nil {
		t.Fatalf("POST /api/chat error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestChatInternalErrorsAreGeneric(t *testing.T) {
	t.Parallel()

	stub := &stubHandler{err: errors.New("model exploded with internal detail")}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/chat", "application/json",
		strings.NewReader(`{"session_id":"s1","message":"hi"}`))
	if err != nil {
		t.Fatalf("POST /api/chat error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if strings.Contains(body["error"], "internal detail") {
		t.Fatalf("internal error leaked to client: %q", body["error"])
	}
}

func TestResetRequiresSessionID(t *testing.T) {
	t.Parallel()

	stub := &stubHandler{}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/reset", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST /api/reset error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(stub.resetCalls) != 0 {
		t.Fatal("reset should not be called without a session id")
	}
}

func TestResetDeletesSession(t *testing.T) {
	t.Parallel()

	stub := &stubHandler{}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/reset", "application/json",
		strings.NewReader(`{"session_id":"s9"}`))
	if err != nil {
		t.Fatalf("POST /api/reset error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if len(stub.resetCalls) != 1 || stub.resetCalls[0] != "s9" {
		t.Fatalf("reset calls = %#v", stub.resetCalls)
	}
}

func TestSuggestionsEndpoint(t *testing.T) {
	t.Parallel()

	stub := &stubHandler{suggestions: []string{"帮我规划一个避开人多的行程"}}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/suggestions")
	if err != nil {
		t.Fatalf("GET /api/suggestions error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body suggestionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(body.Questions) != 1 || body.Questions[0] != "帮我规划一个避开人多的行程" {
		t.Fatalf("questions = %#v", body.Questions)
	}
	if body.Title == "" {
		t.Fatal("non-empty suggestions should carry a title")
	}
}

func TestSuggestionsEndpointEmptyProfile(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubHandler{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/suggestions")
	if err != nil {
		t.Fatalf("GET /api/suggestions error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var body suggestionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(body.Questions) != 0 || body.Title != "" {
		t.Fatalf("empty profile should yield no suggestions: %#v", body)
	}
}

func TestClearProfileEndpoint(t *testing.T) {
	t.Parallel()

	stub := &stubHandler{}
	srv := newTestServer(stub)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/clear_profile", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatalf("POST /api/clear_profile error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if stub.profileWipes != 1 {
		t.Fatalf("profile wipes = %d, want 1", stub.profileWipes)
	}
}

func TestProfileEndpoint(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&stubHandler{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/profile")
	if err != nil {
		t.Fatalf("GET /api/profile error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var profile statex.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if profile.UserID != "u1" {
		t.Fatalf("profile user = %q", profile.UserID)
	}
}
