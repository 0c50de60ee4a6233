package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tripmind-ai/tripmind/agent/agents/orchestrator"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

const genericErrorReply = "抱歉，服务暂时不可用，请稍后再试。"

type Config struct {
	Addr           string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" split_words:"true" default:"60s"`
}

// TurnHandler is the slice of the orchestrator the HTTP layer needs.
type TurnHandler interface {
	HandleTurn(ctx context.Context, sessionID, text string) (string, *statex.TurnState, error)
	Profile(ctx context.Context) (statex.Profile, error)
	Suggestions(ctx context.Context) ([]string, error)
	ClearProfile(ctx context.Context) error
	Reset(ctx context.Context, sessionID string) error
}

type Server struct {
	handler TurnHandler
	router  chi.Router
	addr    string
}

func New(handler TurnHandler, cfg Config) *Server {
	s := &Server{handler: handler, addr: cfg.Addr}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(timeout))

	r.Get("/health", s.handleHealth)
	r.Post("/api/chat", s.handleChat)
	r.Get("/api/profile", s.handleProfile)
	r.Get("/api/suggestions", s.handleSuggestions)
	r.Post("/api/clear_profile", s.handleClearProfile)
	r.Post("/api/reset", s.handleReset)

	s.router = r
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) ListenAndServe() error {
	log.Info().Str("addr", s.addr).Msg("http server listening")
	return http.ListenAndServe(s.addr, s.router)
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string           `json:"session_id"`
	Reply     string           `json:"reply"`
	Intent    string           `json:"intent,omitempty"`
	Stage     string           `json:"stage,omitempty"`
	Entities  *statex.Entities `json:"entities,omitempty"`
	Questions []string         `json:"questions,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	reply, st, err := s.handler.HandleTurn(r.Context(), sessionID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, orchestratorx.ErrInvalidMessage), errors.Is(err, orchestratorx.ErrInvalidSession):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			log.Error().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": genericErrorReply})
		}
		return
	}

	resp := chatResponse{SessionID: sessionID, Reply: reply}
	if st != nil {
		resp.Intent = string(st.IntentTag())
		resp.Stage = st.CurrentStage
		resp.Entities = &st.Entities
		resp.Questions = st.ClarifyingQuestions
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.handler.Profile(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("profile lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": genericErrorReply})
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

const suggestionsTitle = "为你准备的出行灵感"

type suggestionsResponse struct {
	Questions []string `json:"questions"`
	Title     string   `json:"title"`
}

// handleSuggestions returns personalized opening questions. The title stays
// empty when there is no profile yet; the frontend then shows its own
// canned suggestions.
func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.handler.Suggestions(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("suggestions lookup failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": genericErrorReply})
		return
	}

	resp := suggestionsResponse{Questions: questions}
	if len(questions) > 0 {
		resp.Title = suggestionsTitle
	}
	if resp.Questions == nil {
		resp.Questions = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.handler.ClearProfile(r.Context()); err != nil {
		log.Error().Err(err).Msg("profile clear failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": genericErrorReply})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session_id is required"})
		return
	}

	if err := s.handler.Reset(r.Context(), req.SessionID); err != nil {
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("session reset failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": genericErrorReply})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("write response failed")
	}
}
