package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TurnState is the single mutable aggregate threaded through every stage of
// one turn. A whitelisted subset of fields (see NewTurn) carries into the
// next turn; everything else is per-turn scratch.
type TurnState struct {
	// Identity
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`

	// Conversation
	Messages []Message `json:"messages,omitempty"`
	Input    string    `json:"input"`

	// Rewrite / clarification
	RewrittenQuery      string            `json:"rewritten_query,omitempty"`
	Slots               map[string]string `json:"slots,omitempty"`
	UsedDefaultDuration bool              `json:"used_default_duration,omitempty"`
	NeedsClarification  bool              `json:"needs_clarification,omitempty"`
	ClarifyingQuestions []string          `json:"clarifying_questions,omitempty"`
	ClarifyOnly         bool              `json:"clarify_only,omitempty"`

	// Classification + confirmed entities
	Intent         *Intent  `json:"intent,omitempty"`
	Entities       Entities `json:"entities"`
	ExcludedPlaces []string `json:"excluded_places,omitempty"`
	IncludedPlaces []string `json:"included_places,omitempty"`

	// Stage outputs
	Weather        map[string][]WeatherReport `json:"weather,omitempty"`
	MemoryHits     []MemoryHit                `json:"memory_hits,omitempty"`
	Plan           *Plan                      `json:"plan,omitempty"`
	ClothingAdvice string                     `json:"clothing_advice,omitempty"`
	FinalResponse  string                     `json:"final_response,omitempty"`

	// Control
	CurrentStage string `json:"current_stage,omitempty"`
	NeedsReplan  bool   `json:"needs_replan,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

type IntentTag string

const (
	IntentClothingAdvice IntentTag = "clothing_advice"
	IntentTripPlanning   IntentTag = "trip_planning"
	IntentGeneralQA      IntentTag = "general_qa"
	IntentGeneralChat    IntentTag = "general_chat"
	IntentUnknown        IntentTag = "unknown"
)

type Intent struct {
	Tag        IntentTag         `json:"tag"`
	Confidence float64           `json:"confidence"`
	Raw        map[string]string `json:"raw,omitempty"`
}

// Entities is the confirmed entity bag, reconciled across turns by
// MergeEntities. Cities and Preferences are ordered-unique lists.
type Entities struct {
	Cities       []string `json:"cities,omitempty"`
	DurationDays int      `json:"duration_days,omitempty"`
	Dates        []string `json:"dates,omitempty"`
	Preferences  []string `json:"preferences,omitempty"`
	Budget       string   `json:"budget,omitempty"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	maxHistoryMessages = 20
)

type MemoryHit struct {
	Content  string  `json:"content"`
	Category string  `json:"category"`
	Score    float64 `json:"score"`
}

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrStateNotFound  = errors.New("session state not found")
	ErrNilTurnState   = errors.New("turn state is nil")
)

// NewTurn seeds a fresh TurnState for one incoming message. Accumulation
// fields are copied from the previous turn's end-state; control and output
// fields start zeroed. prev may be nil (first turn of a session).
func NewTurn(prev *TurnState, sessionID, userID, input string, now time.Time) *TurnState {
	st := &TurnState{
		SessionID: sessionID,
		UserID:    userID,
		Input:     input,
		UpdatedAt: now.UTC(),
	}

	if prev != nil {
		st.Messages = append([]Message(nil), prev.Messages...)
		st.Entities = prev.Entities.Clone()
		st.ExcludedPlaces = append([]string(nil), prev.ExcludedPlaces...)
		st.IncludedPlaces = append([]string(nil), prev.IncludedPlaces...)
		st.MemoryHits = append([]MemoryHit(nil), prev.MemoryHits...)
		st.Plan = prev.Plan
		if len(prev.Weather) > 0 {
			st.Weather = make(map[string][]WeatherReport, len(prev.Weather))
			for city, reports := range prev.Weather {
				st.Weather[city] = append([]WeatherReport(nil), reports...)
			}
		}
	}

	st.AppendMessage(RoleUser, input)
	return st
}

// AppendMessage adds one history entry, keeping only the most recent
// maxHistoryMessages to bound the carried state.
func (s *TurnState) AppendMessage(role, content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	s.Messages = append(s.Messages, Message{Role: role, Content: content})
	if len(s.Messages) > maxHistoryMessages {
		s.Messages = s.Messages[len(s.Messages)-maxHistoryMessages:]
	}
}

func (s *TurnState) IntentTag() IntentTag {
	if s == nil || s.Intent == nil {
		return IntentUnknown
	}
	return s.Intent.Tag
}

// SetIntent is used by the classify stage and by the clarify gate's
// follow-up reinterpretation, the one documented in-place correction.
func (s *TurnState) SetIntent(tag IntentTag, confidence float64) {
	if s.Intent == nil {
		s.Intent = &Intent{Tag: tag, Confidence: confidence}
		return
	}
	s.Intent.Tag = tag
	if confidence > s.Intent.Confidence {
		s.Intent.Confidence = confidence
	}
}

func (s *TurnState) Touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

func (s *TurnState) Validate() error {
	if s == nil {
		return ErrNilTurnState
	}
	if strings.TrimSpace(s.SessionID) == "" {
		return ErrInvalidSession
	}
	for _, exc := range s.ExcludedPlaces {
		for _, inc := range s.IncludedPlaces {
			if placesMatch(exc, inc) {
				return fmt.Errorf("excluded place %q conflicts with included place %q", exc, inc)
			}
		}
	}
	return nil
}

func (e Entities) Clone() Entities {
	return Entities{
		Cities:       append([]string(nil), e.Cities...),
		DurationDays: e.DurationDays,
		Dates:        append([]string(nil), e.Dates...),
		Preferences:  append([]string(nil), e.Preferences...),
		Budget:       e.Budget,
	}
}

// FirstCity returns the primary city, or fallback when none is known.
func (e Entities) FirstCity(fallback string) string {
	if len(e.Cities) > 0 {
		return e.Cities[0]
	}
	return fallback
}
