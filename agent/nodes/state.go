package turnnode

import (
	"errors"
	"strings"
	"time"

	statex "github.com/tripmind-ai/tripmind/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidSession = errors.New("session id is empty")
)

// Stage names, recorded on the turn state as each node runs.
const (
	StageValidateRequest = "validate_request"
	StageLoadSession     = "load_session"
	StageRewrite         = "rewrite"
	StageClassifyIntent  = "classify_intent"
	StageClarifyGate     = "clarify_gate"
	StageLoadMemory      = "load_memory"
	StageFetchWeather    = "fetch_weather"
	StagePlanTrip        = "plan_trip"
	StageClothingAdvice  = "clothing_advice"
	StageGeneralQA       = "general_qa"
	StageAssessRisk      = "assess_risk"
	StageFormatResponse  = "format_response"
	StageSaveState       = "save_state"
	StageUpdateMemory    = "update_memory"
)

type GraphInput struct {
	SessionID string
	UserID    string
	Text      string
}

type GraphOutput struct {
	Reply string
	State *statex.TurnState
}

// GraphState is the value threaded through the orchestration graph for one
// turn. Turn is nil until LoadSession runs.
type GraphState struct {
	SessionID string
	UserID    string
	Text      string
	Now       time.Time

	Turn *statex.TurnState
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	sessionID := strings.TrimSpace(in.SessionID)
	if sessionID == "" {
		return nil, ErrInvalidSession
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		SessionID: sessionID,
		UserID:    strings.TrimSpace(in.UserID),
		Text:      text,
		Now:       nowFn().UTC(),
	}, nil
}
