package contract

import (
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

type ModelRole string

const (
	RoleRouter    ModelRole = "router"
	RolePlanner   ModelRole = "planner"
	RoleAdvisor   ModelRole = "advisor"
	RoleResponder ModelRole = "responder"
)

// RewriteRequest asks the rewriter to normalize one user utterance.
type RewriteRequest struct {
	UserInput   string `json:"user_input"`
	CurrentDate string `json:"current_date"`
}

// RewriteResult is the closed output schema of the rewrite call. Slots stay
// textual: no time parsing happens here ("这周末" is kept verbatim).
type RewriteResult struct {
	RewrittenQuery      string   `json:"rewritten_query"`
	Cities              []string `json:"cities,omitempty"`
	DurationDays        int      `json:"duration_days,omitempty"`
	Preferences         []string `json:"preferences,omitempty"`
	BudgetText          string   `json:"budget_text,omitempty"`
	DatesText           string   `json:"dates_text,omitempty"`
	NeedClarification   bool     `json:"need_clarification,omitempty"`
	ClarifyingQuestions []string `json:"clarifying_questions,omitempty"`
	Confidence          float64  `json:"confidence"`
}

type ClassifyRequest struct {
	UserInput   string `json:"user_input"`
	CurrentDate string `json:"current_date"`
}

// IntentResult carries the classified intent plus this turn's raw entity
// extraction. Extraction fields may be empty; the merge engine treats
// absent values as empty containers.
type IntentResult struct {
	Intent           statex.IntentTag `json:"intent"`
	Confidence       float64          `json:"confidence"`
	Cities           []string         `json:"cities,omitempty"`
	Dates            []string         `json:"dates,omitempty"`
	DurationDays     int              `json:"duration_days,omitempty"`
	Preferences      []string         `json:"preferences,omitempty"`
	Budget           string           `json:"budget,omitempty"`
	ExcludedPlaces   []string         `json:"excluded_places,omitempty"`
	IncludedPlaces   []string         `json:"included_places,omitempty"`
	QuerySubject     string           `json:"query_subject,omitempty"`
	HasHealthConcern bool             `json:"has_health_concern,omitempty"`
}

type PlanRequest struct {
	UserInput      string                                `json:"user_input"`
	Entities       statex.Entities                       `json:"entities"`
	Weather        map[string][]statex.WeatherReport     `json:"weather,omitempty"`
	MemoryHits     []statex.MemoryHit                    `json:"memory_hits,omitempty"`
	PreviousPlan   *statex.Plan                          `json:"previous_plan,omitempty"`
	ExcludedPlaces []string                              `json:"excluded_places,omitempty"`
	IncludedPlaces []string                              `json:"included_places,omitempty"`
	AdjustmentHint string                                `json:"adjustment_hint,omitempty"`
}

type AdviseRequest struct {
	Weather     statex.WeatherReport `json:"weather"`
	UserContext string               `json:"user_context"`
}

type AnswerRequest struct {
	UserInput        string   `json:"user_input"`
	Cities           []string `json:"cities,omitempty"`
	TripPlaces       []string `json:"trip_places,omitempty"`
	Memories         []string `json:"memories,omitempty"`
	HasHealthConcern bool     `json:"has_health_concern,omitempty"`
}
