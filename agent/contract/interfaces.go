package contract

import (
	"context"

	statex "github.com/tripmind-ai/tripmind/agent/state"
)

type Rewriter interface {
	Rewrite(ctx context.Context, req RewriteRequest) (RewriteResult, error)
}

type IntentClassifier interface {
	Classify(ctx context.Context, req ClassifyRequest) (IntentResult, error)
}

type TripPlanner interface {
	Plan(ctx context.Context, req PlanRequest) (*statex.Plan, error)
	// Backup generates an alternative for one weather-risky day.
	Backup(ctx context.Context, day statex.PlanDay) (string, error)
}

type ClothingAdvisor interface {
	Advise(ctx context.Context, req AdviseRequest) (string, error)
}

type Responder interface {
	Answer(ctx context.Context, req AnswerRequest) (string, error)
}

// Registry exposes the model-backed collaborators the orchestration graph
// depends on, one per generation role.
type Registry interface {
	Rewriter() Rewriter
	Classifier() IntentClassifier
	Planner() TripPlanner
	Advisor() ClothingAdvisor
	Responder() Responder
}

type WeatherProvider interface {
	Current(ctx context.Context, city string) (statex.WeatherReport, error)
	Forecast(ctx context.Context, city string, days int) ([]statex.WeatherReport, error)
}

// MemoryStore is the long-term preference memory. Append and Search both
// suppress near-duplicates; Wipe clears everything for every user.
type MemoryStore interface {
	Search(ctx context.Context, userID, query string, k int) ([]statex.MemoryHit, error)
	Append(ctx context.Context, userID, content, category, source string) error
	Profile(ctx context.Context, userID string) (statex.Profile, error)
	Wipe(ctx context.Context) error
}
