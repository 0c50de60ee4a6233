package turnnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

// ClassifyIntent runs the router model over the rewritten query and merges
// this turn's extraction into the confirmed entity state. A classifier
// failure degrades to the unknown intent so the turn still gets a reply.
func ClassifyIntent(ctx context.Context, in *GraphState, classifier contractx.IntentClassifier) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageClassifyIntent

	out, err := classifier.Classify(ctx, contractx.ClassifyRequest{
		UserInput:   queryText(in),
		CurrentDate: in.Now.Format("2006-01-02"),
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("intent classification failed")
		turn.SetIntent(statex.IntentUnknown, 0)
		return in, nil
	}

	turn.SetIntent(out.Intent, out.Confidence)

	turn.Entities = statex.MergeEntities(turn.Entities, statex.Entities{
		Cities:       out.Cities,
		DurationDays: out.DurationDays,
		Dates:        out.Dates,
		Preferences:  out.Preferences,
		Budget:       out.Budget,
	})
	turn.ExcludedPlaces, turn.IncludedPlaces = statex.MergePlaces(
		turn.ExcludedPlaces, turn.IncludedPlaces,
		out.ExcludedPlaces, out.IncludedPlaces,
	)

	if subject := strings.TrimSpace(out.QuerySubject); subject != "" || out.HasHealthConcern {
		if turn.Intent.Raw == nil {
			turn.Intent.Raw = make(map[string]string, 2)
		}
		if subject != "" {
			turn.Intent.Raw["query_subject"] = subject
		}
		if out.HasHealthConcern {
			turn.Intent.Raw["has_health_concern"] = "true"
		}
	}

	applyDefaultDuration(turn)
	return in, nil
}

func queryText(in *GraphState) string {
	if in.Turn != nil && strings.TrimSpace(in.Turn.RewrittenQuery) != "" {
		return in.Turn.RewrittenQuery
	}
	return in.Text
}
