package turnnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
)

// AnswerQuestion handles QA turns with the responder model, grounded on
// the current plan and remembered preferences.
func AnswerQuestion(ctx context.Context, in *GraphState, responder contractx.Responder) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageGeneralQA

	var tripPlaces []string
	if turn.Plan != nil {
		for _, day := range turn.Plan.Days {
			tripPlaces = append(tripPlaces, day.ActivityNames()...)
		}
	}

	memories := make([]string, 0, len(turn.MemoryHits))
	for _, hit := range turn.MemoryHits {
		memories = append(memories, hit.Content)
	}

	hasHealthConcern := turn.Intent != nil && turn.Intent.Raw["has_health_concern"] == "true"

	answer, err := responder.Answer(ctx, contractx.AnswerRequest{
		UserInput:        queryText(in),
		Cities:           turn.Entities.Cities,
		TripPlaces:       tripPlaces,
		Memories:         memories,
		HasHealthConcern: hasHealthConcern,
	})
	if err != nil {
		log.Error().Err(err).Str("session_id", in.SessionID).Msg("qa answer failed")
		turn.ErrorMessage = "问答生成失败"
		return in, nil
	}

	turn.FinalResponse = answer
	return in, nil
}
