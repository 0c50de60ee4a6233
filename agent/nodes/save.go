package turnnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

// SaveState persists the turn's end-state. The reply has already been
// produced at this point, so persistence failures are logged rather than
// returned.
func SaveState(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageSaveState
	turn.Touch(in.Now)

	if err := turn.Validate(); err != nil {
		log.Error().Err(err).Str("session_id", in.SessionID).Msg("turn state invalid, not saving")
		return in, nil
	}
	if err := store.Save(ctx, turn); err != nil {
		log.Error().Err(err).Str("session_id", in.SessionID).Msg("session save failed")
	}
	return in, nil
}

// EmitOutput is the terminal node: it turns the graph state into the reply.
func EmitOutput(in *GraphState) (GraphOutput, error) {
	if in == nil || in.Turn == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	reply := in.Turn.FinalResponse
	if reply == "" {
		reply = fallbackReply
	}
	return GraphOutput{Reply: reply, State: in.Turn}, nil
}
