package turnnode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

// LoadSession resolves the previous turn's end-state and seeds this turn
// from it. A missing session is a fresh conversation, not an error.
func LoadSession(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	prev, err := store.Load(ctx, in.SessionID)
	if err != nil && !errors.Is(err, statex.ErrStateNotFound) {
		return nil, err
	}

	in.Turn = statex.NewTurn(prev, in.SessionID, in.UserID, in.Text, in.Now)
	in.Turn.CurrentStage = StageLoadSession
	return in, nil
}
