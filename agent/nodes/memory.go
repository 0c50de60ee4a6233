package turnnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
)

const memorySearchK = 3

// preferenceSignals mark an utterance as worth remembering long-term.
var preferenceSignals = []string{"喜欢", "不喜欢", "讨厌", "爱吃", "不吃", "预算", "习惯", "怕", "想住", "常去", "不想去"}

// LoadMemory surfaces relevant long-term preferences for this query.
// Memory being unavailable never blocks a turn.
func LoadMemory(ctx context.Context, in *GraphState, memory contractx.MemoryStore) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageLoadMemory

	hits, err := memory.Search(ctx, turn.UserID, queryText(in), memorySearchK)
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("memory search failed")
		return in, nil
	}
	turn.MemoryHits = hits
	return in, nil
}

// WriteMemory stores the utterance as a preference when it carries a
// preference signal. Write failures are logged, never surfaced.
func WriteMemory(ctx context.Context, in *GraphState, memory contractx.MemoryStore) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageUpdateMemory

	sentence := strings.TrimSpace(in.Text)
	if !containsAny(sentence, preferenceSignals) {
		return in, nil
	}

	if err := memory.Append(ctx, turn.UserID, sentence, "", "chat"); err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("memory write failed")
	}
	return in, nil
}
