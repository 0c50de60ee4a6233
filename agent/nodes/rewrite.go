package turnnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

const (
	maxClarifyingQuestions = 3

	defaultDurationQuestion = "这次打算玩几天呢？(1天 / 2天 / 3天)"
)

// Rewrite normalizes the raw utterance and harvests whatever slots the
// rewriter can extract. A rewriter failure degrades to the raw input.
func Rewrite(ctx context.Context, in *GraphState, rewriter contractx.Rewriter) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageRewrite

	out, err := rewriter.Rewrite(ctx, contractx.RewriteRequest{
		UserInput:   in.Text,
		CurrentDate: in.Now.Format("2006-01-02"),
	})
	if err != nil {
		log.Warn().Err(err).Str("session_id", in.SessionID).Msg("rewrite failed, using raw input")
		turn.RewrittenQuery = in.Text
		return in, nil
	}

	turn.RewrittenQuery = out.RewrittenQuery

	extracted := statex.Entities{
		Cities:       out.Cities,
		DurationDays: out.DurationDays,
		Preferences:  out.Preferences,
		Budget:       out.BudgetText,
	}
	if text := strings.TrimSpace(out.DatesText); text != "" {
		extracted.Dates = []string{text}
	}
	turn.Entities = statex.MergeEntities(turn.Entities, extracted)

	if out.NeedClarification {
		turn.NeedsClarification = true
	}
	turn.ClarifyingQuestions = appendQuestions(turn.ClarifyingQuestions, out.ClarifyingQuestions...)

	applyDefaultDuration(turn)
	return in, nil
}

// applyDefaultDuration assumes a one-day trip when the destination is known
// but the length is not, flags the guess, and asks about it up front. A
// genuinely carried or extracted duration is never overwritten.
func applyDefaultDuration(turn *statex.TurnState) {
	if turn.Entities.DurationDays > 0 || len(turn.Entities.Cities) == 0 {
		return
	}
	turn.Entities.DurationDays = 1
	turn.UsedDefaultDuration = true
	turn.ClarifyingQuestions = prependQuestion(turn.ClarifyingQuestions, defaultDurationQuestion)
}

func appendQuestions(existing []string, questions ...string) []string {
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if q == "" || containsQuestion(existing, q) {
			continue
		}
		if len(existing) >= maxClarifyingQuestions {
			break
		}
		existing = append(existing, q)
	}
	return existing
}

func prependQuestion(existing []string, question string) []string {
	if containsQuestion(existing, question) {
		return existing
	}
	out := append([]string{question}, existing...)
	if len(out) > maxClarifyingQuestions {
		out = out[:maxClarifyingQuestions]
	}
	return out
}

func containsQuestion(questions []string, q string) bool {
	for _, existing := range questions {
		if existing == q {
			return true
		}
	}
	return false
}
