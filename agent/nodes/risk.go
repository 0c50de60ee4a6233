package turnnode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

// AssessRisk fills in a backup plan for every weather-risky day that does
// not have one yet. Backup generation failing for one day leaves that day
// without a fallback but never kills the plan.
func AssessRisk(ctx context.Context, in *GraphState, planner contractx.TripPlanner) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageAssessRisk

	if turn.Plan == nil {
		return in, nil
	}

	for i := range turn.Plan.Days {
		day := &turn.Plan.Days[i]
		if day.Risk == statex.RiskLow || day.BackupPlan != "" {
			continue
		}
		backup, err := planner.Backup(ctx, *day)
		if err != nil {
			log.Warn().Err(err).Str("date", day.Date).Msg("backup generation failed")
			continue
		}
		day.BackupPlan = backup
	}
	return in, nil
}
