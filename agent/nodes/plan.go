package turnnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

// adjustmentClasses map user phrasing onto a directive for the planner.
// Checked in order; the first hit wins, so a message mentioning both budget
// and crowd level is treated as a budget adjustment.
var adjustmentClasses = []struct {
	keywords []string
	hint     string
}{
	{keywords: []string{"预算高", "贵点", "高端", "豪华"}, hint: "提高预算档次，安排更高端的体验"},
	{keywords: []string{"预算低", "便宜", "省钱", "经济", "实惠"}, hint: "降低花费，走经济实惠路线"},
	{keywords: []string{"热闹", "人多", "繁华", "商业"}, hint: "偏向热闹繁华的区域和商圈"},
	{keywords: []string{"安静", "清净", "人少", "小众"}, hint: "偏向安静小众、人少的地方"},
	{keywords: []string{"好玩", "有趣", "刺激", "特色"}, hint: "增加有趣、有当地特色的体验"},
}

// PlanTrip produces or revises the trip plan, scrubs excluded places,
// attaches per-day weather, and derives each day's risk tier. Planner
// failures set an error message for the formatting stage instead of
// aborting the turn.
func PlanTrip(ctx context.Context, in *GraphState, planner contractx.TripPlanner) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StagePlanTrip

	// A directive only makes sense when revising an existing plan; "想去热闹
	// 的地方" on a first request is a preference, not an adjustment.
	adjustment := ""
	if turn.Plan != nil {
		adjustment = AdjustmentHint(in.Text)
	}

	req := contractx.PlanRequest{
		UserInput:      queryText(in),
		Entities:       turn.Entities,
		Weather:        turn.Weather,
		MemoryHits:     turn.MemoryHits,
		PreviousPlan:   turn.Plan,
		ExcludedPlaces: turn.ExcludedPlaces,
		IncludedPlaces: turn.IncludedPlaces,
		AdjustmentHint: adjustment,
	}

	plan, err := planner.Plan(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("session_id", in.SessionID).Msg("trip planning failed")
		turn.ErrorMessage = "行程规划失败"
		return in, nil
	}

	plan.RemovePlaces(turn.ExcludedPlaces)
	attachWeather(plan, turn)
	turn.Plan = plan
	return in, nil
}

// AdjustmentHint extracts the revision directive from the raw utterance.
func AdjustmentHint(text string) string {
	for _, class := range adjustmentClasses {
		for _, kw := range class.keywords {
			if strings.Contains(text, kw) {
				return class.hint
			}
		}
	}
	return ""
}

// attachWeather aligns the plan's days with the forecast of each day's city
// and latches NeedsReplan when any day carries weather risk.
func attachWeather(plan *statex.Plan, turn *statex.TurnState) {
	dayIndexByCity := make(map[string]int, len(plan.Days))
	for i := range plan.Days {
		day := &plan.Days[i]
		city := day.City
		if city == "" {
			city = turn.Entities.FirstCity("")
		}
		reports := turn.Weather[city]
		if len(reports) == 0 {
			day.Risk = statex.RiskLow
			continue
		}

		idx := dayIndexByCity[city]
		if idx >= len(reports) {
			idx = len(reports) - 1
		}
		dayIndexByCity[city]++

		report := reports[idx]
		day.Weather = &report
		day.Risk = statex.DeriveRisk(report.Condition)
		if day.Risk != statex.RiskLow {
			turn.NeedsReplan = true
		}
	}
}
