package turnnode

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

// activityTags map activity and preference wording onto a wear context the
// advisor model can reason about.
var activityTags = []struct {
	keywords []string
	tag      string
}{
	{keywords: []string{"徒步", "爬山", "登山", "骑行"}, tag: "户外运动，容易出汗"},
	{keywords: []string{"看展", "博物馆", "美术馆"}, tag: "室内看展，冷气较足"},
	{keywords: []string{"夜市", "夜景", "酒吧"}, tag: "夜间活动，气温偏低"},
	{keywords: []string{"逛街", "购物", "商场"}, tag: "逛街购物，走路较多"},
	{keywords: []string{"拍照", "打卡"}, tag: "户外拍照"},
	{keywords: []string{"海边", "沙滩"}, tag: "海边活动，风大"},
}

// AdviseClothing generates wear advice for each day of weather, folding in
// that day's planned activities. Per-day model failures degrade to the
// weather record's own packing hint.
func AdviseClothing(ctx context.Context, in *GraphState, advisor contractx.ClothingAdvisor) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageClothingAdvice

	city := turn.Entities.FirstCity("")
	reports := turn.Weather[city]
	if len(reports) == 0 {
		for _, cityReports := range turn.Weather {
			reports = cityReports
			break
		}
	}
	if len(reports) == 0 {
		turn.ErrorMessage = "天气信息缺失"
		return in, nil
	}

	lines := make([]string, 0, len(reports))
	for i, report := range reports {
		advice, err := advisor.Advise(ctx, contractx.AdviseRequest{
			Weather:     report,
			UserContext: dayContext(turn, i),
		})
		if err != nil {
			log.Warn().Err(err).Int("day", i+1).Msg("clothing advice failed, using weather hint")
			advice = report.Suggestion
		}
		if len(reports) > 1 {
			advice = fmt.Sprintf("第%d天（%s）：%s", i+1, report.Brief(), advice)
		}
		lines = append(lines, advice)
	}

	turn.ClothingAdvice = strings.Join(lines, "\n\n")
	return in, nil
}

// dayContext describes what the user will be doing on one day: the planned
// activities when a plan exists, otherwise their stated preferences.
func dayContext(turn *statex.TurnState, dayIdx int) string {
	var parts []string

	var activities []string
	if turn.Plan != nil && dayIdx < len(turn.Plan.Days) {
		activities = turn.Plan.Days[dayIdx].ActivityNames()
	}
	if len(activities) == 0 {
		activities = turn.Entities.Preferences
	}
	if len(activities) > 0 {
		parts = append(parts, "当天安排: "+strings.Join(activities, "、"))
	}

	tags := lo.Uniq(inferTags(activities))
	if len(tags) > 0 {
		parts = append(parts, "活动场景: "+strings.Join(tags, "；"))
	}

	if len(turn.Entities.Preferences) > 0 {
		parts = append(parts, "偏好: "+strings.Join(turn.Entities.Preferences, "、"))
	}
	return strings.Join(parts, "\n")
}

func inferTags(activities []string) []string {
	var tags []string
	for _, activity := range activities {
		for _, entry := range activityTags {
			for _, kw := range entry.keywords {
				if strings.Contains(activity, kw) {
					tags = append(tags, entry.tag)
					break
				}
			}
		}
	}
	return tags
}
