package turnnode

import (
	"fmt"
	"strings"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

const (
	maxOutboundQuestions = 2

	fallbackReply = "我可以帮你规划行程、根据天气推荐穿搭，也可以回答旅行相关的问题，告诉我你的想法吧～"
	errorReply    = "抱歉，刚才处理出了点问题，请稍后再试。"
)

var (
	cityQuestionKeywords     = []string{"城市", "目的地", "去哪", "区域"}
	durationQuestionKeywords = []string{"几天", "天数", "多久"}
)

// FormatResponse assembles the outbound reply from whatever the executed
// path produced. Responses set upstream pass through untouched.
func FormatResponse(in *GraphState) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageFormatResponse

	if strings.TrimSpace(turn.FinalResponse) == "" {
		turn.FinalResponse = buildResponse(turn)
	}

	turn.AppendMessage(statex.RoleAssistant, turn.FinalResponse)
	return in, nil
}

func buildResponse(turn *statex.TurnState) string {
	questions := filterQuestions(turn)

	if turn.ClarifyOnly {
		return renderQuestions(questions)
	}

	if turn.ErrorMessage != "" {
		return errorReply
	}

	switch turn.IntentTag() {
	case statex.IntentClothingAdvice:
		if turn.ClothingAdvice != "" {
			return withQuestions(turn.ClothingAdvice, questions)
		}
	case statex.IntentTripPlanning:
		if turn.Plan != nil {
			return withQuestions(renderTripPlan(turn), questions)
		}
	}

	return fallbackReply
}

// filterQuestions drops questions already answered by the confirmed entity
// state and caps the rest. A duration question survives when the value is a
// default guess rather than something the user said.
func filterQuestions(turn *statex.TurnState) []string {
	kept := make([]string, 0, len(turn.ClarifyingQuestions))
	for _, q := range turn.ClarifyingQuestions {
		if len(turn.Entities.Cities) > 0 && containsAny(q, cityQuestionKeywords) {
			continue
		}
		if turn.Entities.DurationDays > 0 && !turn.UsedDefaultDuration && containsAny(q, durationQuestionKeywords) {
			continue
		}
		kept = append(kept, q)
		if len(kept) >= maxOutboundQuestions {
			break
		}
	}
	return kept
}

func renderQuestions(questions []string) string {
	if len(questions) == 0 {
		return fallbackReply
	}
	if len(questions) == 1 {
		return questions[0]
	}
	var sb strings.Builder
	sb.WriteString("我需要先确认几个信息：\n")
	for _, q := range questions {
		sb.WriteString("- ")
		sb.WriteString(q)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func withQuestions(body string, questions []string) string {
	if len(questions) == 0 {
		return body
	}
	return body + "\n\n" + renderQuestions(questions)
}

func renderTripPlan(turn *statex.TurnState) string {
	plan := turn.Plan
	var sb strings.Builder

	sb.WriteString("🗺️ ")
	sb.WriteString(plan.Title)
	sb.WriteString("\n")

	for i, day := range plan.Days {
		sb.WriteString(fmt.Sprintf("\n第%d天", i+1))
		if day.Date != "" {
			sb.WriteString(" " + day.Date)
		}
		if day.City != "" {
			sb.WriteString(" · " + day.City)
		}
		sb.WriteString("\n")

		if day.Weather != nil {
			sb.WriteString("🌤️ " + day.Weather.Brief())
			if day.Weather.Suggestion != "" {
				sb.WriteString("（" + day.Weather.Suggestion + "）")
			}
			sb.WriteString("\n")
		}
		sb.WriteString("风险等级：" + riskLabel(day.Risk) + "\n")

		for _, act := range day.Activities {
			sb.WriteString("  ")
			if act.Time != "" {
				sb.WriteString(act.Time + " ")
			}
			sb.WriteString(act.Name)
			if detail := activityDetail(act); detail != "" {
				sb.WriteString("（" + detail + "）")
			}
			if act.Description != "" {
				sb.WriteString(" " + act.Description)
			}
			sb.WriteString("\n")
		}

		if day.Risk != statex.RiskLow && day.BackupPlan != "" {
			sb.WriteString("⚠️ 天气有风险，备选方案：" + day.BackupPlan + "\n")
		}
	}

	if plan.BudgetEstimate != "" {
		sb.WriteString("\n💰 预算：" + plan.BudgetEstimate + "\n")
	}
	if len(plan.Tips) > 0 {
		sb.WriteString("\n💡 小贴士：\n")
		for _, tip := range plan.Tips {
			sb.WriteString("- " + tip + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func riskLabel(risk statex.RiskTier) string {
	switch risk {
	case statex.RiskHigh:
		return "高"
	case statex.RiskMedium:
		return "中"
	}
	return "低"
}

func activityDetail(act statex.Activity) string {
	switch {
	case act.Duration != "" && act.Cost != "":
		return act.Duration + " · " + act.Cost
	case act.Duration != "":
		return act.Duration
	case act.Cost != "":
		return act.Cost
	}
	return ""
}
