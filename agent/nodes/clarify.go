package turnnode

import (
	"fmt"
	"strings"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

const (
	cityQuestion     = "想去哪个城市呢？"
	activityQuestion = "这次主要安排什么活动呢？(徒步 / 看展 / 逛街 / 夜市)"
)

// followUpRefKeywords mark a message as referring back to earlier turns.
var followUpRefKeywords = []string{"之前", "上面", "刚才", "行程", "出行计划", "旅行计划", "按行程", "结合行程"}

// clothingKeywords mark the message as being about what to wear or pack.
var clothingKeywords = []string{"穿搭", "衣服", "带什么", "怎么穿", "配套", "outfit", "穿什么"}

// activityContextKeywords ask for outfit advice tied to planned activities.
var activityContextKeywords = []string{"根据我的活动", "按活动", "活动和气温", "场景", "配套", "穿搭方案", "一身", "outfit"}

// ClarifyGate decides whether this turn can proceed to execution or must
// stop and ask. For planning and clothing turns with a known city it also
// reinterprets misrouted follow-ups: "按之前的行程我该怎么穿" tends to come
// back classified as trip planning, but with a plan already on the table it
// is a clothing request.
func ClarifyGate(in *GraphState) (*GraphState, error) {
	if in == nil || in.Turn == nil {
		return nil, fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
	}
	turn := in.Turn
	turn.CurrentStage = StageClarifyGate

	switch turn.IntentTag() {
	case statex.IntentTripPlanning, statex.IntentClothingAdvice:
	default:
		// Chat, QA, and unknown turns never block on clarification.
		turn.ClarifyOnly = false
		return in, nil
	}

	if len(turn.Entities.Cities) == 0 {
		turn.NeedsClarification = true
		turn.ClarifyOnly = true
		turn.ClarifyingQuestions = prependQuestion(turn.ClarifyingQuestions, cityQuestion)
		return in, nil
	}

	reinterpretFollowUp(turn)

	if turn.IntentTag() == statex.IntentClothingAdvice &&
		len(turn.Entities.Preferences) == 0 &&
		containsAny(gateText(turn), activityContextKeywords) {
		turn.NeedsClarification = true
		turn.ClarifyOnly = true
		turn.ClarifyingQuestions = prependQuestion(turn.ClarifyingQuestions, activityQuestion)
		return in, nil
	}

	turn.ClarifyOnly = false
	return in, nil
}

func reinterpretFollowUp(turn *statex.TurnState) {
	if turn.Plan == nil {
		return
	}
	text := gateText(turn)
	if !containsAny(text, followUpRefKeywords) {
		return
	}
	if containsAny(text, clothingKeywords) || strings.Contains(text, "建议") {
		turn.SetIntent(statex.IntentClothingAdvice, 0.9)
	}
}

// gateText is what the gate's keyword scans look at: the raw message plus
// the rewritten query, which often restores the dropped reference.
func gateText(turn *statex.TurnState) string {
	return turn.Input + "\n" + turn.RewrittenQuery
}

func containsAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
