package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

type classifierImpl struct {
	runner compose.Runnable[map[string]any, contractx.IntentResult]
}

func newClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*classifierImpl, error) {
	runner, err := compileStructuredLLMGraph[contractx.IntentResult](ctx, chatModel, systemPrompt, "generator.router_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile router graph: %v", contractx.ErrModelInvoke, err)
	}
	return &classifierImpl{runner: runner}, nil
}

func (c *classifierImpl) Classify(ctx context.Context, req contractx.ClassifyRequest) (contractx.IntentResult, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return contractx.IntentResult{}, fmt.Errorf("%w: user input is required", contractx.ErrValidation)
	}

	input, err := json.Marshal(map[string]any{
		"user_input":   req.UserInput,
		"current_date": req.CurrentDate,
	})
	if err != nil {
		return contractx.IntentResult{}, fmt.Errorf("%w: marshal router payload: %v", contractx.ErrValidation, err)
	}

	out, err := c.runner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return contractx.IntentResult{}, fmt.Errorf("%w: router invoke: %v", contractx.ErrModelInvoke, err)
	}

	if !isSupportedIntent(out.Intent) {
		out.Intent = statex.IntentUnknown
		out.Confidence = 0
	}
	out.Confidence = clamp01(out.Confidence)
	return out, nil
}

func isSupportedIntent(tag statex.IntentTag) bool {
	switch tag {
	case statex.IntentClothingAdvice,
		statex.IntentTripPlanning,
		statex.IntentGeneralQA,
		statex.IntentGeneralChat,
		statex.IntentUnknown:
		return true
	}
	return false
}
