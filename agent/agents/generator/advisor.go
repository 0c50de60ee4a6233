package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
)

type advisorImpl struct {
	runner compose.Runnable[map[string]any, string]
}

func newAdvisor(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*advisorImpl, error) {
	runner, err := compileTextLLMGraph(ctx, chatModel, systemPrompt, "generator.advisor_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile advisor graph: %v", contractx.ErrModelInvoke, err)
	}
	return &advisorImpl{runner: runner}, nil
}

func (a *advisorImpl) Advise(ctx context.Context, req contractx.AdviseRequest) (string, error) {
	input, err := json.Marshal(map[string]any{
		"weather":      req.Weather,
		"user_context": req.UserContext,
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal advisor payload: %v", contractx.ErrValidation, err)
	}

	out, err := a.runner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return "", fmt.Errorf("%w: advisor invoke: %v", contractx.ErrModelInvoke, err)
	}

	advice := strings.TrimSpace(out)
	if advice == "" {
		return "", fmt.Errorf("%w: advisor returned empty advice", contractx.ErrSchemaViolation)
	}
	return advice, nil
}
