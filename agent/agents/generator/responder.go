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

type responderImpl struct {
	runner compose.Runnable[map[string]any, string]
}

func newResponder(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*responderImpl, error) {
	runner, err := compileTextLLMGraph(ctx, chatModel, systemPrompt, "generator.qa_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile qa graph: %v", contractx.ErrModelInvoke, err)
	}
	return &responderImpl{runner: runner}, nil
}

func (r *responderImpl) Answer(ctx context.Context, req contractx.AnswerRequest) (string, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return "", fmt.Errorf("%w: user input is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"user_input": req.UserInput,
	}
	if len(req.Cities) > 0 {
		payload["cities"] = req.Cities
	}
	if len(req.TripPlaces) > 0 {
		payload["trip_places"] = req.TripPlaces
	}
	if len(req.Memories) > 0 {
		payload["user_memories"] = req.Memories
	}
	if req.HasHealthConcern {
		payload["has_health_concern"] = true
	}

	input, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal qa payload: %v", contractx.ErrValidation, err)
	}

	out, err := r.runner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return "", fmt.Errorf("%w: qa invoke: %v", contractx.ErrModelInvoke, err)
	}

	answer := strings.TrimSpace(out)
	if answer == "" {
		return "", fmt.Errorf("%w: qa returned empty answer", contractx.ErrSchemaViolation)
	}
	return answer, nil
}
