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

type rewriterImpl struct {
	runner compose.Runnable[map[string]any, contractx.RewriteResult]
}

func newRewriter(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*rewriterImpl, error) {
	runner, err := compileStructuredLLMGraph[contractx.RewriteResult](ctx, chatModel, systemPrompt, "generator.rewrite_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile rewrite graph: %v", contractx.ErrModelInvoke, err)
	}
	return &rewriterImpl{runner: runner}, nil
}

func (r *rewriterImpl) Rewrite(ctx context.Context, req contractx.RewriteRequest) (contractx.RewriteResult, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return contractx.RewriteResult{}, fmt.Errorf("%w: user input is required", contractx.ErrValidation)
	}

	input, err := json.Marshal(map[string]any{
		"user_input":   req.UserInput,
		"current_date": req.CurrentDate,
	})
	if err != nil {
		return contractx.RewriteResult{}, fmt.Errorf("%w: marshal rewrite payload: %v", contractx.ErrValidation, err)
	}

	out, err := r.runner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return contractx.RewriteResult{}, fmt.Errorf("%w: rewrite invoke: %v", contractx.ErrModelInvoke, err)
	}

	out.RewrittenQuery = strings.TrimSpace(out.RewrittenQuery)
	if out.RewrittenQuery == "" {
		out.RewrittenQuery = req.UserInput
	}
	out.Confidence = clamp01(out.Confidence)
	return out, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
