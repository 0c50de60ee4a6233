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

type plannerImpl struct {
	planRunner   compose.Runnable[map[string]any, planLLMOutput]
	backupRunner compose.Runnable[map[string]any, string]
}

type planLLMOutput struct {
	Title string `json:"title"`
	Days  []struct {
		Date       string `json:"date"`
		City       string `json:"city"`
		Activities []struct {
			Time        string `json:"time"`
			Name        string `json:"name"`
			Description string `json:"description"`
			Duration    string `json:"duration"`
			Cost        string `json:"cost"`
		} `json:"activities"`
	} `json:"days"`
	BudgetEstimate string   `json:"budget_estimate"`
	Tips           []string `json:"tips"`
}

func newPlanner(ctx context.Context, chatModel einomodel.BaseChatModel, planPrompt, backupPrompt string) (*plannerImpl, error) {
	planRunner, err := compileStructuredLLMGraph[planLLMOutput](ctx, chatModel, planPrompt, "generator.planner_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile planner graph: %v", contractx.ErrModelInvoke, err)
	}
	backupRunner, err := compileTextLLMGraph(ctx, chatModel, backupPrompt, "generator.backup_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile backup graph: %v", contractx.ErrModelInvoke, err)
	}
	return &plannerImpl{planRunner: planRunner, backupRunner: backupRunner}, nil
}

func (p *plannerImpl) Plan(ctx context.Context, req contractx.PlanRequest) (*statex.Plan, error) {
	if strings.TrimSpace(req.UserInput) == "" {
		return nil, fmt.Errorf("%w: user input is required", contractx.ErrValidation)
	}

	payload := map[string]any{
		"user_input": req.UserInput,
		"entities":   req.Entities,
	}
	if len(req.Weather) > 0 {
		payload["weather"] = req.Weather
	}
	if len(req.MemoryHits) > 0 {
		payload["user_memories"] = req.MemoryHits
	}
	if req.PreviousPlan != nil {
		payload["previous_plan"] = req.PreviousPlan
	}
	if len(req.ExcludedPlaces) > 0 {
		payload["excluded_places"] = req.ExcludedPlaces
	}
	if len(req.IncludedPlaces) > 0 {
		payload["included_places"] = req.IncludedPlaces
	}
	if req.AdjustmentHint != "" {
		payload["adjustment_hint"] = req.AdjustmentHint
	}

	input, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal planner payload: %v", contractx.ErrValidation, err)
	}

	out, err := p.planRunner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return nil, fmt.Errorf("%w: planner invoke: %v", contractx.ErrModelInvoke, err)
	}

	plan, err := toPlan(out)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func (p *plannerImpl) Backup(ctx context.Context, day statex.PlanDay) (string, error) {
	input, err := json.Marshal(map[string]any{
		"date":       day.Date,
		"city":       day.City,
		"weather":    day.Weather,
		"risk":       day.Risk,
		"activities": day.ActivityNames(),
	})
	if err != nil {
		return "", fmt.Errorf("%w: marshal backup payload: %v", contractx.ErrValidation, err)
	}

	out, err := p.backupRunner.Invoke(ctx, map[string]any{"input": string(input)})
	if err != nil {
		return "", fmt.Errorf("%w: backup invoke: %v", contractx.ErrModelInvoke, err)
	}
	return strings.TrimSpace(out), nil
}

func toPlan(out planLLMOutput) (*statex.Plan, error) {
	title := strings.TrimSpace(out.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: plan title is empty", contractx.ErrSchemaViolation)
	}
	if len(out.Days) == 0 {
		return nil, fmt.Errorf("%w: plan has no days", contractx.ErrSchemaViolation)
	}

	plan := &statex.Plan{
		Title:          title,
		BudgetEstimate: strings.TrimSpace(out.BudgetEstimate),
		Tips:           out.Tips,
	}
	for _, day := range out.Days {
		planDay := statex.PlanDay{
			Date: strings.TrimSpace(day.Date),
			City: strings.TrimSpace(day.City),
		}
		for _, act := range day.Activities {
			name := strings.TrimSpace(act.Name)
			if name == "" {
				continue
			}
			planDay.Activities = append(planDay.Activities, statex.Activity{
				Time:        strings.TrimSpace(act.Time),
				Name:        name,
				Description: strings.TrimSpace(act.Description),
				Duration:    strings.TrimSpace(act.Duration),
				Cost:        strings.TrimSpace(act.Cost),
			})
		}
		if len(planDay.Activities) == 0 {
			return nil, fmt.Errorf("%w: plan day %q has no activities", contractx.ErrSchemaViolation, planDay.Date)
		}
		plan.Days = append(plan.Days, planDay)
	}
	return plan, nil
}
