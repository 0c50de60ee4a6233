package generator

import (
	"context"
	"fmt"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	llmx "github.com/tripmind-ai/tripmind/agent/llm"
	promptx "github.com/tripmind-ai/tripmind/agent/prompt"
)

type registryImpl struct {
	rewriter   contractx.Rewriter
	classifier contractx.IntentClassifier
	planner    contractx.TripPlanner
	advisor    contractx.ClothingAdvisor
	responder  contractx.Responder
}

func (r *registryImpl) Rewriter() contractx.Rewriter           { return r.rewriter }
func (r *registryImpl) Classifier() contractx.IntentClassifier { return r.classifier }
func (r *registryImpl) Planner() contractx.TripPlanner         { return r.planner }
func (r *registryImpl) Advisor() contractx.ClothingAdvisor     { return r.advisor }
func (r *registryImpl) Responder() contractx.Responder         { return r.responder }

// NewRegistry compiles one model-backed implementation per generation role.
// The router model serves both the rewriter and the intent classifier.
func NewRegistry(ctx context.Context, cfg llmx.Config) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()

	routerModelCfg := cfg.OpenRouterFor(contractx.RoleRouter)
	routerModel, err := routerModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create router model: %v", contractx.ErrModelInvoke, err)
	}
	plannerModelCfg := cfg.OpenRouterFor(contractx.RolePlanner)
	plannerModel, err := plannerModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create planner model: %v", contractx.ErrModelInvoke, err)
	}
	advisorModelCfg := cfg.OpenRouterFor(contractx.RoleAdvisor)
	advisorModel, err := advisorModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create advisor model: %v", contractx.ErrModelInvoke, err)
	}
	responderModelCfg := cfg.OpenRouterFor(contractx.RoleResponder)
	responderModel, err := responderModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create responder model: %v", contractx.ErrModelInvoke, err)
	}

	rewriter, err := newRewriter(ctx, routerModel, prompts.Rewrite)
	if err != nil {
		return nil, err
	}
	classifier, err := newClassifier(ctx, routerModel, prompts.Router)
	if err != nil {
		return nil, err
	}
	planner, err := newPlanner(ctx, plannerModel, prompts.Planner, prompts.Backup)
	if err != nil {
		return nil, err
	}
	advisor, err := newAdvisor(ctx, advisorModel, prompts.Advisor)
	if err != nil {
		return nil, err
	}
	responder, err := newResponder(ctx, responderModel, prompts.QA)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		rewriter:   rewriter,
		classifier: classifier,
		planner:    planner,
		advisor:    advisor,
		responder:  responder,
	}, nil
}
