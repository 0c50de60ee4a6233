package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/tripmind-ai/tripmind/agent/contract"
	nodex "github.com/tripmind-ai/tripmind/agent/nodes"
	statex "github.com/tripmind-ai/tripmind/agent/state"
)

func (o *Orchestrator) compileHandleTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("load_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadSession(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_session: %w", err)
	}

	if err := graph.AddLambdaNode("rewrite",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Rewrite(ctx, in, o.models.Rewriter())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node rewrite: %w", err)
	}

	if err := graph.AddLambdaNode("classify_intent",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyIntent(ctx, in, o.models.Classifier())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node classify_intent: %w", err)
	}

	if err := graph.AddLambdaNode("clarify_gate",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClarifyGate(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node clarify_gate: %w", err)
	}

	if err := graph.AddLambdaNode("load_memory",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.LoadMemory(ctx, in, o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_memory: %w", err)
	}

	if err := graph.AddLambdaNode("fetch_weather",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.FetchWeather(ctx, in, o.weather, o.fallbackCity)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node fetch_weather: %w", err)
	}

	if err := graph.AddLambdaNode("clothing_advice",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AdviseClothing(ctx, in, o.models.Advisor())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node clothing_advice: %w", err)
	}

	if err := graph.AddLambdaNode("plan_trip",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PlanTrip(ctx, in, o.models.Planner())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node plan_trip: %w", err)
	}

	if err := graph.AddLambdaNode("general_qa",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AnswerQuestion(ctx, in, o.models.Responder())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node general_qa: %w", err)
	}

	if err := graph.AddLambdaNode("assess_risk",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AssessRisk(ctx, in, o.models.Planner())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node assess_risk: %w", err)
	}

	if err := graph.AddLambdaNode("format_response",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.FormatResponse(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node format_response: %w", err)
	}

	if err := graph.AddLambdaNode("save_state",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SaveState(ctx, in, o.store)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node save_state: %w", err)
	}

	if err := graph.AddLambdaNode("update_memory",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.WriteMemory(ctx, in, o.memory)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node update_memory: %w", err)
	}

	if err := graph.AddLambdaNode("emit_output",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.EmitOutput(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node emit_output: %w", err)
	}

	clarifyBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil || in.Turn == nil {
				return "", fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
			}
			if in.Turn.ClarifyOnly {
				return "format_response", nil
			}
			return "load_memory", nil
		},
		map[string]bool{
			"format_response": true,
			"load_memory":     true,
		},
	)
	if err := graph.AddBranch("clarify_gate", clarifyBranch); err != nil {
		return nil, fmt.Errorf("add clarify branch: %w", err)
	}

	intentBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil || in.Turn == nil {
				return "", fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
			}
			switch in.Turn.IntentTag() {
			case statex.IntentClothingAdvice:
				return "clothing_advice", nil
			case statex.IntentTripPlanning:
				return "plan_trip", nil
			case statex.IntentGeneralQA:
				return "general_qa", nil
			}
			// Chat and unknown turns go straight to the generic fallback.
			return "format_response", nil
		},
		map[string]bool{
			"clothing_advice": true,
			"plan_trip":       true,
			"general_qa":      true,
			"format_response": true,
		},
	)
	if err := graph.AddBranch("fetch_weather", intentBranch); err != nil {
		return nil, fmt.Errorf("add intent branch: %w", err)
	}

	riskBranch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil || in.Turn == nil {
				return "", fmt.Errorf("%w: graph turn is nil", contractx.ErrValidation)
			}
			if in.Turn.NeedsReplan && in.Turn.Plan != nil {
				return "assess_risk", nil
			}
			return "format_response", nil
		},
		map[string]bool{
			"assess_risk":     true,
			"format_response": true,
		},
	)
	if err := graph.AddBranch("plan_trip", riskBranch); err != nil {
		return nil, fmt.Errorf("add risk branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "load_session"},
		{"load_session", "rewrite"},
		{"rewrite", "classify_intent"},
		{"classify_intent", "clarify_gate"},
		{"load_memory", "fetch_weather"},
		{"clothing_advice", "format_response"},
		{"general_qa", "format_response"},
		{"assess_risk", "format_response"},
		{"format_response", "save_state"},
		{"save_state", "update_memory"},
		{"update_memory", "emit_output"},
		{"emit_output", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
