package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
	statex "github.com/ziamuneeb097/Financial-Agent/agent/state"
)

type graphInput struct {
	Text string
}

type graphOutput struct {
	Reply string
	Ended bool
}

// turnState flows through the per-utterance pipeline.
type turnState struct {
	Text           string
	Terminal       bool
	Reply          string
	escalateReason string
}

func (ts *turnState) escalate(reason string) {
	if ts.escalateReason == "" {
		ts.escalateReason = reason
	}
}

func (o *Orchestrator) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[graphInput, graphOutput], error) {
	graph := compose.NewGraph[graphInput, graphOutput]()

	if err := graph.AddLambdaNode("accept_utterance",
		compose.InvokableLambda(func(ctx context.Context, in graphInput) (*turnState, error) {
			return o.acceptUtterance(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node accept_utterance: %w", err)
	}

	if err := graph.AddLambdaNode("close_session",
		compose.InvokableLambda(func(ctx context.Context, ts *turnState) (graphOutput, error) {
			return o.closeSession(ctx)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node close_session: %w", err)
	}

	if err := graph.AddLambdaNode("model_decision",
		compose.InvokableLambda(func(ctx context.Context, ts *turnState) (*turnState, error) {
			o.runModelTurn(ctx, ts)
			return ts, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node model_decision: %w", err)
	}

	if err := graph.AddLambdaNode("guard_reply",
		compose.InvokableLambda(func(ctx context.Context, ts *turnState) (*turnState, error) {
			o.guardReply(ts)
			return ts, nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node guard_reply: %w", err)
	}

	if err := graph.AddLambdaNode("emit_reply",
		compose.InvokableLambda(func(ctx context.Context, ts *turnState) (graphOutput, error) {
			return o.emitReply(ctx, ts)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node emit_reply: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, ts *turnState) (string, error) {
			if ts == nil {
				return "", fmt.Errorf("%w: turn state is nil", contractx.ErrValidation)
			}
			if ts.Terminal {
				return "close_session", nil
			}
			return "model_decision", nil
		},
		map[string]bool{
			"close_session":  true,
			"model_decision": true,
		},
	)

	if err := graph.AddEdge(compose.START, "accept_utterance"); err != nil {
		return nil, fmt.Errorf("add edge start->accept: %w", err)
	}
	if err := graph.AddBranch("accept_utterance", branch); err != nil {
		return nil, fmt.Errorf("add termination branch: %w", err)
	}
	if err := graph.AddEdge("model_decision", "guard_reply"); err != nil {
		return nil, fmt.Errorf("add edge model->guard: %w", err)
	}
	if err := graph.AddEdge("guard_reply", "emit_reply"); err != nil {
		return nil, fmt.Errorf("add edge guard->emit: %w", err)
	}
	if err := graph.AddEdge("emit_reply", compose.END); err != nil {
		return nil, fmt.Errorf("add edge emit->end: %w", err)
	}
	if err := graph.AddEdge("close_session", compose.END); err != nil {
		return nil, fmt.Errorf("add edge close->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.turn"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}

// acceptUtterance validates and records the customer turn, in strict
// arrival order, before any model work happens.
func (o *Orchestrator) acceptUtterance(in graphInput) (*turnState, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: utterance is empty", contractx.ErrValidation)
	}

	now := o.now()
	if err := o.session.Append(contractx.SpeakerCustomer, text, now); err != nil {
		return nil, err
	}
	o.history = append(o.history, contractx.ModelTurn{Role: contractx.RoleCustomer, Content: text})
	o.customerTurns++

	return &turnState{
		Text:     text,
		Terminal: isTerminationKeyword(text),
	}, nil
}

// closeSession handles a termination keyword: fixed farewell, no tool
// dispatch, then the consent-gated flush.
func (o *Orchestrator) closeSession(ctx context.Context) (graphOutput, error) {
	farewell := farewellFor(o.session.Record)
	if err := o.session.Append(contractx.SpeakerAgent, farewell, o.now()); err != nil {
		return graphOutput{}, err
	}
	o.finish(ctx, statex.StatusEnded)
	return graphOutput{Reply: farewell, Ended: true}, nil
}

// emitReply appends the agent turn and settles the next phase: back to
// AwaitingCustomer, or a terminal state with flush.
func (o *Orchestrator) emitReply(ctx context.Context, ts *turnState) (graphOutput, error) {
	if ts.escalateReason != "" {
		log.Warn().
			Str("session_id", o.session.ID).
			Str("reason", ts.escalateReason).
			Msg("escalating to human representative")
		if err := o.session.Append(contractx.SpeakerAgent, escalationUtterance, o.now()); err != nil {
			return graphOutput{}, err
		}
		o.history = append(o.history, contractx.ModelTurn{Role: contractx.RoleAgent, Content: escalationUtterance})
		o.finish(ctx, statex.StatusEscalated)
		return graphOutput{Reply: escalationUtterance, Ended: true}, nil
	}

	if err := o.session.Append(contractx.SpeakerAgent, ts.Reply, o.now()); err != nil {
		return graphOutput{}, err
	}
	o.history = append(o.history, contractx.ModelTurn{Role: contractx.RoleAgent, Content: ts.Reply})

	if o.customerTurns >= o.cfg.MaxCustomerTurns {
		o.finish(ctx, statex.StatusEnded)
		return graphOutput{Reply: ts.Reply, Ended: true}, nil
	}

	o.phase = PhaseAwaitingCustomer
	return graphOutput{Reply: ts.Reply, Ended: false}, nil
}
