// Package llm implements the model-call collaborator on top of the OpenAI
// chat completions API (served through OpenRouter). Each call carries the
// system framing, the replayed model-visible context, and the tool schemas;
// the response is either a reply or a set of requested tool calls.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	openaisdk "github.com/openai/openai-go/v2"
	"github.com/rs/zerolog/log"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
	toolx "github.com/ziamuneeb097/Financial-Agent/agent/tool"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultRetryInitial = 500 * time.Millisecond
	// One retry after the first failure, per the bounded-retry contract.
	maxRetries = 1
)

type Config struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// OpenRouterCaller is the live ModelCaller. It is stateless between calls;
// the full context is replayed on every invocation.
type OpenRouterCaller struct {
	client *openaisdk.Client
	cfg    Config
	tools  []openaisdk.ChatCompletionToolUnionParam
}

var _ contractx.ModelCaller = (*OpenRouterCaller)(nil)

func NewOpenRouterCaller(client *openaisdk.Client, cfg Config, specs []toolx.Spec) (*OpenRouterCaller, error) {
	if client == nil {
		return nil, errors.New("llm: openai client is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("llm: model name is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	tools := make([]openaisdk.ChatCompletionToolUnionParam, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, openaisdk.ChatCompletionFunctionTool(openaisdk.FunctionDefinitionParam{
			Name:        s.Name,
			Description: openaisdk.String(s.Description),
			Parameters:  openaisdk.FunctionParameters(s.Parameters),
		}))
	}

	return &OpenRouterCaller{client: client, cfg: cfg, tools: tools}, nil
}

// Decide performs one model invocation with a per-call timeout and a single
// bounded retry with backoff. Exhausting the retry surfaces
// ErrCollaboratorUnavailable.
func (c *OpenRouterCaller) Decide(
	ctx context.Context,
	systemPrompt string,
	history []contractx.ModelTurn,
) (contractx.ModelDecision, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.cfg.Model),
		Messages:    buildMessages(systemPrompt, history),
		Temperature: openaisdk.Float(c.cfg.Temperature),
	}
	if len(c.tools) > 0 {
		params.Tools = c.tools
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(c.cfg.MaxTokens))
	}

	var out contractx.ModelDecision
	op := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()

		resp, err := c.client.Chat.Completions.New(callCtx, params)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			log.Warn().Err(err).Str("model", c.cfg.Model).Msg("model call failed")
			return err
		}
		if len(resp.Choices) == 0 {
			return errors.New("completion has no choices")
		}

		decision, err := decisionFrom(resp.Choices[0].Message)
		if err != nil {
			return backoff.Permanent(err)
		}
		out = decision
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = defaultRetryInitial
	if err := backoff.Retry(op, backoff.WithMaxRetries(backoff.WithContext(b, ctx), maxRetries)); err != nil {
		return contractx.ModelDecision{}, fmt.Errorf("%w: %v", contractx.ErrCollaboratorUnavailable, err)
	}
	return out, nil
}

func buildMessages(systemPrompt string, history []contractx.ModelTurn) []openaisdk.ChatCompletionMessageParamUnion {
	msgs := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(history)+1)
	msgs = append(msgs, openaisdk.SystemMessage(systemPrompt))

	for _, turn := range history {
		switch turn.Role {
		case contractx.RoleCustomer:
			msgs = append(msgs, openaisdk.UserMessage(turn.Content))
		case contractx.RoleAgent:
			if len(turn.ToolRequests) == 0 {
				msgs = append(msgs, openaisdk.AssistantMessage(turn.Content))
				continue
			}
			msgs = append(msgs, assistantToolCallMessage(turn))
		case contractx.RoleTool:
			if turn.ToolResult == nil {
				continue
			}
			msgs = append(msgs, openaisdk.ToolMessage(encodeToolResult(*turn.ToolResult), turn.ToolResult.ID))
		}
	}
	return msgs
}

func assistantToolCallMessage(turn contractx.ModelTurn) openaisdk.ChatCompletionMessageParamUnion {
	calls := make([]openaisdk.ChatCompletionMessageToolCallUnionParam, 0, len(turn.ToolRequests))
	for _, req := range turn.ToolRequests {
		args, err := json.Marshal(req.Args)
		if err != nil {
			args = []byte("{}")
		}
		calls = append(calls, openaisdk.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openaisdk.ChatCompletionMessageFunctionToolCallParam{
				ID: req.ID,
				Function: openaisdk.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      req.Name,
					Arguments: string(args),
				},
			},
		})
	}

	assistant := openaisdk.ChatCompletionAssistantMessageParam{ToolCalls: calls}
	if strings.TrimSpace(turn.Content) != "" {
		assistant.Content.OfString = openaisdk.String(turn.Content)
	}
	return openaisdk.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func encodeToolResult(res contractx.ToolResult) string {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Sprintf(`{"name":%q,"error":"encode tool result: %s"}`, res.Name, err)
	}
	return string(payload)
}

func decisionFrom(msg openaisdk.ChatCompletionMessage) (contractx.ModelDecision, error) {
	decision := contractx.ModelDecision{Reply: strings.TrimSpace(msg.Content)}

	for _, call := range msg.ToolCalls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return contractx.ModelDecision{}, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}
		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return contractx.ModelDecision{}, fmt.Errorf("%w: invalid arguments for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}
		decision.ToolRequests = append(decision.ToolRequests, contractx.ToolRequest{
			ID:   call.ID,
			Name: name,
			Args: args,
		})
	}

	if decision.Reply == "" && len(decision.ToolRequests) == 0 {
		return contractx.ModelDecision{}, fmt.Errorf("%w: completion carries neither content nor tool calls", contractx.ErrSchemaViolation)
	}
	return decision, nil
}
