package llm

import (
	"errors"
	"strings"
	"testing"

	openaisdk "github.com/openai/openai-go/v2"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
)

func TestDecisionFromReplyOnly(t *testing.T) {
	t.Parallel()

	d, err := decisionFrom(openaisdk.ChatCompletionMessage{Content: "  hello there  "})
	if err != nil {
		t.Fatalf("decisionFrom() error = %v", err)
	}
	if d.Reply != "hello there" {
		t.Fatalf("reply = %q", d.Reply)
	}
	if len(d.ToolRequests) != 0 {
		t.Fatalf("unexpected tool requests: %+v", d.ToolRequests)
	}
}

func TestDecisionFromToolCalls(t *testing.T) {
	t.Parallel()

	msg := openaisdk.ChatCompletionMessage{
		ToolCalls: []openaisdk.ChatCompletionMessageToolCallUnion{
			{
				ID: "call-1",
				Function: openaisdk.ChatCompletionMessageFunctionToolCallFunction{
					Name:      "check_payment_plan_eligibility",
					Arguments: `{"customer_id":"CUST-001"}`,
				},
			},
		},
	}

	d, err := decisionFrom(msg)
	if err != nil {
		t.Fatalf("decisionFrom() error = %v", err)
	}
	if len(d.ToolRequests) != 1 {
		t.Fatalf("tool requests = %d, want 1", len(d.ToolRequests))
	}
	req := d.ToolRequests[0]
	if req.ID != "call-1" || req.Name != "check_payment_plan_eligibility" {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Args["customer_id"] != "CUST-001" {
		t.Fatalf("args = %v", req.Args)
	}
}

func TestDecisionFromEmptyCompletion(t *testing.T) {
	t.Parallel()

	_, err := decisionFrom(openaisdk.ChatCompletionMessage{Content: "   "})
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("decisionFrom() error = %v, want ErrSchemaViolation", err)
	}
}

func TestDecisionFromBadArguments(t *testing.T) {
	t.Parallel()

	msg := openaisdk.ChatCompletionMessage{
		ToolCalls: []openaisdk.ChatCompletionMessageToolCallUnion{
			{
				ID: "call-1",
				Function: openaisdk.ChatCompletionMessageFunctionToolCallFunction{
					Name:      "check_payment_plan_eligibility",
					Arguments: `{not json`,
				},
			},
		},
	}
	if _, err := decisionFrom(msg); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("decisionFrom() error = %v, want ErrSchemaViolation", err)
	}
}

func TestDecisionFromEmptyToolName(t *testing.T) {
	t.Parallel()

	msg := openaisdk.ChatCompletionMessage{
		ToolCalls: []openaisdk.ChatCompletionMessageToolCallUnion{
			{ID: "call-1"},
		},
	}
	if _, err := decisionFrom(msg); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("decisionFrom() error = %v, want ErrSchemaViolation", err)
	}
}

func TestBuildMessagesMapsRoles(t *testing.T) {
	t.Parallel()

	history := []contractx.ModelTurn{
		{Role: contractx.RoleAgent, Content: "hello"},
		{Role: contractx.RoleCustomer, Content: "can I pay later?"},
		{Role: contractx.RoleAgent, ToolRequests: []contractx.ToolRequest{
			{ID: "call-1", Name: "check_payment_plan_eligibility", Args: map[string]any{"customer_id": "CUST-001"}},
		}},
		{Role: contractx.RoleTool, ToolResult: &contractx.ToolResult{
			ID:   "call-1",
			Name: "check_payment_plan_eligibility",
		}},
	}

	msgs := buildMessages("system framing", history)
	if len(msgs) != 5 {
		t.Fatalf("messages = %d, want 5", len(msgs))
	}
	if msgs[0].OfSystem == nil {
		t.Fatal("first message must be the system framing")
	}
	if msgs[1].OfAssistant == nil {
		t.Fatal("agent turn must map to assistant")
	}
	if msgs[2].OfUser == nil {
		t.Fatal("customer turn must map to user")
	}
	if msgs[3].OfAssistant == nil || len(msgs[3].OfAssistant.ToolCalls) != 1 {
		t.Fatal("tool-requesting turn must carry the tool call")
	}
	if msgs[4].OfTool == nil {
		t.Fatal("tool result must map to tool message")
	}
}

func TestEncodeToolResult(t *testing.T) {
	t.Parallel()

	out := encodeToolResult(contractx.ToolResult{
		ID:    "call-1",
		Name:  "check_payment_plan_eligibility",
		Error: "unknown tool",
	})
	for _, want := range []string{"call-1", "check_payment_plan_eligibility", "unknown tool"} {
		if !strings.Contains(out, want) {
			t.Fatalf("encoded result %q missing %q", out, want)
		}
	}
}
