// Package tool is the fixed registry between the dialogue layer and the
// policy engine. It is the sole channel through which computed financial
// facts may enter an agent utterance.
package tool

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
	policyx "github.com/ziamuneeb097/Financial-Agent/agent/policy"
)

const (
	NameCheckPlanEligibility = "check_payment_plan_eligibility"
	NamePlanDetails          = "get_payment_plan_details"
	NameSettlementDiscount   = "get_settlement_discount_details"
	NameEscalate             = "escalate_to_human"
	NameLogQuestion          = "log_customer_question"
)

// Spec describes one tool to the model-call collaborator.
type Spec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

func customerIDParam() map[string]any {
	return map[string]any{
		"type":        "string",
		"description": "ID of the customer being discussed",
	}
}

// Catalog returns the closed set of tools. Every tool requires the customer
// id being discussed; the executor resolves it against the loaded record and
// never accepts model-supplied financial data.
func Catalog() []Spec {
	return []Spec{
		{
			Name:        NameCheckPlanEligibility,
			Description: "Check if the customer is eligible for an installment payment plan based on their profile.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"customer_id": customerIDParam()},
				"required":   []string{"customer_id"},
			},
		},
		{
			Name:        NamePlanDetails,
			Description: "Get the exact installment count and per-installment amounts for an eligible customer.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"customer_id": customerIDParam()},
				"required":   []string{"customer_id"},
			},
		},
		{
			Name:        NameSettlementDiscount,
			Description: "Get the immediate settlement discount offer: discounted total and savings.",
			Parameters: map[string]any{
				"type":       "object",
				"properties": map[string]any{"customer_id": customerIDParam()},
				"required":   []string{"customer_id"},
			},
		},
		{
			Name:        NameEscalate,
			Description: "Hand the conversation over to a human representative when no automated option applies.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"customer_id": customerIDParam(),
					"reason": map[string]any{
						"type":        "string",
						"description": "Why the conversation needs a human",
					},
				},
				"required": []string{"customer_id", "reason"},
			},
		},
		{
			Name:        NameLogQuestion,
			Description: "Record a customer question that needs clarification by a human before it can be answered.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"customer_id": customerIDParam(),
					"question": map[string]any{
						"type":        "string",
						"description": "The question to record",
					},
				},
				"required": []string{"customer_id", "question"},
			},
		},
	}
}

// Executor dispatches one tool call against the active session's customer
// record. It never returns a Go error: contract violations travel in
// ToolResult.Error so they can be replayed to the model.
type Executor func(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult

// NewExecutor binds the registry to the record loaded for the active
// session. The customer_id argument is verified against that record, never
// used to look anything up.
func NewExecutor(record contractx.CustomerRecord) Executor {
	return func(_ context.Context, req contractx.ToolRequest) contractx.ToolResult {
		res := contractx.ToolResult{ID: req.ID, Name: req.Name}

		if err := verifyCustomerArg(req, record.ID); err != nil {
			res.Error = err.Error()
			return res
		}

		switch req.Name {
		case NameCheckPlanEligibility:
			d, err := policyx.CheckPaymentPlanEligibility(record)
			return decisionResult(res, d, err)
		case NamePlanDetails:
			d, err := policyx.GetPaymentPlanDetails(record)
			return decisionResult(res, d, err)
		case NameSettlementDiscount:
			d, err := policyx.GetSettlementDiscountDetails(record)
			return decisionResult(res, d, err)
		case NameEscalate:
			res.Result = map[string]any{
				"escalated":   true,
				"reason":      stringArg(req, "reason"),
				"customer_id": record.ID,
			}
			return res
		case NameLogQuestion:
			res.Result = map[string]any{
				"logged":      true,
				"question":    stringArg(req, "question"),
				"customer_id": record.ID,
			}
			return res
		default:
			res.Error = fmt.Errorf("%w: %s", contractx.ErrUnknownTool, req.Name).Error()
			return res
		}
	}
}

func decisionResult(res contractx.ToolResult, d policyx.Decision, err error) contractx.ToolResult {
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Result = d
	return res
}

func verifyCustomerArg(req contractx.ToolRequest, wantID string) error {
	got := stringArg(req, "customer_id")
	if got == "" {
		return fmt.Errorf("%w: customer_id is required", contractx.ErrInvalidToolArguments)
	}
	if got != wantID {
		return fmt.Errorf("%w: customer_id %q does not match the active session", contractx.ErrInvalidToolArguments, got)
	}
	return nil
}

func stringArg(req contractx.ToolRequest, key string) string {
	if req.Args == nil {
		return ""
	}
	v, _ := req.Args[key].(string)
	return strings.TrimSpace(v)
}
