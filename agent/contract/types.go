package contract

import (
	"fmt"
	"strings"
	"time"
)

type PaymentHistory string

const (
	HistoryGood    PaymentHistory = "good"
	HistoryAverage PaymentHistory = "average"
	HistoryPoor    PaymentHistory = "poor"
)

func (h PaymentHistory) Valid() bool {
	switch h {
	case HistoryGood, HistoryAverage, HistoryPoor:
		return true
	}
	return false
}

// CustomerRecord is the immutable input to policy decisions. It is loaded by
// a CustomerStore and read-only for the lifetime of a session. JSON field
// names match the customers.json persona file.
type CustomerRecord struct {
	ID                       string         `json:"id"`
	Name                     string         `json:"name"`
	AmountDue                Cents          `json:"amount_due"`
	DaysOverdue              int            `json:"days_late"`
	PaymentHistory           PaymentHistory `json:"payment_history"`
	RiskScore                float64        `json:"risk_score"`
	ConsentToStoreTranscript bool           `json:"consent_to_store_transcript"`
	RetentionDays            int            `json:"transcript_retention_days"`
}

func (r CustomerRecord) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: id is empty", ErrInvalidRecord)
	}
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidRecord)
	}
	if r.AmountDue < 0 {
		return fmt.Errorf("%w: amount due is negative", ErrInvalidRecord)
	}
	if r.DaysOverdue < 0 {
		return fmt.Errorf("%w: days overdue is negative", ErrInvalidRecord)
	}
	if !r.PaymentHistory.Valid() {
		return fmt.Errorf("%w: payment history %q", ErrInvalidRecord, r.PaymentHistory)
	}
	if r.RiskScore < 0 || r.RiskScore > 1 {
		return fmt.Errorf("%w: risk score %.2f outside [0,1]", ErrInvalidRecord, r.RiskScore)
	}
	if r.RetentionDays < 0 {
		return fmt.Errorf("%w: retention days is negative", ErrInvalidRecord)
	}
	return nil
}

type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
)

// Turn is one utterance in the human-visible transcript. Order is
// conversation order and is load-bearing.
type Turn struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ToolRequest is a model-proposed tool invocation. Arguments name the
// customer under discussion; they are never trusted as financial data.
type ToolRequest struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

// ToolResult wraps a serialized policy decision, or an error when the tool
// name or arguments fall outside the registry contract.
type ToolResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

type ModelRole string

const (
	RoleCustomer ModelRole = "customer"
	RoleAgent    ModelRole = "agent"
	RoleTool     ModelRole = "tool"
)

// ModelTurn is one entry of the model-visible context. Tool requests and tool
// results travel here without ever entering the transcript.
type ModelTurn struct {
	Role         ModelRole
	Content      string
	ToolRequests []ToolRequest
	ToolResult   *ToolResult
}

// ModelDecision is what the model-call collaborator returns for one
// invocation: a direct reply, a set of requested tool calls, or both.
type ModelDecision struct {
	Reply        string
	ToolRequests []ToolRequest
}

// TranscriptRecord is the durable session record written once on termination
// when the customer consented.
type TranscriptRecord struct {
	CustomerID    string    `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	SessionID     string    `json:"session_id"`
	SessionStart  time.Time `json:"session_start"`
	RetentionDays int       `json:"retention_days"`
	Turns         []Turn    `json:"turns"`
}

// Key derives the storage key from customer id and session start time.
func (r TranscriptRecord) Key() string {
	return fmt.Sprintf("%s:%s", r.CustomerID, r.SessionStart.UTC().Format("20060102T150405Z"))
}
