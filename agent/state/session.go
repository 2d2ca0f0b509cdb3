// Package state holds the in-memory conversation session: one customer
// record bound to an ordered, append-only sequence of turns plus the policy
// decisions certified during the conversation.
package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
	policyx "github.com/ziamuneeb097/Financial-Agent/agent/policy"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
	StatusEscalated Status = "escalated"
)

var (
	ErrNilSession   = errors.New("session is nil")
	ErrSessionOver  = errors.New("session already terminated")
	ErrEmptyText    = errors.New("turn text is empty")
	ErrTurnOrdering = errors.New("turn timestamps out of order")
)

// RecordedDecision ties a certified policy decision to the tool that
// produced it, in call order.
type RecordedDecision struct {
	Tool     string
	Decision policyx.Decision
}

// Session binds one customer record to the conversation. Exactly one session
// is live at a time; the record is read-only for its lifetime.
type Session struct {
	ID        string
	Record    contractx.CustomerRecord
	StartedAt time.Time
	Status    Status
	Turns     []contractx.Turn
	Decisions []RecordedDecision
}

func New(id string, record contractx.CustomerRecord, now time.Time) *Session {
	return &Session{
		ID:        id,
		Record:    record,
		StartedAt: now.UTC(),
		Status:    StatusActive,
	}
}

// Append adds one turn in strict arrival order.
func (s *Session) Append(speaker contractx.Speaker, text string, now time.Time) error {
	if s == nil {
		return ErrNilSession
	}
	if s.Terminated() {
		return ErrSessionOver
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	s.Turns = append(s.Turns, contractx.Turn{
		Speaker:   speaker,
		Text:      text,
		Timestamp: now.UTC(),
	})
	return nil
}

func (s *Session) RecordDecision(toolName string, d policyx.Decision) {
	s.Decisions = append(s.Decisions, RecordedDecision{Tool: toolName, Decision: d})
}

func (s *Session) End(status Status) {
	if status == StatusEnded || status == StatusEscalated {
		s.Status = status
	}
}

func (s *Session) Terminated() bool {
	return s != nil && s.Status != StatusActive
}

// NoEligibleOption reports whether every automated option has been checked
// and rejected: both the payment plan and the settlement discount were
// evaluated at least once and no decision in the session was eligible.
func (s *Session) NoEligibleOption(planTools, discountTools map[string]struct{}) bool {
	if s == nil || len(s.Decisions) == 0 {
		return false
	}
	planChecked, discountChecked := false, false
	for _, rd := range s.Decisions {
		if rd.Decision.Eligible {
			return false
		}
		if _, ok := planTools[rd.Tool]; ok {
			planChecked = true
		}
		if _, ok := discountTools[rd.Tool]; ok {
			discountChecked = true
		}
	}
	return planChecked && discountChecked
}

// Transcript builds the durable record for the consent-gated logger.
func (s *Session) Transcript() contractx.TranscriptRecord {
	turns := make([]contractx.Turn, len(s.Turns))
	copy(turns, s.Turns)
	return contractx.TranscriptRecord{
		CustomerID:    s.Record.ID,
		CustomerName:  s.Record.Name,
		SessionID:     s.ID,
		SessionStart:  s.StartedAt,
		RetentionDays: s.Record.RetentionDays,
		Turns:         turns,
	}
}

func (s *Session) Validate() error {
	if s == nil {
		return ErrNilSession
	}
	switch s.Status {
	case StatusActive, StatusEnded, StatusEscalated:
	default:
		return fmt.Errorf("invalid session status %q", s.Status)
	}
	for i := 1; i < len(s.Turns); i++ {
		if s.Turns[i].Timestamp.Before(s.Turns[i-1].Timestamp) {
			return fmt.Errorf("%w: turn %d", ErrTurnOrdering, i)
		}
	}
	return nil
}
