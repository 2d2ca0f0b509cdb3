// Package orchestrator owns the conversation state machine. It mediates
// between free-form dialogue and the policy engine through the fixed tool
// registry: no financial fact reaches an agent utterance unless a tool call
// certified it during this session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
	policyx "github.com/ziamuneeb097/Financial-Agent/agent/policy"
	promptx "github.com/ziamuneeb097/Financial-Agent/agent/prompt"
	statex "github.com/ziamuneeb097/Financial-Agent/agent/state"
	toolx "github.com/ziamuneeb097/Financial-Agent/agent/tool"
	transcriptx "github.com/ziamuneeb097/Financial-Agent/agent/transcript"
)

// Phase is the state machine position:
// NotStarted → Greeting → AwaitingCustomer → Processing →
// (AwaitingCustomer | Escalated | Ended).
type Phase string

const (
	PhaseNotStarted       Phase = "not_started"
	PhaseGreeting         Phase = "greeting"
	PhaseAwaitingCustomer Phase = "awaiting_customer"
	PhaseProcessing       Phase = "processing"
	PhaseEnded            Phase = "ended"
	PhaseEscalated        Phase = "escalated"
)

var (
	ErrNoActiveSession = errors.New("no active session")
	ErrSessionEnded    = errors.New("session already ended")
)

// terminationKeywords end the session directly, with no tool dispatch.
var terminationKeywords = map[string]struct{}{
	"exit":    {},
	"quit":    {},
	"bye":     {},
	"goodbye": {},
}

var (
	planFamily     = map[string]struct{}{toolx.NameCheckPlanEligibility: {}, toolx.NamePlanDetails: {}}
	discountFamily = map[string]struct{}{toolx.NameSettlementDiscount: {}}
)

const (
	escalationUtterance = "I'm sorry, I'm not able to resolve this through our automated options. A human representative will take over this conversation shortly."
	defaultToolRounds   = 2
	defaultMaxTurns     = 10
)

type Config struct {
	// MaxToolRounds bounds how often the model may request tools within one
	// customer turn before the session escalates.
	MaxToolRounds int
	// MaxCustomerTurns caps the conversation length; reaching it ends the
	// session gracefully after the reply.
	MaxCustomerTurns int
}

// Orchestrator drives exactly one conversation at a time, single-threaded.
type Orchestrator struct {
	customers contractx.CustomerStore
	model     contractx.ModelCaller
	logger    *transcriptx.Logger
	cfg       Config

	graph compose.Runnable[graphInput, graphOutput]

	phase         Phase
	session       *statex.Session
	executor      toolx.Executor
	systemPrompt  string
	history       []contractx.ModelTurn
	customerTurns int

	now func() time.Time
}

func New(
	customers contractx.CustomerStore,
	model contractx.ModelCaller,
	logger *transcriptx.Logger,
	cfg Config,
) (*Orchestrator, error) {
	if customers == nil {
		return nil, errors.New("customer store is required")
	}
	if model == nil {
		return nil, errors.New("model caller is required")
	}
	if logger == nil {
		return nil, errors.New("transcript logger is required")
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = defaultToolRounds
	}
	if cfg.MaxCustomerTurns <= 0 {
		cfg.MaxCustomerTurns = defaultMaxTurns
	}

	o := &Orchestrator{
		customers: customers,
		model:     model,
		logger:    logger,
		cfg:       cfg,
		phase:     PhaseNotStarted,
		now:       time.Now,
	}

	graph, err := o.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graph = graph
	return o, nil
}

// StartSession loads the customer record, creates the session, and emits the
// opening agent utterance. The agent always speaks first, referencing the
// customer's name, balance, and days overdue; no model round-trip is needed
// for this line.
func (o *Orchestrator) StartSession(ctx context.Context, customerID string) (string, error) {
	if o.session != nil && !o.session.Terminated() {
		return "", fmt.Errorf("%w: a session is already active", contractx.ErrValidation)
	}

	rec, err := o.customers.Get(ctx, customerID)
	if err != nil {
		return "", err
	}
	if err := rec.Validate(); err != nil {
		return "", err
	}

	systemPrompt, err := promptx.System(rec)
	if err != nil {
		return "", err
	}

	now := o.now()
	o.session = statex.New(uuid.NewString(), rec, now)
	o.executor = toolx.NewExecutor(rec)
	o.systemPrompt = systemPrompt
	o.history = nil
	o.customerTurns = 0
	o.phase = PhaseGreeting

	greeting := greetingFor(rec)
	if err := o.session.Append(contractx.SpeakerAgent, greeting, now); err != nil {
		return "", err
	}
	o.history = append(o.history, contractx.ModelTurn{Role: contractx.RoleAgent, Content: greeting})
	o.phase = PhaseAwaitingCustomer

	log.Info().
		Str("session_id", o.session.ID).
		Str("customer_id", rec.ID).
		Msg("session started")
	return greeting, nil
}

// SubmitUtterance processes one customer utterance and returns the next
// agent utterance. Termination keywords end the session without tool
// dispatch; everything else goes through the model/tool pipeline.
func (o *Orchestrator) SubmitUtterance(ctx context.Context, text string) (string, error) {
	if o.session == nil || o.phase == PhaseNotStarted {
		return "", ErrNoActiveSession
	}
	if o.session.Terminated() {
		return "", ErrSessionEnded
	}

	o.phase = PhaseProcessing
	out, err := o.graph.Invoke(ctx, graphInput{Text: text})
	if err != nil {
		// The customer turn may already be recorded; the session stays
		// usable and the next utterance continues from it.
		o.phase = PhaseAwaitingCustomer
		return "", err
	}
	return out.Reply, nil
}

func (o *Orchestrator) IsEnded() bool {
	return o.session != nil && o.session.Terminated()
}

func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Session exposes the live session for front ends and tests. Treat as
// read-only.
func (o *Orchestrator) Session() *statex.Session {
	return o.session
}

// finish terminates the session and runs the consent-gated flush. Logging
// failure is reported, never propagated: the session still ends.
func (o *Orchestrator) finish(ctx context.Context, status statex.Status) {
	o.session.End(status)
	if status == statex.StatusEscalated {
		o.phase = PhaseEscalated
	} else {
		o.phase = PhaseEnded
	}

	stored, err := o.logger.Flush(ctx, o.session)
	if err != nil {
		log.Error().Err(err).
			Str("session_id", o.session.ID).
			Msg("transcript flush failed, session ends regardless")
		return
	}
	log.Info().
		Str("session_id", o.session.ID).
		Str("status", string(status)).
		Bool("transcript_stored", stored).
		Msg("session terminated")
}

// runModelTurn drives the bounded model/tool loop for one customer turn.
// Outcomes land on the turn state: either a reply to guard and emit, or an
// escalation reason.
func (o *Orchestrator) runModelTurn(ctx context.Context, ts *turnState) {
	decision, err := o.model.Decide(ctx, o.systemPrompt, o.history)
	if err != nil {
		o.noteCollaboratorFailure(ts, err)
		return
	}

	for round := 0; len(decision.ToolRequests) > 0; round++ {
		if round >= o.cfg.MaxToolRounds {
			ts.escalate("tool rounds exhausted without a final reply")
			return
		}

		o.history = append(o.history, contractx.ModelTurn{
			Role:         contractx.RoleAgent,
			Content:      decision.Reply,
			ToolRequests: decision.ToolRequests,
		})
		o.dispatchTools(ctx, ts, decision.ToolRequests)
		if ts.escalateReason != "" {
			return
		}

		decision, err = o.model.Decide(ctx, o.systemPrompt, o.history)
		if err != nil {
			o.noteCollaboratorFailure(ts, err)
			return
		}
	}

	reply := strings.TrimSpace(decision.Reply)
	if reply == "" {
		ts.escalate("model returned an empty reply")
		return
	}
	ts.Reply = reply

	if o.session.NoEligibleOption(planFamily, discountFamily) {
		ts.escalate("no automated option is eligible for this customer")
	}
}

// dispatchTools executes the requested tool calls through the registry and
// appends their results to the model-visible context only.
func (o *Orchestrator) dispatchTools(ctx context.Context, ts *turnState, reqs []contractx.ToolRequest) {
	for _, req := range reqs {
		res := o.executor(ctx, req)
		if res.Error != "" {
			log.Warn().
				Str("tool", req.Name).
				Str("error", res.Error).
				Msg("tool call rejected")
		}
		if d, ok := res.Result.(policyx.Decision); ok {
			o.session.RecordDecision(req.Name, d)
		}
		if req.Name == toolx.NameEscalate && res.Error == "" {
			ts.escalate("model requested human handoff")
		}

		result := res
		o.history = append(o.history, contractx.ModelTurn{
			Role:       contractx.RoleTool,
			ToolResult: &result,
		})
	}
}

func (o *Orchestrator) noteCollaboratorFailure(ts *turnState, err error) {
	log.Error().Err(err).
		Str("session_id", o.session.ID).
		Msg("model collaborator unavailable, escalating")
	ts.escalate("model collaborator unavailable")
}

func greetingFor(rec contractx.CustomerRecord) string {
	return fmt.Sprintf(
		"Hello %s, I'm reaching out about your outstanding balance of %s, which is currently %d days overdue. I'd like to help you find a workable way to settle it. Shall we look at your options together?",
		rec.Name, rec.AmountDue, rec.DaysOverdue,
	)
}

func farewellFor(rec contractx.CustomerRecord) string {
	return fmt.Sprintf("Thank you for your time, %s. Goodbye.", rec.Name)
}

func isTerminationKeyword(text string) bool {
	_, ok := terminationKeywords[strings.ToLower(strings.TrimSpace(text))]
	return ok
}
