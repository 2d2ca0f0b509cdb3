package contract

import "context"

// ModelCaller is the model-call collaborator: given the system framing and
// the model-visible context, it proposes either a natural-language reply or a
// set of tool calls. Implementations are opaque, possibly slow, and possibly
// failing; callers never assume determinism.
type ModelCaller interface {
	Decide(ctx context.Context, systemPrompt string, history []ModelTurn) (ModelDecision, error)
}

// CustomerStore supplies read-only customer records.
type CustomerStore interface {
	Get(ctx context.Context, id string) (CustomerRecord, error)
	List(ctx context.Context) ([]CustomerRecord, error)
}

// TranscriptStore durably stores one session record under the key derived
// from customer id and session start time. Put must be all-or-nothing.
type TranscriptStore interface {
	Put(ctx context.Context, rec TranscriptRecord) error
}
