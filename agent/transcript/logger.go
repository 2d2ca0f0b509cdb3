// Package transcript persists completed conversations, gated on the
// customer's consent flag.
package transcript

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
	statex "github.com/ziamuneeb097/Financial-Agent/agent/state"
)

// Logger flushes a terminated session to durable storage. Without consent
// the in-memory transcript is discarded and no write occurs; that omission
// is a hard contract, not best-effort.
type Logger struct {
	store contractx.TranscriptStore
}

func NewLogger(store contractx.TranscriptStore) (*Logger, error) {
	if store == nil {
		return nil, errors.New("transcript: store is required")
	}
	return &Logger{store: store}, nil
}

// Flush writes the full ordered turn sequence if and only if the customer
// consented. Returns whether a write happened. A failed write is reported as
// ErrLoggingFailure; the caller still treats the session as ended.
func (l *Logger) Flush(ctx context.Context, sess *statex.Session) (bool, error) {
	if sess == nil {
		return false, statex.ErrNilSession
	}

	if !sess.Record.ConsentToStoreTranscript {
		log.Info().
			Str("customer_id", sess.Record.ID).
			Str("session_id", sess.ID).
			Msg("transcript discarded, customer did not consent to storage")
		return false, nil
	}

	rec := sess.Transcript()
	if err := l.store.Put(ctx, rec); err != nil {
		return false, fmt.Errorf("%w: %v", contractx.ErrLoggingFailure, err)
	}

	log.Info().
		Str("customer_id", rec.CustomerID).
		Str("key", rec.Key()).
		Int("turns", len(rec.Turns)).
		Msg("transcript stored")
	return true, nil
}
