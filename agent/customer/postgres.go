package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contractx "github.com/ziamuneeb097/Financial-Agent/agent/contract"
)

type customerRow struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID             string  `bun:"id,pk"`
	Name           string  `bun:"name,notnull"`
	AmountDueCents int64   `bun:"amount_due_cents,notnull"`
	DaysOverdue    int     `bun:"days_overdue,notnull"`
	PaymentHistory string  `bun:"payment_history,notnull"`
	RiskScore      float64 `bun:"risk_score,notnull"`
	Consent        bool    `bun:"consent_to_store_transcript,notnull"`
	RetentionDays  int     `bun:"transcript_retention_days,notnull"`
}

func (r customerRow) record() contractx.CustomerRecord {
	return contractx.CustomerRecord{
		ID:                       r.ID,
		Name:                     r.Name,
		AmountDue:                contractx.Cents(r.AmountDueCents),
		DaysOverdue:              r.DaysOverdue,
		PaymentHistory:           contractx.PaymentHistory(r.PaymentHistory),
		RiskScore:                r.RiskScore,
		ConsentToStoreTranscript: r.Consent,
		RetentionDays:            r.RetentionDays,
	}
}

// PostgresStore serves customer records from a customers table.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("customer: postgres dsn is required")
	}
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return &PostgresStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (contractx.CustomerRecord, error) {
	var row customerRow
	err := s.db.NewSelect().Model(&row).Where("c.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return contractx.CustomerRecord{}, fmt.Errorf("%w: %s", contractx.ErrCustomerNotFound, id)
	}
	if err != nil {
		return contractx.CustomerRecord{}, fmt.Errorf("customer: select %s: %w", id, err)
	}

	rec := row.record()
	if err := rec.Validate(); err != nil {
		return contractx.CustomerRecord{}, err
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]contractx.CustomerRecord, error) {
	var rows []customerRow
	if err := s.db.NewSelect().Model(&rows).Order("c.id").Scan(ctx); err != nil {
		return nil, fmt.Errorf("customer: list: %w", err)
	}

	out := make([]contractx.CustomerRecord, 0, len(rows))
	for _, row := range rows {
		rec := row.record()
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
