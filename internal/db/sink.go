package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/seethrueu/openfinesse/internal/core"
)

// Sink implements core.EntitySink over Postgres. Inserts queue into a pgx
// batch; Commit flushes the whole batch inside one transaction, which is the
// pipeline's per-phase durability checkpoint. The entity-to-column mapping
// lives here, in code, not in runtime schema reflection.
type Sink struct {
	pool  *pgxpool.Pool
	batch *pgx.Batch
}

func NewSink(pool *pgxpool.Pool) *Sink {
	return &Sink{pool: pool, batch: &pgx.Batch{}}
}

func (s *Sink) InsertJournal(_ context.Context, j core.Journal) error {
	s.batch.Queue(
		"insert into journal (id, name, category) values ($1, $2, $3)",
		j.ID, j.Name, j.Category)
	return nil
}

func (s *Sink) InsertAccount(_ context.Context, a core.Account) error {
	s.batch.Queue(
		"insert into account (id, header, name, category) values ($1, $2, $3, $4)",
		a.ID, a.Header, a.Name, a.Category)
	return nil
}

func (s *Sink) InsertParty(_ context.Context, p core.Party) error {
	s.batch.Queue(
		"insert into party (id, name, customer, supplier, category) values ($1, $2, $3, $4, $5)",
		p.ID, p.Name, p.Customer, p.Supplier, p.Category)
	return nil
}

func (s *Sink) InsertDocument(_ context.Context, d core.Document) error {
	s.batch.Queue(
		"insert into document (id, period_id, journal_id, number, dt, description) values ($1, $2, $3, $4, $5, $6)",
		d.ID, d.PeriodID, d.JournalID, d.Number, d.Date, d.Description)
	return nil
}

func (s *Sink) InsertHistoryLine(_ context.Context, l core.HistoryLine) error {
	s.batch.Queue(
		`insert into history (id, document_id, account_id, party_id, debit, credit, tallied, tally_number)
		 values ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.DocumentID, l.AccountID, l.PartyID, l.Debit.String(), l.Credit.String(), l.Tallied, l.TallyNumber)
	return nil
}

func (s *Sink) InsertKpiDatum(_ context.Context, k core.KpiDatum) error {
	var value any
	if k.Value.Valid {
		value = k.Value.Decimal.String()
	}
	s.batch.Queue(
		"insert into kpidata (id, kpi_id, period_id, value) values ($1, $2, $3, $4)",
		k.ID, string(k.KpiID), k.PeriodID, value)
	return nil
}

// Commit flushes all queued inserts in one transaction. An empty queue is a
// no-op. After Commit the sink is ready for the next phase.
func (s *Sink) Commit(ctx context.Context) error {
	queued := s.batch.Len()
	if queued == 0 {
		return nil
	}
	batch := s.batch
	s.batch = &pgx.Batch{}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	results := tx.SendBatch(ctx, batch)
	for i := 0; i < queued; i++ {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return fmt.Errorf("failed to execute batched insert %d of %d: %w", i+1, queued, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}
