package core

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// EntitySink is the external persistence surface. Inserts queue up and
// become durable on Commit; the pipeline commits once per phase and once per
// KPI. Any failure aborts the run.
type EntitySink interface {
	InsertJournal(ctx context.Context, j Journal) error
	InsertAccount(ctx context.Context, a Account) error
	InsertParty(ctx context.Context, p Party) error
	InsertDocument(ctx context.Context, d Document) error
	InsertHistoryLine(ctx context.Context, l HistoryLine) error
	InsertKpiDatum(ctx context.Context, k KpiDatum) error
	Commit(ctx context.Context) error
}

// HistoryRecord is one decoded ledger-line record from either history
// source. SubjectID is the account id on account-sourced records and the
// party id on party-sourced ones; CounterpartyID is only ever set by the
// account source. Status and MatchNumber stay raw: the normalizer owns their
// interpretation.
type HistoryRecord struct {
	Year           int
	Month          int
	Date           time.Time
	JournalID      string
	Number         string
	Description    string
	SubjectID      string
	CounterpartyID *string
	Amount         decimal.Decimal
	Status         string
	MatchNumber    string
}

// Source streams the decoded records of one legacy export, one callback per
// record in file order. A callback error stops the stream and propagates.
type Source interface {
	Journals(fn func(Journal) error) error
	Accounts(fn func(Account) error) error
	Parties(fn func(Party) error) error
	AccountHistory(fn func(HistoryRecord) error) error
	PartyHistory(fn func(HistoryRecord) error) error
}

type historyKind int

const (
	accountHistory historyKind = iota
	partyHistory
)

// Importer drives the ledger phases in their fixed order: journals,
// accounts, parties, account history, party history. Document identity is
// shared between the two history phases through one resolver, so a document
// first seen in account history is reused, not recreated, by party history.
// Strictly single-threaded.
type Importer struct {
	source   Source
	sink     EntitySink
	excluded map[int]bool
	docs     *DocumentResolver
	lines    *Sequence
	log      zerolog.Logger
}

func NewImporter(source Source, sink EntitySink, excludedYears []int, log zerolog.Logger) *Importer {
	excluded := make(map[int]bool, len(excludedYears))
	for _, y := range excludedYears {
		excluded[y] = true
	}
	return &Importer{
		source:   source,
		sink:     sink,
		excluded: excluded,
		docs:     NewDocumentResolver(NewSequence()),
		lines:    NewSequence(),
		log:      log,
	}
}

// Run imports all ledger entities, committing after each phase. It does not
// touch KPIs; the scheduler runs against the ledger this leaves behind.
func (im *Importer) Run(ctx context.Context) error {
	if err := im.importJournals(ctx); err != nil {
		return fmt.Errorf("failed to import journals: %w", err)
	}
	if err := im.importAccounts(ctx); err != nil {
		return fmt.Errorf("failed to import accounts: %w", err)
	}
	if err := im.importParties(ctx); err != nil {
		return fmt.Errorf("failed to import parties: %w", err)
	}
	if err := im.importHistory(ctx, im.source.AccountHistory, accountHistory); err != nil {
		return fmt.Errorf("failed to import account history: %w", err)
	}
	if err := im.importHistory(ctx, im.source.PartyHistory, partyHistory); err != nil {
		return fmt.Errorf("failed to import party history: %w", err)
	}
	return nil
}

func (im *Importer) importJournals(ctx context.Context) error {
	count := 0
	err := im.source.Journals(func(j Journal) error {
		count++
		return im.sink.InsertJournal(ctx, j)
	})
	if err != nil {
		return err
	}
	if err := im.sink.Commit(ctx); err != nil {
		return err
	}
	im.log.Info().Int("count", count).Msg("imported journals")
	return nil
}

func (im *Importer) importAccounts(ctx context.Context) error {
	count := 0
	err := im.source.Accounts(func(a Account) error {
		count++
		return im.sink.InsertAccount(ctx, a)
	})
	if err != nil {
		return err
	}
	if err := im.sink.Commit(ctx); err != nil {
		return err
	}
	im.log.Info().Int("count", count).Msg("imported accounts")
	return nil
}

func (im *Importer) importParties(ctx context.Context) error {
	count := 0
	err := im.source.Parties(func(p Party) error {
		count++
		return im.sink.InsertParty(ctx, p)
	})
	if err != nil {
		return err
	}
	if err := im.sink.Commit(ctx); err != nil {
		return err
	}
	im.log.Info().Int("count", count).Msg("imported parties")
	return nil
}

func (im *Importer) importHistory(ctx context.Context, stream func(fn func(HistoryRecord) error) error, kind historyKind) error {
	count, skipped := 0, 0
	err := stream(func(rec HistoryRecord) error {
		count++
		// Excluded years are dropped before any id is allocated: no document,
		// no line, no sink call.
		if !ShouldImport(rec.Year, im.excluded) {
			skipped++
			return nil
		}

		key := DocumentKey{Year: rec.Year, JournalID: rec.JournalID, Number: rec.Number}
		doc, created, err := im.docs.Resolve(key, func(id int64) Document {
			return Document{
				ID:          id,
				PeriodID:    PeriodID(rec.Year, rec.Month),
				JournalID:   rec.JournalID,
				Number:      rec.Number,
				Date:        rec.Date,
				Description: rec.Description,
			}
		})
		if err != nil {
			return err
		}
		if created {
			if err := im.sink.InsertDocument(ctx, *doc); err != nil {
				return err
			}
		}

		debit, credit := NormalizeAmount(rec.Amount)
		tallied, tallyNumber, err := ParseTally(rec.Status, rec.MatchNumber)
		if err != nil {
			return err
		}
		line := HistoryLine{
			ID:          im.lines.Next(),
			DocumentID:  doc.ID,
			Debit:       debit,
			Credit:      credit,
			Tallied:     tallied,
			TallyNumber: tallyNumber,
		}
		switch kind {
		case accountHistory:
			account := rec.SubjectID
			line.AccountID = &account
			line.PartyID = rec.CounterpartyID
		case partyHistory:
			party := rec.SubjectID
			line.PartyID = &party
		}
		return im.sink.InsertHistoryLine(ctx, line)
	})
	if err != nil {
		return err
	}
	if err := im.sink.Commit(ctx); err != nil {
		return err
	}
	event := im.log.Info().Int("count", count).Int("skipped", skipped)
	if kind == accountHistory {
		event.Msg("imported account history records")
	} else {
		event.Msg("imported party history records")
	}
	return nil
}
