package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/seethrueu/openfinesse/internal/core"
)

// memSink records everything the pipeline hands it, in order.
type memSink struct {
	journals  []core.Journal
	accounts  []core.Account
	parties   []core.Party
	documents []core.Document
	lines     []core.HistoryLine
	kpidata   []core.KpiDatum
	commits   int
	failWith  error
}

func (s *memSink) InsertJournal(_ context.Context, j core.Journal) error {
	s.journals = append(s.journals, j)
	return s.failWith
}

func (s *memSink) InsertAccount(_ context.Context, a core.Account) error {
	s.accounts = append(s.accounts, a)
	return s.failWith
}

func (s *memSink) InsertParty(_ context.Context, p core.Party) error {
	s.parties = append(s.parties, p)
	return s.failWith
}

func (s *memSink) InsertDocument(_ context.Context, d core.Document) error {
	s.documents = append(s.documents, d)
	return s.failWith
}

func (s *memSink) InsertHistoryLine(_ context.Context, l core.HistoryLine) error {
	s.lines = append(s.lines, l)
	return s.failWith
}

func (s *memSink) InsertKpiDatum(_ context.Context, k core.KpiDatum) error {
	s.kpidata = append(s.kpidata, k)
	return s.failWith
}

func (s *memSink) Commit(context.Context) error {
	s.commits++
	return s.failWith
}

// fakeSource replays fixed slices in file order.
type fakeSource struct {
	journals       []core.Journal
	accounts       []core.Account
	parties        []core.Party
	accountHistory []core.HistoryRecord
	partyHistory   []core.HistoryRecord
}

func (s *fakeSource) Journals(fn func(core.Journal) error) error {
	for _, j := range s.journals {
		if err := fn(j); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSource) Accounts(fn func(core.Account) error) error {
	for _, a := range s.accounts {
		if err := fn(a); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSource) Parties(fn func(core.Party) error) error {
	for _, p := range s.parties {
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSource) AccountHistory(fn func(core.HistoryRecord) error) error {
	for _, r := range s.accountHistory {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSource) PartyHistory(fn func(core.HistoryRecord) error) error {
	for _, r := range s.partyHistory {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

func strPtr(s string) *string { return &s }

func historyRec(year, month int, journal, number, subject, amount string) core.HistoryRecord {
	return core.HistoryRecord{
		Year:      year,
		Month:     month,
		Date:      time.Date(year, time.Month(month), 10, 0, 0, 0, 0, time.UTC),
		JournalID: journal,
		Number:    number,
		SubjectID: subject,
		Amount:    dec(amount),
	}
}

func testSource() *fakeSource {
	r1 := historyRec(2024, 1, "VEN", "100", "601000", "-150.00")
	r1.Description = "alpha"
	r1.CounterpartyID = strPtr("C001")
	r1.Status = "T"
	r1.MatchNumber = "7"

	r2 := historyRec(2024, 1, "VEN", "100", "701000", "150.00")
	r2.Description = "beta"

	excluded := historyRec(2018, 6, "VEN", "900", "601000", "99.00")

	r3 := historyRec(2024, 2, "VEN", "101", "601000", "200.00")
	r3.Description = "gamma"

	p1 := historyRec(2024, 1, "VEN", "100", "C001", "-150.00")
	p1.Description = "party view of alpha"

	pExcluded := historyRec(2018, 6, "ACH", "901", "S001", "12.00")

	p2 := historyRec(2024, 3, "ACH", "001", "S001", "75.50")
	p2.Description = "delta"

	return &fakeSource{
		journals:       []core.Journal{{ID: "VEN", Name: "Sales", Category: "S"}, {ID: "ACH", Name: "Purchases", Category: "P"}},
		accounts:       []core.Account{{ID: "601000", Name: "Supplies", Category: "PL"}, {ID: "701000", Name: "Sales revenue", Category: "PL"}},
		parties:        []core.Party{{ID: "C001", Name: "Acme", Customer: true}},
		accountHistory: []core.HistoryRecord{r1, r2, excluded, r3},
		partyHistory:   []core.HistoryRecord{p1, pExcluded, p2},
	}
}

func TestImporter_Run(t *testing.T) {
	sink := &memSink{}
	im := core.NewImporter(testSource(), sink, []int{2018}, zerolog.Nop())

	if err := im.Run(context.Background()); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(sink.journals) != 2 || len(sink.accounts) != 2 || len(sink.parties) != 1 {
		t.Errorf("entity counts = %d journals, %d accounts, %d parties",
			len(sink.journals), len(sink.accounts), len(sink.parties))
	}
	if sink.commits != 5 {
		t.Errorf("commits = %d, want one per phase (5)", sink.commits)
	}

	// Three distinct documents; excluded rows must leave no id gaps.
	if len(sink.documents) != 3 {
		t.Fatalf("documents = %d, want 3", len(sink.documents))
	}
	for i, d := range sink.documents {
		if d.ID != int64(i+1) {
			t.Errorf("document %d has id %d, contiguous ids expected", i, d.ID)
		}
	}
	if sink.documents[0].Description != "alpha" {
		t.Errorf("document 1 description = %q, first source wins", sink.documents[0].Description)
	}
	if sink.documents[0].PeriodID != 202401 {
		t.Errorf("document 1 period = %d", sink.documents[0].PeriodID)
	}
	if sink.documents[2].Description != "delta" {
		t.Errorf("party-phase document description = %q", sink.documents[2].Description)
	}

	// Five imported lines with contiguous ids.
	if len(sink.lines) != 5 {
		t.Fatalf("lines = %d, want 5", len(sink.lines))
	}
	for i, l := range sink.lines {
		if l.ID != int64(i+1) {
			t.Errorf("line %d has id %d, contiguous ids expected", i, l.ID)
		}
	}

	first := sink.lines[0]
	if first.AccountID == nil || *first.AccountID != "601000" {
		t.Errorf("account-sourced line missing account id")
	}
	if first.PartyID == nil || *first.PartyID != "C001" {
		t.Errorf("counterparty not carried onto line")
	}
	if !first.Debit.IsZero() || !first.Credit.Equal(dec("150.00")) {
		t.Errorf("line 1 debit/credit = %s/%s, want 0/150", first.Debit, first.Credit)
	}
	if !first.Tallied || first.TallyNumber == nil || *first.TallyNumber != 7 {
		t.Errorf("line 1 tally state = %v/%v", first.Tallied, first.TallyNumber)
	}

	// Party-history line for the shared key reuses document 1.
	partyLine := sink.lines[3]
	if partyLine.DocumentID != 1 {
		t.Errorf("party-history line document id = %d, want 1", partyLine.DocumentID)
	}
	if partyLine.AccountID != nil {
		t.Errorf("party-sourced line must not carry an account id")
	}
	if partyLine.PartyID == nil || *partyLine.PartyID != "C001" {
		t.Errorf("party-sourced line party id = %v", partyLine.PartyID)
	}
}

func TestImporter_DecodeErrorAborts(t *testing.T) {
	src := testSource()
	bad := historyRec(2024, 4, "VEN", "102", "601000", "10.00")
	bad.MatchNumber = "not-a-number"
	src.accountHistory = append(src.accountHistory, bad)

	im := core.NewImporter(src, &memSink{}, nil, zerolog.Nop())
	err := im.Run(context.Background())
	var decodeErr *core.DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
}

func TestImporter_SinkErrorAborts(t *testing.T) {
	sinkErr := errors.New("connection lost")
	sink := &memSink{failWith: sinkErr}
	im := core.NewImporter(testSource(), sink, nil, zerolog.Nop())

	if err := im.Run(context.Background()); !errors.Is(err, sinkErr) {
		t.Fatalf("expected sink error to propagate, got %v", err)
	}
}
