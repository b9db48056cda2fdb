package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// Journal is one source journal (daybook). Created once per run, read-only
// afterward.
type Journal struct {
	ID       string
	Name     string
	Category string
}

// Account is one general-ledger account. Header accounts are grouping rows
// that never carry movements of their own; Category is the balance-sheet
// classification taken verbatim from the source extract.
type Account struct {
	ID       string
	Header   bool
	Name     string
	Category string
}

// Party is a customer and/or supplier record.
type Party struct {
	ID       string
	Name     string
	Customer bool
	Supplier bool
	Category string
}

// DocumentKey is the natural identity of a document: two history lines from
// either source sharing this key belong to the same document.
type DocumentKey struct {
	Year      int
	JournalID string
	Number    string
}

// Document is one accounting transaction header. ID is a synthetic run-scoped
// sequence value; identity across sources is the DocumentKey.
type Document struct {
	ID          int64
	PeriodID    int
	JournalID   string
	Number      string
	Date        time.Time
	Description string
}

// HistoryLine is one posted ledger movement attached to a document. Exactly
// one of Debit/Credit is nonzero unless the source amount was exactly zero.
// AccountID is set only on account-sourced lines; PartyID on party-sourced
// lines or when the account source carried a counterparty.
type HistoryLine struct {
	ID          int64
	DocumentID  int64
	AccountID   *string
	PartyID     *string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Tallied     bool
	TallyNumber *int64
}

// KpiID names a financial indicator, e.g. "financial.margin.net".
type KpiID string

// KpiDatum is one computed (period, value) observation of a KPI. Value is
// null when the underlying aggregate had nothing to sum or a ratio
// denominator was null or zero. Rows are append-only.
type KpiDatum struct {
	ID       int64
	KpiID    KpiID
	PeriodID int
	Value    decimal.NullDecimal
}

// PeriodValue is one row returned by the query surface: a period bucket and
// its aggregated value.
type PeriodValue struct {
	PeriodID int
	Value    decimal.NullDecimal
}
