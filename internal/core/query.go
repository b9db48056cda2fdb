package core

import (
	"context"
	"fmt"
	"strings"
)

// Query is a rendered aggregate query: SQL with positional bind arguments,
// returning (period_id, value) rows ordered by period. Filters from
// configuration travel as bind arguments, never as interpolated text.
type Query struct {
	SQL  string
	Args []any
}

// QueryRunner is the external query surface the KPI layer drives. Failures
// propagate unchanged and abort the run.
type QueryRunner interface {
	PeriodValues(ctx context.Context, q Query) ([]PeriodValue, error)
}

// AccountRange selects account ids between From and To inclusive, in the
// source's lexicographic account numbering.
type AccountRange struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// AccountFilter is a per-KPI account predicate from configuration: a record
// matches when its account id starts with any prefix or falls in any range.
type AccountFilter struct {
	Prefixes []string       `yaml:"prefixes"`
	Ranges   []AccountRange `yaml:"ranges"`
}

func (f AccountFilter) empty() bool {
	return len(f.Prefixes) == 0 && len(f.Ranges) == 0
}

// predicate compiles the filter into a SQL predicate over column, appending
// bind arguments to args. Placeholders continue the numbering of args.
func (f AccountFilter) predicate(column string, args []any) (string, []any) {
	var terms []string
	for _, p := range f.Prefixes {
		args = append(args, p+"%")
		terms = append(terms, fmt.Sprintf("%s like $%d", column, len(args)))
	}
	for _, r := range f.Ranges {
		args = append(args, r.From, r.To)
		terms = append(terms, fmt.Sprintf("(%s >= $%d and %s <= $%d)", column, len(args)-1, column, len(args)))
	}
	return "(" + strings.Join(terms, " or ") + ")", args
}

// KpiParams is the per-KPI configuration block. A nil Enable means enabled;
// the block being absent altogether is what disables a KPI by default.
type KpiParams struct {
	Enable  *bool                    `yaml:"enable"`
	Filters map[string]AccountFilter `yaml:",inline"`
}

// Enabled reports whether the KPI should run given that its block exists.
func (p KpiParams) Enabled() bool {
	return p.Enable == nil || *p.Enable
}

// KpiConfig maps KPI ids to their configuration blocks.
type KpiConfig map[KpiID]KpiParams

// Measure selects the aggregated expression of a ledger view.
type Measure int

const (
	// MeasureDebitCredit sums the view's debit-minus-credit column (cost sign).
	MeasureDebitCredit Measure = iota
	// MeasureCreditDebit sums the view's credit-minus-debit column (revenue sign).
	MeasureCreditDebit
	// MeasureOne yields the constant 1 per period.
	MeasureOne
)

func (m Measure) expr() string {
	switch m {
	case MeasureDebitCredit:
		return "sum(debit_credit)"
	case MeasureCreditDebit:
		return "sum(credit_debit)"
	}
	return "1"
}

// Series produces one (period, value) sequence for the scheduler: either an
// aggregate over a ledger read view, or a readback of already-persisted KPI
// values. reads names the KPI ids the series depends on.
type Series interface {
	Render(kpi KpiID, params KpiParams) (Query, error)
	reads() []KpiID
}

// Aggregate is a sum over a ledger read view, grouped by period, optionally
// restricted by an account filter named FilterParam in the KPI's
// configuration block. A non-empty FilterParam is mandatory: rendering fails
// when configuration does not supply it.
type Aggregate struct {
	View        string
	Measure     Measure
	FilterParam string
}

func (a Aggregate) reads() []KpiID { return nil }

func (a Aggregate) Render(kpi KpiID, params KpiParams) (Query, error) {
	var (
		where string
		args  []any
	)
	if a.FilterParam != "" {
		filter, ok := params.Filters[a.FilterParam]
		if !ok {
			return Query{}, &RenderError{Kpi: kpi, Param: a.FilterParam, Reason: "not present in configuration"}
		}
		if filter.empty() {
			return Query{}, &RenderError{Kpi: kpi, Param: a.FilterParam, Reason: "filter selects no accounts"}
		}
		where, args = filter.predicate("account_id", nil)
		where = " where " + where
	}
	sql := fmt.Sprintf("select period_id, %s as value from %s%s group by period_id order by period_id",
		a.Measure.expr(), a.View, where)
	return Query{SQL: sql, Args: args}, nil
}

// Readback reads the persisted values of an earlier KPI from the v_kpi view.
// It is what makes the dependency between KPIs explicit as data.
type Readback struct {
	Source KpiID
}

func (r Readback) reads() []KpiID { return []KpiID{r.Source} }

func (r Readback) Render(KpiID, KpiParams) (Query, error) {
	return Query{
		SQL:  "select period_id, sum(value) as value from v_kpi where kpi_id = $1 group by period_id order by period_id",
		Args: []any{string(r.Source)},
	}, nil
}
