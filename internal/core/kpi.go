package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Ratio divides two series per period and scales the quotient. Division goes
// through SafeDivide: a period missing from either side, or a zero
// denominator, yields a null value for that period rather than an error.
type Ratio struct {
	Num   Series
	Den   Series
	Scale decimal.Decimal
}

// KpiDef is one KPI: a plain single-series indicator (Value set) or a ratio
// (Ratio set). Dependencies on other KPIs are whatever the series read back
// from persisted results, so the evaluation order falls out of the data.
type KpiDef struct {
	ID    KpiID
	Value Series
	Ratio *Ratio
}

func (d KpiDef) dependsOn() []KpiID {
	if d.Ratio != nil {
		return append(d.Ratio.Num.reads(), d.Ratio.Den.reads()...)
	}
	return d.Value.reads()
}

var hundred = decimal.NewFromInt(100)

// DefaultKpis is the indicator catalogue. Cost indicators sum debit-minus-
// credit over the cost view, profit and revenue indicators credit-minus-debit
// over theirs; the margin ratios read the persisted profit and revenue
// results, so they evaluate after their sources.
func DefaultKpis() []KpiDef {
	filtered := func(view string, m Measure) Series {
		return Aggregate{View: view, Measure: m, FilterParam: "account_filter"}
	}
	return []KpiDef{
		{ID: "financial.cost.total", Value: filtered("v_history_cost", MeasureDebitCredit)},
		{ID: "financial.cost.sales", Value: filtered("v_history_cost", MeasureDebitCredit)},
		{ID: "financial.cost.overhead", Value: filtered("v_history_cost", MeasureDebitCredit)},
		{ID: "financial.cost.staff", Value: filtered("v_history_cost", MeasureDebitCredit)},
		{ID: "financial.profit.gross", Value: filtered("v_history", MeasureCreditDebit)},
		{ID: "financial.profit.net", Value: Aggregate{View: "v_history_profit_loss", Measure: MeasureCreditDebit}},
		{ID: "financial.profit.addedvalue", Value: filtered("v_history", MeasureCreditDebit)},
		{ID: "financial.revenue.total", Value: Aggregate{View: "v_history_revenue", Measure: MeasureCreditDebit}},
		{ID: "financial.revenue.sales", Value: filtered("v_history_revenue", MeasureCreditDebit)},
		{ID: "financial.revenue.other", Value: filtered("v_history_revenue", MeasureCreditDebit)},
		{ID: "financial.solvency", Ratio: &Ratio{
			Num:   Aggregate{View: "v_history", Measure: MeasureCreditDebit, FilterParam: "account_filter_assets"},
			Den:   Aggregate{View: "v_history", Measure: MeasureDebitCredit, FilterParam: "account_filter_liabilities"},
			Scale: decimal.NewFromInt(1),
		}},
		// TODO: quick ratio needs cash-equivalent and receivables views that
		// the schema does not expose yet; until then liquidity is the
		// constant 1 per period carried over from the source system.
		{ID: "financial.liquidity", Value: Aggregate{View: "document", Measure: MeasureOne}},
		{ID: "financial.margin.gross", Ratio: &Ratio{
			Num:   Readback{Source: "financial.profit.gross"},
			Den:   Readback{Source: "financial.revenue.sales"},
			Scale: hundred,
		}},
		{ID: "financial.margin.net", Ratio: &Ratio{
			Num:   Readback{Source: "financial.profit.net"},
			Den:   Readback{Source: "financial.revenue.sales"},
			Scale: hundred,
		}},
	}
}

// EvaluationOrder sorts definitions so that every KPI evaluates after the
// KPIs it reads back, keeping declaration order among independent ones.
// A dependency cycle is an error; a readback of a KPI outside the set is not
// an edge (its view rows are simply whatever was persisted, possibly
// nothing).
func EvaluationOrder(defs []KpiDef) ([]KpiDef, error) {
	index := make(map[KpiID]int, len(defs))
	for i, d := range defs {
		index[d.ID] = i
	}
	indegree := make([]int, len(defs))
	dependents := make([][]int, len(defs))
	for i, d := range defs {
		for _, dep := range d.dependsOn() {
			j, ok := index[dep]
			if !ok {
				continue
			}
			indegree[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	var ready []int
	for i := range defs {
		if indegree[i] == 0 {
			ready = append(ready, i)
		}
	}
	ordered := make([]KpiDef, 0, len(defs))
	for len(ready) > 0 {
		sort.Ints(ready)
		i := ready[0]
		ready = ready[1:]
		ordered = append(ordered, defs[i])
		for _, dep := range dependents[i] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	if len(ordered) != len(defs) {
		var stuck []string
		for i, d := range defs {
			if indegree[i] > 0 {
				stuck = append(stuck, string(d.ID))
			}
		}
		return nil, fmt.Errorf("kpi dependency cycle involving %v", stuck)
	}
	return ordered, nil
}

// Scheduler evaluates the KPI catalogue against the committed ledger and
// persists one KpiDatum per (kpi, period). Each KPI's result set is committed
// before the next KPI runs, so readbacks always see their sources.
type Scheduler struct {
	defs   []KpiDef
	cfg    KpiConfig
	runner QueryRunner
	sink   EntitySink
	seq    *Sequence
	log    zerolog.Logger
}

func NewScheduler(defs []KpiDef, cfg KpiConfig, runner QueryRunner, sink EntitySink, seq *Sequence, log zerolog.Logger) *Scheduler {
	return &Scheduler{defs: defs, cfg: cfg, runner: runner, sink: sink, seq: seq, log: log}
}

// Run evaluates all configured KPIs in dependency order. A KPI whose
// configuration block is absent, or present with enable false, is skipped
// outright; any render or query failure aborts the whole phase.
func (s *Scheduler) Run(ctx context.Context) error {
	ordered, err := EvaluationOrder(s.defs)
	if err != nil {
		return err
	}
	for _, def := range ordered {
		params, ok := s.cfg[def.ID]
		if !ok || !params.Enabled() {
			s.log.Info().Str("kpi", string(def.ID)).Msg("skipping kpi")
			continue
		}
		values, err := s.evaluate(ctx, def, params)
		if err != nil {
			return fmt.Errorf("failed to calculate kpi %s: %w", def.ID, err)
		}
		for _, pv := range values {
			datum := KpiDatum{ID: s.seq.Next(), KpiID: def.ID, PeriodID: pv.PeriodID, Value: pv.Value}
			if err := s.sink.InsertKpiDatum(ctx, datum); err != nil {
				return fmt.Errorf("failed to insert kpi datum for %s: %w", def.ID, err)
			}
		}
		if err := s.sink.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit kpi %s: %w", def.ID, err)
		}
		s.log.Info().Str("kpi", string(def.ID)).Int("periods", len(values)).Msg("calculated kpi")
	}
	return nil
}

func (s *Scheduler) evaluate(ctx context.Context, def KpiDef, params KpiParams) ([]PeriodValue, error) {
	if def.Ratio == nil {
		return s.series(ctx, def.ID, def.Value, params)
	}
	num, err := s.series(ctx, def.ID, def.Ratio.Num, params)
	if err != nil {
		return nil, err
	}
	den, err := s.series(ctx, def.ID, def.Ratio.Den, params)
	if err != nil {
		return nil, err
	}
	return divideSeries(num, den, def.Ratio.Scale), nil
}

func (s *Scheduler) series(ctx context.Context, kpi KpiID, series Series, params KpiParams) ([]PeriodValue, error) {
	q, err := series.Render(kpi, params)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Str("kpi", string(kpi)).Str("sql", q.SQL).Msg("running kpi query")
	return s.runner.PeriodValues(ctx, q)
}

// divideSeries divides num by den period-wise over the union of both period
// sets. Periods present on only one side produce a null value, as does a
// zero denominator.
func divideSeries(num, den []PeriodValue, scale decimal.Decimal) []PeriodValue {
	numBy := make(map[int]decimal.NullDecimal, len(num))
	for _, pv := range num {
		numBy[pv.PeriodID] = pv.Value
	}
	denBy := make(map[int]decimal.NullDecimal, len(den))
	for _, pv := range den {
		denBy[pv.PeriodID] = pv.Value
	}
	periods := make([]int, 0, len(numBy))
	for p := range numBy {
		periods = append(periods, p)
	}
	for p := range denBy {
		if _, ok := numBy[p]; !ok {
			periods = append(periods, p)
		}
	}
	sort.Ints(periods)

	out := make([]PeriodValue, 0, len(periods))
	for _, p := range periods {
		v := SafeDivide(numBy[p], denBy[p])
		if v.Valid {
			v.Decimal = v.Decimal.Mul(scale)
		}
		out = append(out, PeriodValue{PeriodID: p, Value: v})
	}
	return out
}
