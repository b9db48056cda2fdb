package core

import "fmt"

// DecodeError reports a malformed field in one raw source record. Any decode
// failure aborts the run; there is no per-record skip.
type DecodeError struct {
	Field  string
	Value  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode field %s: %s (value %q)", e.Field, e.Reason, e.Value)
}

// KeyError reports an inconsistent document natural key: a builder produced a
// document whose journal or number disagrees with the key it was resolved
// under. Not expected from well-formed sources, but detected rather than
// silently overwritten.
type KeyError struct {
	Key    DocumentKey
	Detail string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("document key (%d, %s, %s): %s", e.Key.Year, e.Key.JournalID, e.Key.Number, e.Detail)
}

// RenderError reports a KPI query that could not be rendered: a required
// parameter missing from configuration, or an empty filter. Rendering fails
// loudly instead of emitting a broken query.
type RenderError struct {
	Kpi    KpiID
	Param  string
	Reason string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render kpi %s: parameter %s: %s", e.Kpi, e.Param, e.Reason)
}
