package core

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// FieldKind selects how a raw column value is decoded.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldDecimal
	FieldDate // ISO date, YYYY-MM-DD
	FieldBool // "true", "True", "1" are true; any other token is false
	FieldInt
	FieldOptionalInt // empty string decodes to absent
)

// Field describes one expected column of a source file.
type Field struct {
	Column string
	Kind   FieldKind
}

// Schema describes the expected columns of one source file.
type Schema struct {
	Name   string
	Fields []Field
}

// Record is one decoded row. Accessors assume the schema under which the
// record was decoded; asking for a column the schema did not declare returns
// the zero value.
type Record struct {
	values map[string]any
}

// DecodeRow decodes one raw row against a schema. Decoding is pure: it either
// returns a fully typed record or a *DecodeError naming the offending field.
// Boolean fields never fail; unrecognized tokens decode to false, matching
// quirks of the legacy exports.
func DecodeRow(s Schema, row map[string]string) (Record, error) {
	values := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		raw, ok := row[f.Column]
		if !ok {
			return Record{}, &DecodeError{Field: f.Column, Reason: "column missing from record"}
		}
		switch f.Kind {
		case FieldString:
			values[f.Column] = raw
		case FieldDecimal:
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return Record{}, &DecodeError{Field: f.Column, Value: raw, Reason: "not a decimal amount"}
			}
			values[f.Column] = d
		case FieldDate:
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return Record{}, &DecodeError{Field: f.Column, Value: raw, Reason: "not an ISO date"}
			}
			values[f.Column] = t
		case FieldBool:
			values[f.Column] = raw == "true" || raw == "True" || raw == "1"
		case FieldInt:
			n, err := strconv.Atoi(raw)
			if err != nil {
				return Record{}, &DecodeError{Field: f.Column, Value: raw, Reason: "not an integer"}
			}
			values[f.Column] = n
		case FieldOptionalInt:
			if raw == "" {
				values[f.Column] = (*int64)(nil)
				break
			}
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return Record{}, &DecodeError{Field: f.Column, Value: raw, Reason: "not an integer"}
			}
			values[f.Column] = &n
		}
	}
	return Record{values: values}, nil
}

func (r Record) String(column string) string {
	v, _ := r.values[column].(string)
	return v
}

func (r Record) Decimal(column string) decimal.Decimal {
	v, _ := r.values[column].(decimal.Decimal)
	return v
}

func (r Record) Date(column string) time.Time {
	v, _ := r.values[column].(time.Time)
	return v
}

func (r Record) Bool(column string) bool {
	v, _ := r.values[column].(bool)
	return v
}

func (r Record) Int(column string) int {
	v, _ := r.values[column].(int)
	return v
}

func (r Record) OptionalInt(column string) *int64 {
	v, _ := r.values[column].(*int64)
	return v
}
