package core

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// talliedMarker is the status token the source writes on reconciled lines.
const talliedMarker = "T"

// NormalizeAmount splits a signed source amount into debit and credit
// columns. Negative amounts post as credits of the absolute value, positive
// amounts as debits; a zero amount leaves both columns zero.
func NormalizeAmount(amount decimal.Decimal) (debit, credit decimal.Decimal) {
	switch amount.Sign() {
	case -1:
		return decimal.Zero, amount.Abs()
	case 1:
		return amount, decimal.Zero
	}
	return decimal.Zero, decimal.Zero
}

// ParseTally resolves the reconciliation state of a line: tallied iff the
// status equals the source's tallied marker, and the tally group number when
// the match column is non-empty.
func ParseTally(status, matchNumber string) (tallied bool, tallyNumber *int64, err error) {
	tallied = status == talliedMarker
	if matchNumber == "" {
		return tallied, nil, nil
	}
	n, err := strconv.ParseInt(matchNumber, 10, 64)
	if err != nil {
		return false, nil, &DecodeError{Field: "match number", Value: matchNumber, Reason: "not an integer"}
	}
	return tallied, &n, nil
}

// PeriodID encodes (year, month) as the aggregation time bucket. Out-of-range
// months are clamped to [1, 12], never rejected; some exports carry opening
// or closing pseudo-periods outside the calendar.
func PeriodID(year, month int) int {
	if month < 1 {
		month = 1
	}
	if month > 12 {
		month = 12
	}
	return year*100 + month
}

// ShouldImport reports whether a record of the given accounting year takes
// part in the run. Excluded years are a complete no-op: the caller must skip
// the record before any document resolution or id allocation.
func ShouldImport(year int, excluded map[int]bool) bool {
	return !excluded[year]
}

// SafeDivide divides two nullable decimals, yielding null instead of an error
// or infinity when either operand is null or the denominator is zero.
// Aggregates over zero rows surface as null, not zero, so ratio consumers
// must go through this primitive.
func SafeDivide(num, den decimal.NullDecimal) decimal.NullDecimal {
	if !num.Valid || !den.Valid || den.Decimal.IsZero() {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: num.Decimal.Div(den.Decimal), Valid: true}
}
