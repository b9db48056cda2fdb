package core_test

import (
	"errors"
	"testing"
	"time"

	"github.com/seethrueu/openfinesse/internal/core"
)

var testSchema = core.Schema{Name: "test", Fields: []core.Field{
	{Column: "NAME", Kind: core.FieldString},
	{Column: "AMOUNT", Kind: core.FieldDecimal},
	{Column: "DATE", Kind: core.FieldDate},
	{Column: "FLAG", Kind: core.FieldBool},
	{Column: "YEAR", Kind: core.FieldInt},
	{Column: "MATCH", Kind: core.FieldOptionalInt},
}}

func validRow() map[string]string {
	return map[string]string{
		"NAME":   "Office supplies",
		"AMOUNT": "-150.00",
		"DATE":   "2024-01-15",
		"FLAG":   "1",
		"YEAR":   "2024",
		"MATCH":  "",
	}
}

func TestDecodeRow(t *testing.T) {
	rec, err := core.DecodeRow(testSchema, validRow())
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got := rec.String("NAME"); got != "Office supplies" {
		t.Errorf("NAME = %q", got)
	}
	if got := rec.Decimal("AMOUNT").String(); got != "-150" {
		t.Errorf("AMOUNT = %s", got)
	}
	want := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	if !rec.Date("DATE").Equal(want) {
		t.Errorf("DATE = %v, want %v", rec.Date("DATE"), want)
	}
	if !rec.Bool("FLAG") {
		t.Errorf("FLAG = false, want true")
	}
	if got := rec.Int("YEAR"); got != 2024 {
		t.Errorf("YEAR = %d", got)
	}
	if rec.OptionalInt("MATCH") != nil {
		t.Errorf("empty MATCH should decode to absent")
	}
}

func TestDecodeRow_OptionalInt(t *testing.T) {
	row := validRow()
	row["MATCH"] = "7"
	rec, err := core.DecodeRow(testSchema, row)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if got := rec.OptionalInt("MATCH"); got == nil || *got != 7 {
		t.Errorf("MATCH = %v, want 7", got)
	}
}

func TestDecodeRow_BoolTokens(t *testing.T) {
	// Only "true", "True" and "1" mean true; everything else, including
	// tokens that look affirmative, must quietly decode to false.
	tests := []struct {
		token string
		want  bool
	}{
		{"true", true},
		{"True", true},
		{"1", true},
		{"TRUE", false},
		{"yes", false},
		{"0", false},
		{"", false},
		{"garbage", false},
	}
	for _, tt := range tests {
		row := validRow()
		row["FLAG"] = tt.token
		rec, err := core.DecodeRow(testSchema, row)
		if err != nil {
			t.Fatalf("token %q: unexpected error: %v", tt.token, err)
		}
		if rec.Bool("FLAG") != tt.want {
			t.Errorf("token %q decoded to %v, want %v", tt.token, rec.Bool("FLAG"), tt.want)
		}
	}
}

func TestDecodeRow_Errors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(map[string]string)
		wantField string
	}{
		{"non-numeric amount", func(m map[string]string) { m["AMOUNT"] = "12,50" }, "AMOUNT"},
		{"unparseable date", func(m map[string]string) { m["DATE"] = "15/01/2024" }, "DATE"},
		{"non-integer year", func(m map[string]string) { m["YEAR"] = "24x" }, "YEAR"},
		{"non-integer match", func(m map[string]string) { m["MATCH"] = "abc" }, "MATCH"},
		{"missing column", func(m map[string]string) { delete(m, "NAME") }, "NAME"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.mutate(row)
			_, err := core.DecodeRow(testSchema, row)
			var decodeErr *core.DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("expected *DecodeError, got %v", err)
			}
			if decodeErr.Field != tt.wantField {
				t.Errorf("offending field = %s, want %s", decodeErr.Field, tt.wantField)
			}
		})
	}
}
