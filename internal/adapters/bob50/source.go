// Package bob50 adapts BOB50 bookkeeping extracts to the import pipeline.
// Each extract is a header-labeled CSV file; column names follow the BOB50
// table layout.
package bob50

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/seethrueu/openfinesse/internal/config"
	"github.com/seethrueu/openfinesse/internal/core"
)

var (
	journalSchema = core.Schema{Name: "ac_dbk", Fields: []core.Field{
		{Column: "DBID", Kind: core.FieldString},
		{Column: "HEADING1", Kind: core.FieldString},
		{Column: "DBTYPE", Kind: core.FieldString},
	}}
	accountSchema = core.Schema{Name: "ac_accoun", Fields: []core.Field{
		{Column: "AID", Kind: core.FieldString},
		{Column: "AISTITLE", Kind: core.FieldBool},
		{Column: "LONGHEADING1", Kind: core.FieldString},
		{Column: "ABALANCE", Kind: core.FieldString},
	}}
	partySchema = core.Schema{Name: "ac_compan", Fields: []core.Field{
		{Column: "CID", Kind: core.FieldString},
		{Column: "CNAME1", Kind: core.FieldString},
		{Column: "CCUSTYPE", Kind: core.FieldString},
		{Column: "CSUPTYPE", Kind: core.FieldString},
		{Column: "CCUSCAT", Kind: core.FieldString},
	}}
	accountHistorySchema = core.Schema{Name: "ac_ahisto", Fields: []core.Field{
		{Column: "HYEAR", Kind: core.FieldInt},
		{Column: "HMONTH", Kind: core.FieldInt},
		{Column: "HDOCDATE", Kind: core.FieldDate},
		{Column: "HDBK", Kind: core.FieldString},
		{Column: "HDOCNO", Kind: core.FieldString},
		{Column: "HID", Kind: core.FieldString},
		{Column: "HCUSSUP", Kind: core.FieldString},
		{Column: "HAMOUNT", Kind: core.FieldDecimal},
		{Column: "HSTATUS", Kind: core.FieldString},
		{Column: "HMATCHNO", Kind: core.FieldString},
		{Column: "HREM", Kind: core.FieldString},
	}}
	partyHistorySchema = core.Schema{Name: "ac_chisto", Fields: []core.Field{
		{Column: "HYEAR", Kind: core.FieldInt},
		{Column: "HMONTH", Kind: core.FieldInt},
		{Column: "HDOCDATE", Kind: core.FieldDate},
		{Column: "HDBK", Kind: core.FieldString},
		{Column: "HDOCNO", Kind: core.FieldString},
		{Column: "HID", Kind: core.FieldString},
		{Column: "HAMOUNT", Kind: core.FieldDecimal},
		{Column: "HSTATUS", Kind: core.FieldString},
		{Column: "HMATCHNO", Kind: core.FieldString},
		{Column: "HREMINT", Kind: core.FieldString},
	}}
)

// Source implements core.Source over a set of BOB50 CSV extract files.
type Source struct {
	cfg config.Bob50
}

func New(cfg config.Bob50) *Source {
	return &Source{cfg: cfg}
}

func (s *Source) Journals(fn func(core.Journal) error) error {
	return eachRecord(s.cfg.ACDbk.File, journalSchema, func(r core.Record) error {
		return fn(core.Journal{
			ID:       r.String("DBID"),
			Name:     r.String("HEADING1"),
			Category: r.String("DBTYPE"),
		})
	})
}

func (s *Source) Accounts(fn func(core.Account) error) error {
	return eachRecord(s.cfg.ACAccoun.File, accountSchema, func(r core.Record) error {
		return fn(core.Account{
			ID:       r.String("AID"),
			Header:   r.Bool("AISTITLE"),
			Name:     r.String("LONGHEADING1"),
			Category: r.String("ABALANCE"),
		})
	})
}

func (s *Source) Parties(fn func(core.Party) error) error {
	return eachRecord(s.cfg.ACCompan.File, partySchema, func(r core.Record) error {
		return fn(core.Party{
			ID:       r.String("CID"),
			Name:     r.String("CNAME1"),
			Customer: r.String("CCUSTYPE") == "C",
			Supplier: r.String("CSUPTYPE") == "S",
			Category: r.String("CCUSCAT"),
		})
	})
}

func (s *Source) AccountHistory(fn func(core.HistoryRecord) error) error {
	return eachRecord(s.cfg.ACAhisto.File, accountHistorySchema, func(r core.Record) error {
		rec := historyRecord(r, "HREM")
		rec.SubjectID = r.String("HID")
		if counterparty := r.String("HCUSSUP"); counterparty != "" {
			rec.CounterpartyID = &counterparty
		}
		return fn(rec)
	})
}

func (s *Source) PartyHistory(fn func(core.HistoryRecord) error) error {
	return eachRecord(s.cfg.ACChisto.File, partyHistorySchema, func(r core.Record) error {
		rec := historyRecord(r, "HREMINT")
		rec.SubjectID = r.String("HID")
		return fn(rec)
	})
}

func historyRecord(r core.Record, descriptionColumn string) core.HistoryRecord {
	return core.HistoryRecord{
		Year:        r.Int("HYEAR"),
		Month:       r.Int("HMONTH"),
		Date:        r.Date("HDOCDATE"),
		JournalID:   r.String("HDBK"),
		Number:      r.String("HDOCNO"),
		Description: r.String(descriptionColumn),
		Amount:      r.Decimal("HAMOUNT"),
		Status:      r.String("HSTATUS"),
		MatchNumber: r.String("HMATCHNO"),
	}
}

// eachRecord streams one CSV extract through the row decoder in file order.
func eachRecord(path string, schema core.Schema, fn func(core.Record) error) error {
	if path == "" {
		return fmt.Errorf("no file configured for %s", schema.Name)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s extract: %w", schema.Name, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read %s line %d: %w", path, line+1, err)
		}
		line++
		raw := make(map[string]string, len(header))
		for i, column := range header {
			if i < len(row) {
				raw[column] = row[i]
			}
		}
		record, err := core.DecodeRow(schema, raw)
		if err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}
