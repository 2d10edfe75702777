// Package table encodes the consolidated datasets: races as CSV and
// finishers as Parquet.
package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/okian/finishline/internal/domain/model"
)

// Fixed races.csv columns. Extra event keys follow in key order.
const (
	ColEventCode     = "eventCode"
	ColEventName     = "eventName"
	ColStartDateTime = "startDateTime"
	ColYear          = "year"
)

// RaceRow is the part of a races.csv row result collection needs.
type RaceRow struct {
	EventCode string
	EventName string
	Year      int
}

// ResultFileName is the base name of the row's per-event result file.
func (r RaceRow) ResultFileName() string {
	return model.ResultFileName(r.EventName, r.EventCode)
}

// WriteRaces writes events in the given order. The header is written even
// when events is empty.
func WriteRaces(w io.Writer, events []model.Event) error {
	extraSet := map[string]struct{}{}
	for _, e := range events {
		for k := range e.Extra {
			extraSet[k] = struct{}{}
		}
	}
	extra := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extra = append(extra, k)
	}
	sort.Strings(extra)

	cw := csv.NewWriter(w)
	header := append([]string{ColEventCode, ColEventName, ColStartDateTime, ColYear}, extra...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write races header: %w", err)
	}

	record := make([]string, len(header))
	for _, e := range events {
		record[0] = e.EventCode
		record[1] = e.EventName
		record[2] = e.StartDateTime
		record[3] = strconv.Itoa(e.Year)
		for i, k := range extra {
			record[4+i] = cell(e.Extra[k])
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write race %s: %w", e.EventCode, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadRaces reads races.csv rows in file order. Columns are located by
// header name.
func ReadRaces(r io.Reader) ([]RaceRow, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file has no header", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("read races header: %w", err)
	}

	idx := map[string]int{}
	for i, h := range header {
		idx[h] = i
	}
	for _, col := range []string{ColEventCode, ColEventName, ColYear} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}

	var rows []RaceRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRow, line, err)
		}

		year, err := strconv.Atoi(rec[idx[ColYear]])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: year %q", ErrBadRow, line, rec[idx[ColYear]])
		}
		rows = append(rows, RaceRow{
			EventCode: rec[idx[ColEventCode]],
			EventName: rec[idx[ColEventName]],
			Year:      year,
		})
	}
}

// cell renders a raw JSON value for CSV: strings unquoted, null empty,
// anything else as compact JSON.
func cell(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
