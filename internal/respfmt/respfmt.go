// Package respfmt renders a backend.Result as one of the response
// formats spec §6 lists: csv (default), jsonrecords, jsonarrays. It
// follows the teacher's output.NewFormatter shape — a small registry
// keyed by name, returning a typed error for anything unrecognized —
// generalized from schema diffs to result rows.
package respfmt

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"tesseract/internal/backend"
	"tesseract/internal/oerrors"
)

// Format is the set of supported response encodings.
type Format string

const (
	CSV         Format = "csv"
	JSONRecords Format = "jsonrecords"
	JSONArrays  Format = "jsonarrays"
)

// Formatter renders a query Result to its wire representation.
type Formatter interface {
	ContentType() string
	Format(r *backend.Result) ([]byte, error)
}

// New resolves name (an empty string defaults to csv) to a Formatter,
// or a *oerrors.FormatError for anything else, per spec §7.5.
func New(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", CSV:
		return csvFormatter{}, nil
	case JSONRecords:
		return jsonRecordsFormatter{}, nil
	case JSONArrays:
		return jsonArraysFormatter{}, nil
	default:
		return nil, &oerrors.FormatError{Format: name}
	}
}

type csvFormatter struct{}

func (csvFormatter) ContentType() string { return "text/csv; charset=utf-8" }

func (csvFormatter) Format(r *backend.Result) ([]byte, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(r.Headers); err != nil {
		return nil, err
	}
	for _, row := range r.Rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = stringify(v)
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

type jsonRecordsFormatter struct{}

func (jsonRecordsFormatter) ContentType() string { return "application/json; charset=utf-8" }

func (jsonRecordsFormatter) Format(r *backend.Result) ([]byte, error) {
	records := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		rec := make(map[string]any, len(r.Headers))
		for j, h := range r.Headers {
			if j < len(row) {
				rec[h] = row[j]
			}
		}
		records[i] = rec
	}
	return json.Marshal(records)
}

type jsonArraysFormatter struct{}

func (jsonArraysFormatter) ContentType() string { return "application/json; charset=utf-8" }

func (jsonArraysFormatter) Format(r *backend.Result) ([]byte, error) {
	payload := struct {
		Headers []string `json:"headers"`
		Data    [][]any  `json:"data"`
	}{Headers: r.Headers, Data: r.Rows}
	return json.Marshal(payload)
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}
