package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
)

// Dataset is a register table: ordered column headers and rows keyed by header.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter writes request registers as CSV for spreadsheet use.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render writes the header row followed by one record per row. Missing cells are
// left empty. Free-text cells that a spreadsheet would evaluate as a formula are
// prefixed with a single quote.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("register export needs at least one column")
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write register header: %w", err)
	}
	for i, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for col, header := range data.Headers {
			record[col] = inertCell(row[header])
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write register row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush register: %w", err)
	}
	return buf.Bytes(), nil
}

func inertCell(value string) string {
	if value == "" {
		return value
	}
	if strings.ContainsRune("=+-@", rune(value[0])) {
		return "'" + value
	}
	return value
}
