package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"balancete/internal/core"
)

// CSVParser reads comma or semicolon separated text and hands the cells to
// the tabular parser. The delimiter is picked from the header line.
type CSVParser struct {
	Tabular TabularParser
}

var _ SpreadsheetParser = CSVParser{}

// Parse implements SpreadsheetParser
func (p CSVParser) Parse(ctx context.Context, u Upload) (core.Ledger, error) {
	if err := checkUpload(ctx, u); err != nil {
		return core.Ledger{}, err
	}

	content := bytes.TrimPrefix(u.Content, []byte("\ufeff"))
	r := csv.NewReader(bytes.NewReader(content))
	r.Comma = detectDelimiter(content)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return core.Ledger{}, fmt.Errorf("%w: %w", ErrMalformedSheet, err)
	}
	return p.Tabular.ParseRows(ctx, u, rows)
}

func detectDelimiter(content []byte) rune {
	header := string(content)
	for _, line := range strings.Split(header, "\n") {
		if strings.TrimSpace(line) != "" {
			header = line
			break
		}
	}
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	return ','
}
