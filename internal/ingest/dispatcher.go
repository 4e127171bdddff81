package ingest

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"balancete/internal/core"
)

// Dispatcher picks a parser from the upload's file extension. Workbooks are
// only accepted when a synthetic parser is configured.
type Dispatcher struct {
	csv       SpreadsheetParser
	synthetic SpreadsheetParser
}

var _ SpreadsheetParser = (*Dispatcher)(nil)

// NewDispatcher returns a dispatcher for text files. synthetic may be nil, in
// which case workbook uploads fail with ErrUnsupportedFormat.
func NewDispatcher(synthetic SpreadsheetParser) *Dispatcher {
	return &Dispatcher{csv: CSVParser{}, synthetic: synthetic}
}

// Parse implements SpreadsheetParser
func (d *Dispatcher) Parse(ctx context.Context, u Upload) (core.Ledger, error) {
	if len(u.Content) > MaxUploadBytes {
		return core.Ledger{}, ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(u.FileName))
	switch ext {
	case ".csv", ".txt":
		return d.csv.Parse(ctx, u)
	case ".xlsx", ".xls":
		if d.synthetic == nil {
			return core.Ledger{}, fmt.Errorf("%w: %s (workbook parsing disabled)", ErrUnsupportedFormat, ext)
		}
		return d.synthetic.Parse(ctx, u)
	default:
		return core.Ledger{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}
