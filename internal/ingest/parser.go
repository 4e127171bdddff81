// Package ingest turns uploaded spreadsheet content into ledgers. The rest of
// the service only sees the SpreadsheetParser interface and never knows which
// implementation produced a ledger.
package ingest

import (
	"context"
	"errors"

	"balancete/internal/core"
)

// MaxUploadBytes is the largest upload accepted by any parser.
const MaxUploadBytes = 10 << 20

var (
	ErrFileTooLarge       = errors.New("file too large")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrMalformedSheet     = errors.New("malformed spreadsheet")
	ErrMissingColumn      = errors.New("missing required column")
	ErrNoData             = errors.New("spreadsheet has no data rows")
	ErrMissingEntityID    = errors.New("upload has no entity id")
	errUnknownGroupColumn = errors.New("no group column and no default group")
)

// Upload is a file handed to a parser. DefaultGroup is used for layouts that
// carry a single group and no group column, such as an exported CSV.
type Upload struct {
	FileName     string
	EntityID     string
	EntityName   string
	DefaultGroup core.GroupType
	Content      []byte
}

type SpreadsheetParser interface {
	Parse(ctx context.Context, u Upload) (core.Ledger, error)
}

func checkUpload(ctx context.Context, u Upload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if u.EntityID == "" {
		return ErrMissingEntityID
	}
	if len(u.Content) > MaxUploadBytes {
		return ErrFileTooLarge
	}
	return nil
}
