// Package google reads ledgers from a Google Sheets range.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"balancete/internal/core"
	"balancete/internal/ingest"
)

var ErrMissingCredentials = errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")

type Config struct {
	SpreadsheetID      string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type valuesReader interface {
	ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

// SheetsSource parses the range named by Upload.FileName, for example
// "Balancete!A1:N40", with the tabular layout.
type SheetsSource struct {
	values        valuesReader
	spreadsheetID string
	tabular       ingest.TabularParser
}

var _ ingest.SpreadsheetParser = (*SheetsSource)(nil)

func New(ctx context.Context, cfg Config) (*SheetsSource, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsSource{values: serviceReader{svc: svc}, spreadsheetID: cfg.SpreadsheetID}, nil
}

// newSheetsService initializes a read-only Sheets service from service account credentials.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		credentialsJSON = []byte(cfg.ServiceAccountJSON)
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", cfg.ServiceAccountFile)
		b, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, ErrMissingCredentials
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

type serviceReader struct {
	svc *gsheet.Service
}

func (r serviceReader) ReadRange(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := r.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// Parse implements ingest.SpreadsheetParser
func (s *SheetsSource) Parse(ctx context.Context, u ingest.Upload) (core.Ledger, error) {
	rng := strings.TrimSpace(u.FileName)
	if rng == "" {
		return core.Ledger{}, fmt.Errorf("%w: empty sheet range", ingest.ErrMalformedSheet)
	}

	values, err := s.values.ReadRange(ctx, s.spreadsheetID, rng)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("read range %s: %w", rng, err)
	}
	slog.InfoContext(ctx, "Read sheet range", "range", rng, "rows", len(values))

	rows := make([][]string, len(values))
	for i, row := range values {
		rows[i] = toStrings(row)
	}
	return s.tabular.ParseRows(ctx, u, rows)
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
