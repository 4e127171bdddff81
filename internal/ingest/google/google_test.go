package google

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"balancete/internal/core"
	"balancete/internal/ingest"
)

type fakeValues struct {
	rows     [][]interface{}
	err      error
	gotID    string
	gotRange string
}

func (f *fakeValues) ReadRange(_ context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	f.gotID, f.gotRange = spreadsheetID, rng
	return f.rows, f.err
}

func header() []interface{} {
	row := []interface{}{"Grupo", "Categoria"}
	for _, m := range core.Months {
		row = append(row, m.Label())
	}
	return row
}

func TestSheetsSource_Parse(t *testing.T) {
	fake := &fakeValues{rows: [][]interface{}{
		header(),
		{"receitas", "Taxa", "1.500,00", 1500, 1500, 1500, 1500, 1500, 1500, 1500, 1500, 1500, 1500, 1500},
		{"despesas", "Limpeza", 200, 200, 200, 200, 200, 200, 200, 200, 200, 200, 200, 200},
	}}
	s := &SheetsSource{values: fake, spreadsheetID: "sheet-1"}

	l, err := s.Parse(context.Background(), ingest.Upload{FileName: "Balancete!A1:N3", EntityID: "e1", EntityName: "Cond"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if fake.gotID != "sheet-1" || fake.gotRange != "Balancete!A1:N3" {
		t.Errorf("read %s %s", fake.gotID, fake.gotRange)
	}
	if got := l.Saldos.Totals.Get(core.Jan); !got.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("saldo jan = %s, want 1300", got)
	}
}

func TestSheetsSource_Errors(t *testing.T) {
	s := &SheetsSource{values: &fakeValues{err: errors.New("403 forbidden")}, spreadsheetID: "x"}
	if _, err := s.Parse(context.Background(), ingest.Upload{FileName: "A1:N2", EntityID: "e1"}); err == nil {
		t.Fatal("expected read error")
	}
	if _, err := s.Parse(context.Background(), ingest.Upload{EntityID: "e1"}); !errors.Is(err, ingest.ErrMalformedSheet) {
		t.Fatalf("expected ErrMalformedSheet for empty range, got %v", err)
	}
}

func TestNew_MissingConfig(t *testing.T) {
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	_, err := New(context.Background(), Config{SpreadsheetID: "x"})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}
