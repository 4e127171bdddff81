package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"balancete/internal/core"
)

const monthHeader = "jan,fev,mar,abr,mai,jun,jul,ago,set,out,nov,dez"

func upload(name, content string) Upload {
	return Upload{FileName: name, EntityID: "e1", EntityName: "Cliente 1", Content: []byte(content)}
}

func TestSyntheticParser_FixedData(t *testing.T) {
	p := NewSyntheticParser(1)
	for _, name := range []string{"Balancete_Quali_2024.xlsx", "bonfim.xls"} {
		l, err := p.Parse(context.Background(), upload(name, ""))
		if err != nil {
			t.Fatalf("Parse(%s): %v", name, err)
		}
		if got := l.Receitas.Totals.Get(core.Jan); !got.Equal(decimal.NewFromInt(15000)) {
			t.Errorf("%s: receitas jan = %s, want 15000", name, got)
		}
		if got := l.Saldos.Totals.Get(core.Dec); !got.Equal(decimal.NewFromInt(3000)) {
			t.Errorf("%s: saldo dez = %s, want 3000", name, got)
		}
		if l.EntityID != "e1" || l.Name != "Cliente 1" {
			t.Errorf("%s: identity = %q/%q", name, l.EntityID, l.Name)
		}
	}
}

func TestSyntheticParser_Generated(t *testing.T) {
	a := NewSyntheticParser(42)
	b := NewSyntheticParser(42)
	ctx := context.Background()

	la, err := a.Parse(ctx, upload("condominio.xlsx", ""))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	lb, _ := b.Parse(ctx, upload("condominio.xlsx", ""))

	if err := la.Validate(); err != nil {
		t.Fatalf("generated ledger invalid: %v", err)
	}
	if la.Receitas.SeriesCount() != 3 || la.Despesas.SeriesCount() != 5 {
		t.Fatalf("series counts = %d/%d", la.Receitas.SeriesCount(), la.Despesas.SeriesCount())
	}
	for _, m := range core.Months {
		r := la.Receitas.Totals.Get(m)
		if r.LessThan(decimal.NewFromInt(10000)) || r.GreaterThanOrEqual(decimal.NewFromInt(17000)) {
			t.Errorf("receitas %s = %s out of range", m, r)
		}
		d := la.Despesas.Totals.Get(m)
		low := r.Mul(decimal.NewFromFloat(0.7)).Floor()
		if d.LessThan(low) || d.GreaterThanOrEqual(low.Add(decimal.NewFromInt(1000))) {
			t.Errorf("despesas %s = %s, receitas %s", m, d, r)
		}
		if !la.Saldos.Totals.Get(m).Equal(r.Sub(d)) {
			t.Errorf("saldo %s = %s, want %s", m, la.Saldos.Totals.Get(m), r.Sub(d))
		}
		if !lb.Receitas.Totals.Get(m).Equal(r) {
			t.Errorf("same seed should generate the same ledger (%s)", m)
		}
	}
}

func TestSyntheticParser_Limits(t *testing.T) {
	p := NewSyntheticParser(1)
	big := Upload{FileName: "x.xlsx", EntityID: "e1", Content: make([]byte, MaxUploadBytes+1)}
	if _, err := p.Parse(context.Background(), big); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
	if _, err := p.Parse(context.Background(), Upload{FileName: "x.xlsx"}); !errors.Is(err, ErrMissingEntityID) {
		t.Errorf("expected ErrMissingEntityID, got %v", err)
	}
}

func TestCSVParser_Grouped(t *testing.T) {
	content := strings.Join([]string{
		"grupo,categoria," + monthHeader,
		"receitas,Taxa de Condomínio,1000,1000,1000,1000,1000,1000,1000,1000,1000,1000,1000,1000",
		"receitas,Multas,50,,0,0,0,0,0,0,0,0,0,25.50",
		"",
		"despesas,Limpeza,\"1.234,56\",0,0,0,0,0,0,0,0,0,0,0",
	}, "\n")

	l, err := CSVParser{}.Parse(context.Background(), upload("ledger.csv", content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if l.Receitas.SeriesCount() != 2 || l.Despesas.SeriesCount() != 1 {
		t.Fatalf("series = %d/%d", l.Receitas.SeriesCount(), l.Despesas.SeriesCount())
	}
	if got := l.Receitas.Totals.Get(core.Jan); !got.Equal(decimal.NewFromInt(1050)) {
		t.Errorf("receitas jan = %s, want 1050", got)
	}
	if got := l.Receitas.Totals.Get(core.Dec); !got.Equal(decimal.RequireFromString("1025.5")) {
		t.Errorf("receitas dez = %s, want 1025.5", got)
	}
	if got := l.Saldos.Totals.Get(core.Jan); !got.Equal(decimal.RequireFromString("-184.56")) {
		t.Errorf("saldo jan = %s, want -184.56", got)
	}
}

func TestCSVParser_SemicolonAndTotalsRow(t *testing.T) {
	content := strings.Join([]string{
		"Grupo;Categoria;Janeiro;Fevereiro;Março;Abril;Maio;Junho;Julho;Agosto;Setembro;Outubro;Novembro;Dezembro",
		"saldos;Total;100,50;0;0;0;0;0;0;0;0;0;0;-20",
		"receitas;Aluguel;1.000,00;0;0;0;0;0;0;0;0;0;0;0",
	}, "\r\n")

	l, err := CSVParser{}.Parse(context.Background(), upload("ledger.txt", content))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if l.Saldos.SeriesCount() != 0 {
		t.Errorf("saldos should carry totals only")
	}
	if got := l.Saldos.Totals.Get(core.Dec); !got.Equal(decimal.NewFromInt(-20)) {
		t.Errorf("saldo dez = %s, want -20", got)
	}
	if got := l.Receitas.Totals.Get(core.Jan); !got.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("receitas jan = %s, want 1000", got)
	}
}

func TestCSVParser_ExportLayout(t *testing.T) {
	content := "Category,Total,Jan,Fev,Mar,Abr,Mai,Jun,Jul,Ago,Set,Out,Nov,Dez\n" +
		"\"Manutenção\",120.00,10.00,10.00,10.00,10.00,10.00,10.00,10.00,10.00,10.00,10.00,10.00,10.00\n"

	u := upload("export.csv", content)
	if _, err := (CSVParser{}).Parse(context.Background(), u); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn without a default group, got %v", err)
	}

	u.DefaultGroup = core.Despesas
	l, err := CSVParser{}.Parse(context.Background(), u)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if l.Despesas.SeriesCount() != 1 || l.Despesas.Series[0].Name != "Manutenção" {
		t.Fatalf("despesas = %+v", l.Despesas)
	}
	if got := l.Despesas.Series[0].Total(); !got.Equal(decimal.NewFromInt(120)) {
		t.Errorf("total = %s, want 120", got)
	}
}

func TestCSVParser_Errors(t *testing.T) {
	row := func(group, cat, jan string) string {
		return group + "," + cat + "," + jan + ",0,0,0,0,0,0,0,0,0,0,0"
	}
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{"empty", "\n\n", ErrNoData},
		{"header only", "grupo,categoria," + monthHeader, ErrNoData},
		{"missing month", "grupo,categoria,jan,fev", ErrMissingColumn},
		{"missing category", "grupo," + monthHeader + "\nreceitas,1,2,3,4,5,6,7,8,9,10,11,12", ErrMissingColumn},
		{"bad group", "grupo,categoria," + monthHeader + "\n" + row("ativos", "X", "1"), core.ErrInvalidGroup},
		{"bad amount", "grupo,categoria," + monthHeader + "\n" + row("receitas", "X", "abc"), ErrMalformedSheet},
		{"negative revenue", "grupo,categoria," + monthHeader + "\n" + row("receitas", "X", "-5"), core.ErrNegativeAmount},
		{"duplicate", "grupo,categoria," + monthHeader + "\n" + row("receitas", "X", "1") + "\n" + row("receitas", "X", "2"), core.ErrDuplicateCategory},
		{"inconsistent totals", "grupo,categoria," + monthHeader + "\n" + row("receitas", "X", "1") + "\n" + row("receitas", "", "2"), core.ErrInconsistentTotals},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CSVParser{}.Parse(context.Background(), upload("f.csv", tt.content))
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDispatcher(t *testing.T) {
	csvContent := "grupo,categoria," + monthHeader + "\nreceitas,A,1,1,1,1,1,1,1,1,1,1,1,1"
	ctx := context.Background()

	withSynthetic := NewDispatcher(NewSyntheticParser(7))
	if _, err := withSynthetic.Parse(ctx, upload("a.CSV", csvContent)); err != nil {
		t.Errorf("csv: %v", err)
	}
	if l, err := withSynthetic.Parse(ctx, upload("quali.xlsx", "")); err != nil || l.Receitas.SeriesCount() != 3 {
		t.Errorf("xlsx: %v", err)
	}
	if _, err := withSynthetic.Parse(ctx, upload("a.pdf", "")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("pdf: expected ErrUnsupportedFormat, got %v", err)
	}

	textOnly := NewDispatcher(nil)
	if _, err := textOnly.Parse(ctx, upload("a.xls", "")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("xls without synthetic: expected ErrUnsupportedFormat, got %v", err)
	}
	big := upload("a.csv", "")
	big.Content = make([]byte, MaxUploadBytes+1)
	if _, err := textOnly.Parse(ctx, big); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
}
