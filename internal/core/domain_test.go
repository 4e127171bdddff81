package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want Month
		ok   bool
	}{
		{"jan", Jan, true},
		{"Fev", Feb, true},
		{"Março", Mar, true},
		{"marco", Mar, true},
		{" DEZ ", Dec, true},
		{"12", Dec, true},
		{"1", Jan, true},
		{"0", 0, false},
		{"13", 0, false},
		{"feb", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMonth(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %v, got %v (err=%v)", tc.in, tc.want, got, err)
			}
		} else if !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("%q expected ErrInvalidMonth, got %v", tc.in, err)
		}
	}
}

func TestMonthsCalendarOrder(t *testing.T) {
	for i, m := range Months {
		if int(m) != i+1 {
			t.Fatalf("Months[%d] = %d", i, m)
		}
	}
	if Months[0].Key() != "jan" || Months[11].Key() != "dez" {
		t.Fatalf("unexpected keys %q..%q", Months[0].Key(), Months[11].Key())
	}
}

func TestMonthTextRoundTrip(t *testing.T) {
	b, err := Sep.MarshalText()
	if err != nil || string(b) != "set" {
		t.Fatalf("MarshalText = %q, %v", b, err)
	}
	var m Month
	if err := m.UnmarshalText([]byte("Setembro")); err != nil || m != Sep {
		t.Fatalf("UnmarshalText = %v, %v", m, err)
	}
}

func TestNewCategoryGroupSumsSeries(t *testing.T) {
	g := NewCategoryGroup(Despesas,
		NewCategorySeries("Manutenção", map[Month]decimal.Decimal{Jan: d(100), Mar: d(50)}),
		NewCategorySeries("Limpeza", map[Month]decimal.Decimal{Jan: d(20.5)}),
	)
	if !g.Totals.Get(Jan).Equal(d(120.5)) {
		t.Fatalf("jan total = %s", g.Totals.Get(Jan))
	}
	if !g.Totals.Get(Feb).IsZero() {
		t.Fatalf("absent month should be zero, got %s", g.Totals.Get(Feb))
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected valid group, got %v", err)
	}
}

func TestCategoryGroupValidate(t *testing.T) {
	good := NewCategorySeries("A", map[Month]decimal.Decimal{Jan: d(10)})
	inconsistent := NewCategoryGroup(Receitas, good)
	inconsistent.Totals = inconsistent.Totals.With(Jan, d(11))

	cases := []struct {
		name string
		g    CategoryGroup
		want error
	}{
		{"bad type", CategoryGroup{Type: "lucros"}, ErrInvalidGroup},
		{"empty name", NewCategoryGroup(Receitas, NewCategorySeries(" ", nil)), ErrEmptyCategory},
		{"duplicate", NewCategoryGroup(Receitas, good, good), ErrDuplicateCategory},
		{"negative revenue", NewCategoryGroup(Receitas, NewCategorySeries("B", map[Month]decimal.Decimal{Feb: d(-1)})), ErrNegativeAmount},
		{"negative totals", NewTotalsGroup(Despesas, MonthlyValues{}.With(Jan, d(-5))), ErrNegativeAmount},
		{"inconsistent", inconsistent, ErrInconsistentTotals},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.g.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	saldos := NewTotalsGroup(Saldos, MonthlyValues{}.With(Jan, d(-300)))
	if err := saldos.Validate(); err != nil {
		t.Fatalf("saldos may be negative, got %v", err)
	}
}

func TestLedgerValidate(t *testing.T) {
	l := DemoLedger("x", "X")
	if err := l.Validate(); err != nil {
		t.Fatalf("demo ledger invalid: %v", err)
	}

	noID := l
	noID.EntityID = ""
	if err := noID.Validate(); !errors.Is(err, ErrEmptyEntityID) {
		t.Fatalf("expected ErrEmptyEntityID, got %v", err)
	}

	swapped := l
	swapped.Receitas, swapped.Despesas = l.Despesas, l.Receitas
	if err := swapped.Validate(); !errors.Is(err, ErrInvalidGroup) {
		t.Fatalf("expected ErrInvalidGroup, got %v", err)
	}
}

func TestLedgerGroupAndClone(t *testing.T) {
	l := DemoLedger("x", "X")
	if l.Group(Despesas).Type != Despesas {
		t.Fatalf("Group(despesas) returned %q", l.Group(Despesas).Type)
	}
	if g := l.Group("outros"); len(g.Series) != 0 || !g.Totals.Sum().IsZero() {
		t.Fatalf("unknown group should be empty: %+v", g)
	}

	c := l.Clone()
	c.Receitas.Series[0].Name = "changed"
	if l.Receitas.Series[0].Name == "changed" {
		t.Fatalf("clone shares series with original")
	}
}

func TestDemoLedgerTotals(t *testing.T) {
	l := DemoLedger("x", "X")
	if !l.Receitas.Totals.Get(Jan).Equal(d(15000)) || !l.Despesas.Totals.Get(Dec).Equal(d(15200)) {
		t.Fatalf("unexpected demo totals: jan=%s dez=%s", l.Receitas.Totals.Get(Jan), l.Despesas.Totals.Get(Dec))
	}
	if !l.Saldos.Totals.Get(Jan).Equal(d(3000)) {
		t.Fatalf("saldo jan = %s", l.Saldos.Totals.Get(Jan))
	}
	if l.Receitas.SeriesCount() != 3 || l.Despesas.SeriesCount() != 5 {
		t.Fatalf("unexpected category counts %d/%d", l.Receitas.SeriesCount(), l.Despesas.SeriesCount())
	}
}

func TestEntityValidate(t *testing.T) {
	if err := DemoEntity(time.Now()).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Entity{ID: "a"}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}
