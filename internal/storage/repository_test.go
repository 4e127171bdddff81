package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"balancete/internal/core"
	"balancete/internal/ledgers"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "balancete.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	e := core.Entity{ID: "e1", Name: "Condomínio Teste", Company: "Adm", Period: "Janeiro a Dezembro 2024", CreatedAt: created}
	want := core.DemoLedger("e1", "Condomínio Teste")

	if err := repo.SaveLedger(ctx, e, want); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}

	got, err := repo.FetchLedger(ctx, "e1")
	if err != nil {
		t.Fatalf("FetchLedger: %v", err)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("fetched ledger invalid: %v", err)
	}
	if got.Name != e.Name {
		t.Fatalf("name %q, want %q", got.Name, e.Name)
	}
	for _, gt := range core.GroupTypes() {
		wg, gg := want.Group(gt), got.Group(gt)
		if len(wg.Series) != len(gg.Series) {
			t.Fatalf("%s: %d series, want %d", gt, len(gg.Series), len(wg.Series))
		}
		for i := range wg.Series {
			if wg.Series[i].Name != gg.Series[i].Name {
				t.Fatalf("%s[%d]: order changed, %q != %q", gt, i, gg.Series[i].Name, wg.Series[i].Name)
			}
		}
		for _, m := range core.Months {
			if !wg.Totals.Get(m).Equal(gg.Totals.Get(m)) {
				t.Fatalf("%s/%s: %s, want %s", gt, m, gg.Totals.Get(m), wg.Totals.Get(m))
			}
		}
	}

	fetched, err := repo.FetchEntity(ctx, "e1")
	if err != nil {
		t.Fatalf("FetchEntity: %v", err)
	}
	if !fetched.CreatedAt.Equal(created) || fetched.Company != "Adm" {
		t.Fatalf("unexpected entity %+v", fetched)
	}
}

func TestSQLiteReingestReplacesLedger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	e := core.Entity{ID: "e1", Name: "A", CreatedAt: created}
	if err := repo.SaveLedger(ctx, e, core.DemoLedger("e1", "A")); err != nil {
		t.Fatalf("SaveLedger: %v", err)
	}

	small := core.Ledger{
		EntityID: "e1",
		Name:     "A",
		Receitas: core.NewCategoryGroup(core.Receitas, core.NewCategorySeries("Única", map[core.Month]decimal.Decimal{core.Jan: decimal.NewFromInt(5)})),
		Despesas: core.NewCategoryGroup(core.Despesas),
		Saldos:   core.NewTotalsGroup(core.Saldos, core.MonthlyValues{}.With(core.Jan, decimal.NewFromInt(5))),
	}
	e.CreatedAt = created.Add(24 * time.Hour)
	if err := repo.SaveLedger(ctx, e, small); err != nil {
		t.Fatalf("re-ingest: %v", err)
	}

	got, _ := repo.FetchLedger(ctx, "e1")
	if got.Receitas.SeriesCount() != 1 || got.Despesas.SeriesCount() != 0 {
		t.Fatalf("ledger was not replaced wholesale: %+v", got)
	}
	fetched, _ := repo.FetchEntity(ctx, "e1")
	if !fetched.CreatedAt.Equal(created) {
		t.Fatalf("creation time changed on re-ingest: %s", fetched.CreatedAt)
	}
}

func TestSQLiteListAndDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"b", "a", "c"} {
		if err := repo.SaveLedger(ctx, core.Entity{ID: id, Name: id}, core.DemoLedger(id, id)); err != nil {
			t.Fatalf("SaveLedger %s: %v", id, err)
		}
	}

	entities, err := repo.ListEntities(ctx)
	if err != nil {
		t.Fatalf("ListEntities: %v", err)
	}
	if len(entities) != 3 || entities[0].ID != "b" || entities[2].ID != "c" {
		t.Fatalf("expected creation order b,a,c, got %+v", entities)
	}

	if err := repo.DeleteEntity(ctx, "a"); err != nil {
		t.Fatalf("DeleteEntity: %v", err)
	}
	if _, err := repo.FetchLedger(ctx, "a"); !errors.Is(err, ledgers.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteEntity(ctx, "a"); !errors.Is(err, ledgers.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := repo.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestAssembleLedgerWithoutTotalsRow(t *testing.T) {
	rows := []LedgerRow{
		{Group: core.Despesas, Position: 1, Category: "B", Values: core.MonthlyValues{}.With(core.Jan, decimal.NewFromInt(2))},
		{Group: core.Despesas, Position: 0, Category: "A", Values: core.MonthlyValues{}.With(core.Jan, decimal.NewFromInt(3))},
	}
	l, err := AssembleLedger("x", "X", rows)
	if err != nil {
		t.Fatalf("AssembleLedger: %v", err)
	}
	if l.Despesas.Series[0].Name != "A" || !l.Despesas.Totals.Get(core.Jan).Equal(decimal.NewFromInt(5)) {
		t.Fatalf("unexpected despesas %+v", l.Despesas)
	}
	if l.Saldos.Type != core.Saldos {
		t.Fatalf("empty group should keep its type, got %q", l.Saldos.Type)
	}

	if _, err := AssembleLedger("x", "X", []LedgerRow{{Group: "outros"}}); !errors.Is(err, core.ErrInvalidGroup) {
		t.Fatalf("expected ErrInvalidGroup, got %v", err)
	}
}
