package storage

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"balancete/internal/core"
)

// TotalsPosition marks the row holding a group's monthly aggregate.
const TotalsPosition = -1

// LedgerRow is one stored line of a ledger: either a category series or,
// at TotalsPosition with an empty category, the group totals.
type LedgerRow struct {
	Group    core.GroupType
	Position int
	Category string
	Values   core.MonthlyValues
}

// FlattenLedger turns a ledger into rows, totals first within each group.
func FlattenLedger(l core.Ledger) []LedgerRow {
	var rows []LedgerRow
	for _, t := range core.GroupTypes() {
		g := l.Group(t)
		rows = append(rows, LedgerRow{Group: t, Position: TotalsPosition, Values: g.Totals})
		for i, s := range g.Series {
			rows = append(rows, LedgerRow{Group: t, Position: i, Category: s.Name, Values: s.Values})
		}
	}
	return rows
}

// AssembleLedger rebuilds a ledger from stored rows. Groups without a totals
// row get the sum of their series.
func AssembleLedger(entityID, name string, rows []LedgerRow) (core.Ledger, error) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Group != rows[j].Group {
			return rows[i].Group < rows[j].Group
		}
		return rows[i].Position < rows[j].Position
	})

	groups := map[core.GroupType]*core.CategoryGroup{
		core.Receitas: {Type: core.Receitas},
		core.Despesas: {Type: core.Despesas},
		core.Saldos:   {Type: core.Saldos},
	}
	hasTotals := make(map[core.GroupType]bool, len(groups))
	for _, r := range rows {
		g, ok := groups[r.Group]
		if !ok {
			return core.Ledger{}, fmt.Errorf("%w: %q", core.ErrInvalidGroup, r.Group)
		}
		if r.Position == TotalsPosition {
			g.Totals = r.Values
			hasTotals[r.Group] = true
			continue
		}
		g.Series = append(g.Series, core.CategorySeries{Name: r.Category, Values: r.Values})
	}
	for t, g := range groups {
		if !hasTotals[t] {
			*g = core.NewCategoryGroup(t, g.Series...)
		}
	}

	return core.Ledger{
		EntityID: entityID,
		Name:     name,
		Receitas: *groups[core.Receitas],
		Despesas: *groups[core.Despesas],
		Saldos:   *groups[core.Saldos],
	}, nil
}

// ParseMonthColumns converts the 12 stored amount strings of a row.
func ParseMonthColumns(cols [12]string) (core.MonthlyValues, error) {
	var v core.MonthlyValues
	for i, m := range core.Months {
		if cols[i] == "" {
			continue
		}
		d, err := decimal.NewFromString(cols[i])
		if err != nil {
			return v, fmt.Errorf("month %s: %w", m, err)
		}
		v = v.With(m, d)
	}
	return v, nil
}

// MonthColumns renders the 12 amounts for storage.
func MonthColumns(v core.MonthlyValues) [12]string {
	var cols [12]string
	for i, m := range core.Months {
		cols[i] = v.Get(m).String()
	}
	return cols
}
