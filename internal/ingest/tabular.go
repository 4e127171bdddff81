package ingest

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"balancete/internal/core"
)

var (
	groupHeaders    = []string{"grupo", "group"}
	categoryHeaders = []string{"categoria", "category"}
)

// TabularParser reads a ledger from a matrix of cells. The first non-blank row
// is the header: a group column, a category column and one column per month.
// A row whose category is empty or "total" carries the group totals.
//
// Files without a group column (the export layout) are read as a single group
// named by Upload.DefaultGroup. Columns the parser does not recognise, such as
// a yearly "Total", are ignored.
type TabularParser struct{}

type tabularLayout struct {
	group    int
	category int
	months   [12]int
}

type groupRows struct {
	series    []core.CategorySeries
	totals    core.MonthlyValues
	hasTotals bool
}

// ParseRows builds a ledger for u from rows. u.Content is not read.
func (TabularParser) ParseRows(ctx context.Context, u Upload, rows [][]string) (core.Ledger, error) {
	if err := ctx.Err(); err != nil {
		return core.Ledger{}, err
	}
	if u.EntityID == "" {
		return core.Ledger{}, ErrMissingEntityID
	}

	start := firstNonBlank(rows)
	if start < 0 {
		return core.Ledger{}, ErrNoData
	}
	layout, err := readHeader(rows[start])
	if err != nil {
		return core.Ledger{}, err
	}
	if layout.group < 0 && !u.DefaultGroup.Valid() {
		return core.Ledger{}, fmt.Errorf("%w: %w", ErrMissingColumn, errUnknownGroupColumn)
	}

	groups := map[core.GroupType]*groupRows{}
	dataRows := 0
	for i := start + 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		line := i + 1

		t := u.DefaultGroup
		if layout.group >= 0 {
			t, err = core.ParseGroupType(cell(row, layout.group))
			if err != nil {
				return core.Ledger{}, fmt.Errorf("%w: line %d: %w", ErrMalformedSheet, line, err)
			}
		}

		var values core.MonthlyValues
		for j, m := range core.Months {
			raw := cell(row, layout.months[j])
			if raw == "" || raw == "-" {
				continue
			}
			amount, err := core.ParseAmount(raw)
			if err != nil {
				return core.Ledger{}, fmt.Errorf("%w: line %d, %s: %w", ErrMalformedSheet, line, m.Label(), err)
			}
			values = values.With(m, amount)
		}

		g := groups[t]
		if g == nil {
			g = &groupRows{}
			groups[t] = g
		}
		name := cell(row, layout.category)
		if name == "" || strings.EqualFold(name, "total") {
			g.totals = values
			g.hasTotals = true
		} else {
			g.series = append(g.series, core.CategorySeries{Name: name, Values: values})
		}
		dataRows++
	}
	if dataRows == 0 {
		return core.Ledger{}, ErrNoData
	}

	l := core.Ledger{
		EntityID: u.EntityID,
		Name:     u.EntityName,
		Receitas: groups[core.Receitas].build(core.Receitas),
		Despesas: groups[core.Despesas].build(core.Despesas),
	}
	if groups[core.Saldos] != nil {
		l.Saldos = groups[core.Saldos].build(core.Saldos)
	} else {
		l.Saldos = core.NewTotalsGroup(core.Saldos, core.SaldoTotals(l.Receitas.Totals, l.Despesas.Totals))
	}

	if err := l.Validate(); err != nil {
		return core.Ledger{}, fmt.Errorf("%w: %w", ErrMalformedSheet, err)
	}
	return l, nil
}

// build keeps explicit totals so that a mismatch with the series is reported
// by validation instead of being silently recomputed.
func (g *groupRows) build(t core.GroupType) core.CategoryGroup {
	if g == nil {
		return core.CategoryGroup{Type: t}
	}
	out := core.NewCategoryGroup(t, g.series...)
	if g.hasTotals {
		out.Totals = g.totals
	}
	return out
}

func readHeader(header []string) (tabularLayout, error) {
	layout := tabularLayout{group: -1, category: -1}
	for i := range layout.months {
		layout.months[i] = -1
	}

	for i, raw := range header {
		h := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
		switch {
		case slices.Contains(groupHeaders, h):
			layout.group = i
		case slices.Contains(categoryHeaders, h):
			layout.category = i
		default:
			if m, err := core.ParseMonth(h); err == nil && layout.months[m-1] < 0 {
				layout.months[m-1] = i
			}
		}
	}

	if layout.category < 0 {
		return layout, fmt.Errorf("%w: category", ErrMissingColumn)
	}
	for i, col := range layout.months {
		if col < 0 {
			return layout, fmt.Errorf("%w: %s", ErrMissingColumn, core.Months[i].Label())
		}
	}
	return layout, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func firstNonBlank(rows [][]string) int {
	for i, row := range rows {
		if !isBlank(row) {
			return i
		}
	}
	return -1
}
