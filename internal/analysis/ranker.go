package analysis

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"balancete/internal/core"
)

// Presentation defaults. The engine itself never caps a ranking.
const (
	DefaultTopCategories = 10
	DefaultPieSlices     = 8
)

// RankedCategory is a category name with its yearly total.
type RankedCategory struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// RankCategories ranks the group's series by yearly total, descending.
// Categories with a total <= 0 are excluded; ties keep insertion order.
func RankCategories(g core.CategoryGroup) []RankedCategory {
	ranked := make([]RankedCategory, 0, len(g.Series))
	for _, s := range g.Series {
		total := s.Total()
		if !total.IsPositive() {
			continue
		}
		ranked = append(ranked, RankedCategory{Name: s.Name, Total: total})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total.GreaterThan(ranked[j].Total)
	})
	return ranked
}

// TopN returns the first n entries. n <= 0 yields an empty slice.
func TopN(ranked []RankedCategory, n int) []RankedCategory {
	if n <= 0 {
		return []RankedCategory{}
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return append(make([]RankedCategory, 0, n), ranked[:n]...)
}

// RankTop is TopN(RankCategories(g), n).
func RankTop(g core.CategoryGroup, n int) []RankedCategory {
	return TopN(RankCategories(g), n)
}

// TableFilterKind selects which rows CategoryTable keeps.
type TableFilterKind string

const (
	FilterAll      TableFilterKind = "all"
	FilterPositive TableFilterKind = "positive"
	FilterZero     TableFilterKind = "zero"
)

// ParseTableFilterKind maps "" to FilterAll; unknown values are rejected.
func ParseTableFilterKind(s string) (TableFilterKind, bool) {
	switch k := TableFilterKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return FilterAll, true
	case FilterAll, FilterPositive, FilterZero:
		return k, true
	default:
		return "", false
	}
}

type TableFilter struct {
	Kind   TableFilterKind
	Search string
}

// CategoryRow is one row of the category data table or of a CSV export.
type CategoryRow struct {
	Name   string             `json:"name"`
	Total  decimal.Decimal    `json:"total"`
	Values core.MonthlyValues `json:"values"`
}

// CategoryTable lists every series of g that passes f, sorted by total descending.
func CategoryTable(g core.CategoryGroup, f TableFilter) []CategoryRow {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	rows := make([]CategoryRow, 0, len(g.Series))
	for _, s := range g.Series {
		total := s.Total()
		switch f.Kind {
		case FilterPositive:
			if !total.IsPositive() {
				continue
			}
		case FilterZero:
			if !total.IsZero() {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(s.Name), search) {
			continue
		}
		rows = append(rows, CategoryRow{Name: s.Name, Total: total, Values: s.Values})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total.GreaterThan(rows[j].Total)
	})
	return rows
}
