// Package analysis implements the aggregation, ranking, comparison and export
// engine over core ledgers. Every function is pure and safe for concurrent use.
package analysis

import (
	"github.com/shopspring/decimal"

	"balancete/internal/core"
)

var hundred = decimal.NewFromInt(100)

// YearlyTotal sums the group's 12 monthly totals. Saldos may be negative.
func YearlyTotal(g core.CategoryGroup) decimal.Decimal {
	return g.Totals.Sum()
}

// MonthlyAverage is the mean over strictly positive months only; zero months
// are treated as missing data, not as a real zero. Returns 0 when no month is positive.
func MonthlyAverage(g core.CategoryGroup) decimal.Decimal {
	sum := decimal.Zero
	count := int64(0)
	for _, m := range core.Months {
		v := g.Totals.Get(m)
		if v.IsPositive() {
			sum = sum.Add(v)
			count++
		}
	}
	if count == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(count))
}

// LastMonthVariation is the percent change between the two most recent
// positive months. Intervening zero months are skipped.
func LastMonthVariation(g core.CategoryGroup) decimal.Decimal {
	var last, previous decimal.Decimal
	found := 0
	for i := len(core.Months) - 1; i >= 0 && found < 2; i-- {
		v := g.Totals.Get(core.Months[i])
		if !v.IsPositive() {
			continue
		}
		if found == 0 {
			last = v
		} else {
			previous = v
		}
		found++
	}
	return percentChange(previous, last, found == 2)
}

// percentChange returns (to-from)/from*100, or 0 when ok is false or from is zero.
func percentChange(from, to decimal.Decimal, ok bool) decimal.Decimal {
	if !ok || from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from).Mul(hundred)
}
