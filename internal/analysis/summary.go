package analysis

import (
	"github.com/shopspring/decimal"

	"balancete/internal/core"
)

// Summary holds the headline figures of one ledger.
type Summary struct {
	EntityID           string          `json:"entity_id"`
	Name               string          `json:"name"`
	ReceitasTotal      decimal.Decimal `json:"receitas_total"`
	DespesasTotal      decimal.Decimal `json:"despesas_total"`
	SaldoTotal         decimal.Decimal `json:"saldo_total"`
	ReceitasAverage    decimal.Decimal `json:"receitas_media"`
	DespesasAverage    decimal.Decimal `json:"despesas_media"`
	ReceitasVariation  decimal.Decimal `json:"receitas_variacao"`
	DespesasVariation  decimal.Decimal `json:"despesas_variacao"`
	ReceitasCategories int             `json:"receitas_categorias"`
	DespesasCategories int             `json:"despesas_categorias"`
	CategoryCount      int             `json:"total_categorias"`
}

// Summarize never fails; missing data degrades to zero. SaldoTotal is derived
// from receitas and despesas, never read from the saldos group.
func Summarize(l core.Ledger) Summary {
	receitas := YearlyTotal(l.Receitas)
	despesas := YearlyTotal(l.Despesas)
	return Summary{
		EntityID:           l.EntityID,
		Name:               l.Name,
		ReceitasTotal:      receitas,
		DespesasTotal:      despesas,
		SaldoTotal:         receitas.Sub(despesas),
		ReceitasAverage:    MonthlyAverage(l.Receitas),
		DespesasAverage:    MonthlyAverage(l.Despesas),
		ReceitasVariation:  LastMonthVariation(l.Receitas),
		DespesasVariation:  LastMonthVariation(l.Despesas),
		ReceitasCategories: l.Receitas.SeriesCount(),
		DespesasCategories: l.Despesas.SeriesCount(),
		CategoryCount:      l.Receitas.SeriesCount() + l.Despesas.SeriesCount(),
	}
}

// TimelinePoint is one month of the receitas/despesas evolution chart.
type TimelinePoint struct {
	Month    core.Month      `json:"month"`
	Receitas decimal.Decimal `json:"receitas"`
	Despesas decimal.Decimal `json:"despesas"`
	Saldo    decimal.Decimal `json:"saldo"`
}

// Timeline returns the months with any receita or despesa, in calendar order.
func Timeline(l core.Ledger) []TimelinePoint {
	points := make([]TimelinePoint, 0, len(core.Months))
	for _, m := range core.Months {
		r := l.Receitas.Totals.Get(m)
		d := l.Despesas.Totals.Get(m)
		if !r.IsPositive() && !d.IsPositive() {
			continue
		}
		points = append(points, TimelinePoint{Month: m, Receitas: r, Despesas: d, Saldo: r.Sub(d)})
	}
	return points
}
