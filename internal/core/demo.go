package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// DemoEntityID identifies the demonstration condominium shipped with the memory backend.
const DemoEntityID = "demo-client-1"

// DemoEntity returns the registry row of the demonstration condominium.
func DemoEntity(createdAt time.Time) Entity {
	return Entity{
		ID:        DemoEntityID,
		Name:      "Condomínio Quali Residencial Bonfim Paulista",
		Company:   "Empresa Administradora Demo",
		Period:    "Janeiro a Dezembro 2024",
		CreatedAt: createdAt,
	}
}

// DemoLedger returns the demonstration balancete for entityID.
//
// Monthly receitas run from 15000 to 18200 and despesas from 12000 to 15200;
// the monthly totals are spread over the categories by fixed weights.
func DemoLedger(entityID, name string) Ledger {
	receitas := monthlyFromInts(15000, 16000, 15500, 16500, 17000, 16800, 17200, 16900, 17500, 18000, 17800, 18200)
	despesas := monthlyFromInts(12000, 13000, 12500, 13500, 14000, 13800, 14200, 13900, 14500, 15000, 14800, 15200)

	rec := NewCategoryGroup(Receitas, SplitMonthly(receitas, []Share{
		{"Taxa de Condomínio", 85},
		{"Multas e Juros", 11},
		{"Outras Receitas", 4},
	})...)
	desp := NewCategoryGroup(Despesas, SplitMonthly(despesas, []Share{
		{"Manutenção", 50},
		{"Limpeza", 19},
		{"Segurança", 16},
		{"Administração", 9},
		{"Outras Despesas", 6},
	})...)

	return Ledger{
		EntityID: entityID,
		Name:     name,
		Receitas: rec,
		Despesas: desp,
		Saldos:   NewTotalsGroup(Saldos, SaldoTotals(rec.Totals, desp.Totals)),
	}
}

func monthlyFromInts(values ...int64) MonthlyValues {
	var out MonthlyValues
	for i, m := range Months {
		if i < len(values) {
			out = out.With(m, decimal.NewFromInt(values[i]))
		}
	}
	return out
}

// SaldoTotals returns receitas minus despesas, month by month.
func SaldoTotals(receitas, despesas MonthlyValues) MonthlyValues {
	var out MonthlyValues
	for _, m := range Months {
		out = out.With(m, receitas.Get(m).Sub(despesas.Get(m)))
	}
	return out
}

// Share names a category and its relative weight in a split.
type Share struct {
	Name   string
	Weight int64
}

// SplitMonthly divides each monthly total across shares in proportion to their
// weights, rounded to cents. The last share takes the rounding remainder so
// the categories always add up to the totals exactly.
func SplitMonthly(totals MonthlyValues, shares []Share) []CategorySeries {
	if len(shares) == 0 {
		return nil
	}
	var weightSum int64
	for _, sh := range shares {
		weightSum += sh.Weight
	}
	if weightSum <= 0 {
		weightSum = 1
	}
	sum := decimal.NewFromInt(weightSum)

	values := make([]MonthlyValues, len(shares))
	for _, m := range Months {
		total := totals.Get(m)
		assigned := decimal.Zero
		for j, sh := range shares {
			var v decimal.Decimal
			if j == len(shares)-1 {
				v = total.Sub(assigned)
			} else {
				v = total.Mul(decimal.NewFromInt(sh.Weight)).Div(sum).Round(2)
				assigned = assigned.Add(v)
			}
			values[j] = values[j].With(m, v)
		}
	}
	out := make([]CategorySeries, len(shares))
	for j, sh := range shares {
		out[j] = CategorySeries{Name: sh.Name, Values: values[j]}
	}
	return out
}
