package ingest

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"balancete/internal/core"
)

// fixedDataMarkers select the demonstration ledger when found in a file name.
var fixedDataMarkers = []string{"quali", "bonfim"}

// SyntheticParser stands in for workbook parsing. It ignores the file content
// and generates a plausible ledger from its random source, so a fixed seed
// always yields the same ledgers in the same order.
type SyntheticParser struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

var _ SpreadsheetParser = (*SyntheticParser)(nil)

func NewSyntheticParser(seed uint64) *SyntheticParser {
	return &SyntheticParser{rnd: rand.New(rand.NewPCG(seed, seed))}
}

// Parse implements SpreadsheetParser
func (p *SyntheticParser) Parse(ctx context.Context, u Upload) (core.Ledger, error) {
	if err := checkUpload(ctx, u); err != nil {
		return core.Ledger{}, err
	}

	name := strings.ToLower(u.FileName)
	for _, marker := range fixedDataMarkers {
		if strings.Contains(name, marker) {
			return core.DemoLedger(u.EntityID, u.EntityName), nil
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generate(u.EntityID, u.EntityName), nil
}

func (p *SyntheticParser) generate(entityID, name string) core.Ledger {
	var receitas, despesas core.MonthlyValues
	base := 10000 + p.rnd.Int64N(5000)
	for _, m := range core.Months {
		r := base + p.rnd.Int64N(2000)
		d := r*7/10 + p.rnd.Int64N(1000)
		receitas = receitas.With(m, decimal.NewFromInt(r))
		despesas = despesas.With(m, decimal.NewFromInt(d))
	}

	rec := core.NewCategoryGroup(core.Receitas, core.SplitMonthly(receitas, []core.Share{
		{Name: "Taxa de Condomínio", Weight: 80000 + p.rnd.Int64N(50000)},
		{Name: "Multas e Juros", Weight: 5000 + p.rnd.Int64N(10000)},
		{Name: "Outras Receitas", Weight: 2000 + p.rnd.Int64N(5000)},
	})...)
	desp := core.NewCategoryGroup(core.Despesas, core.SplitMonthly(despesas, []core.Share{
		{Name: "Manutenção", Weight: 40000 + p.rnd.Int64N(20000)},
		{Name: "Limpeza", Weight: 15000 + p.rnd.Int64N(10000)},
		{Name: "Segurança", Weight: 10000 + p.rnd.Int64N(15000)},
		{Name: "Administração", Weight: 8000 + p.rnd.Int64N(8000)},
		{Name: "Outras Despesas", Weight: 3000 + p.rnd.Int64N(5000)},
	})...)

	return core.Ledger{
		EntityID: entityID,
		Name:     name,
		Receitas: rec,
		Despesas: desp,
		Saldos:   core.NewTotalsGroup(core.Saldos, core.SaldoTotals(rec.Totals, desp.Totals)),
	}
}
