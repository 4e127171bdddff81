package analysis

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"balancete/internal/core"
)

// Comparison limits.
const (
	MinCompared = 2
	MaxCompared = 4
)

var (
	ErrInsufficientLedgers = errors.New("comparison needs at least two ledgers")
	ErrTooManyLedgers      = errors.New("comparison accepts at most four ledgers")
)

// EntityRef identifies a compared ledger in column order.
type EntityRef struct {
	EntityID string `json:"entity_id"`
	Name     string `json:"name"`
}

// ComparisonRow holds one month's group total for every compared ledger.
type ComparisonRow struct {
	Month  core.Month        `json:"month"`
	Values []decimal.Decimal `json:"values"`
}

// MonthDelta is the difference of one month between a ledger and the baseline.
type MonthDelta struct {
	Month      core.Month      `json:"month"`
	Difference decimal.Decimal `json:"difference"`
	Percent    decimal.Decimal `json:"percent"`
}

// Delta compares one ledger (B) against the baseline (A) over the retained months.
type Delta struct {
	Baseline        EntityRef       `json:"baseline"`
	Other           EntityRef       `json:"other"`
	Months          []MonthDelta    `json:"months"`
	TotalDifference decimal.Decimal `json:"total_difference"`
	AveragePercent  decimal.Decimal `json:"average_percent"`
}

// Comparison is the month-by-month view of 2 to 4 ledgers for one group.
// Deltas[i] compares ledger i+1 against ledger 0.
type Comparison struct {
	Group    core.GroupType  `json:"group"`
	Entities []EntityRef     `json:"entities"`
	Rows     []ComparisonRow `json:"rows"`
	Deltas   []Delta         `json:"deltas"`
}

// Primary returns the delta of the first two ledgers.
func (c Comparison) Primary() Delta {
	if len(c.Deltas) == 0 {
		return Delta{}
	}
	return c.Deltas[0]
}

// Compare builds the comparison of ledgers for group t. The first ledger is the baseline.
// Months where every ledger is zero are dropped from rows and deltas alike.
func Compare(ledgers []core.Ledger, t core.GroupType) (Comparison, error) {
	if len(ledgers) < MinCompared {
		return Comparison{}, ErrInsufficientLedgers
	}
	if len(ledgers) > MaxCompared {
		return Comparison{}, fmt.Errorf("%w: got %d", ErrTooManyLedgers, len(ledgers))
	}
	if !t.Valid() {
		return Comparison{}, fmt.Errorf("%w: %q", core.ErrInvalidGroup, t)
	}

	c := Comparison{
		Group:    t,
		Entities: make([]EntityRef, len(ledgers)),
		Rows:     []ComparisonRow{},
	}
	totals := make([]core.MonthlyValues, len(ledgers))
	for i, l := range ledgers {
		c.Entities[i] = EntityRef{EntityID: l.EntityID, Name: l.Name}
		totals[i] = l.Group(t).Totals
	}

	for _, m := range core.Months {
		values := make([]decimal.Decimal, len(ledgers))
		allZero := true
		for i := range ledgers {
			values[i] = totals[i].Get(m)
			if !values[i].IsZero() {
				allZero = false
			}
		}
		if allZero {
			continue
		}
		c.Rows = append(c.Rows, ComparisonRow{Month: m, Values: values})
	}

	c.Deltas = make([]Delta, 0, len(ledgers)-1)
	for i := 1; i < len(ledgers); i++ {
		c.Deltas = append(c.Deltas, delta(c, i))
	}
	return c, nil
}

func delta(c Comparison, other int) Delta {
	d := Delta{
		Baseline:        c.Entities[0],
		Other:           c.Entities[other],
		Months:          make([]MonthDelta, 0, len(c.Rows)),
		TotalDifference: decimal.Zero,
		AveragePercent:  decimal.Zero,
	}
	percentSum := decimal.Zero
	for _, row := range c.Rows {
		a, b := row.Values[0], row.Values[other]
		diff := b.Sub(a)
		pct := percentChange(a, b, true)
		d.Months = append(d.Months, MonthDelta{Month: row.Month, Difference: diff, Percent: pct})
		d.TotalDifference = d.TotalDifference.Add(diff)
		percentSum = percentSum.Add(pct)
	}
	if len(d.Months) > 0 {
		d.AveragePercent = percentSum.Div(decimal.NewFromInt(int64(len(d.Months))))
	}
	return d
}
