package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Receitas GroupType = "receitas"
	Despesas GroupType = "despesas"
	Saldos   GroupType = "saldos"
)

type (
	// GroupType selects one of the three category groups of a ledger.
	GroupType string

	// CategorySeries is one named sub-category with its 12 monthly amounts.
	CategorySeries struct {
		Name   string        `json:"name"`
		Values MonthlyValues `json:"values"`
	}

	// CategoryGroup is the monthly aggregate of a group plus its member series.
	CategoryGroup struct {
		Type   GroupType        `json:"type"`
		Totals MonthlyValues    `json:"totals"`
		Series []CategorySeries `json:"series,omitempty"`
	}

	// Ledger is one entity's full-year balancete.
	Ledger struct {
		EntityID string        `json:"entity_id"`
		Name     string        `json:"name"`
		Receitas CategoryGroup `json:"receitas"`
		Despesas CategoryGroup `json:"despesas"`
		Saldos   CategoryGroup `json:"saldos"`
	}

	// Entity is a client registered in the dashboard.
	Entity struct {
		ID        string    `json:"id"`
		Name      string    `json:"nome"`
		Company   string    `json:"empresa"`
		Period    string    `json:"periodo"`
		CreatedAt time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidMonth       = errors.New("invalid month")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidGroup       = errors.New("invalid category group")
	ErrNegativeAmount     = errors.New("negative amount")
	ErrEmptyCategory      = errors.New("empty category name")
	ErrDuplicateCategory  = errors.New("duplicate category")
	ErrInconsistentTotals = errors.New("group totals do not match the sum of its categories")
	ErrEmptyEntityID      = errors.New("empty entity id")
	ErrEmptyName          = errors.New("empty name")
)

// GroupTypes returns the three groups in display order.
func GroupTypes() []GroupType {
	return []GroupType{Receitas, Despesas, Saldos}
}

// Valid reports whether t names a known group.
func (t GroupType) Valid() bool {
	switch t {
	case Receitas, Despesas, Saldos:
		return true
	default:
		return false
	}
}

func (t GroupType) String() string {
	return string(t)
}

// ParseGroupType normalizes case and surrounding spaces.
func ParseGroupType(s string) (GroupType, error) {
	t := GroupType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGroup, s)
	}
	return t, nil
}

// NewCategorySeries builds a series from a sparse month map; absent months are zero.
func NewCategorySeries(name string, values map[Month]decimal.Decimal) CategorySeries {
	return CategorySeries{Name: strings.TrimSpace(name), Values: MonthlyValuesFrom(values)}
}

// Total is the series' yearly total.
func (s CategorySeries) Total() decimal.Decimal {
	return s.Values.Sum()
}

// NewCategoryGroup builds a group whose monthly totals are the sum of its series.
func NewCategoryGroup(t GroupType, series ...CategorySeries) CategoryGroup {
	g := CategoryGroup{Type: t, Series: append([]CategorySeries(nil), series...)}
	for _, s := range g.Series {
		g.Totals = g.Totals.Add(s.Values)
	}
	return g
}

// NewTotalsGroup builds a group that only carries monthly aggregates.
func NewTotalsGroup(t GroupType, totals MonthlyValues) CategoryGroup {
	return CategoryGroup{Type: t, Totals: totals}
}

// SeriesCount returns the number of named categories in the group.
func (g CategoryGroup) SeriesCount() int {
	return len(g.Series)
}

// Validate checks the construction invariants of a group.
func (g CategoryGroup) Validate() error {
	if !g.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidGroup, g.Type)
	}
	allowNegative := g.Type == Saldos

	seen := make(map[string]struct{}, len(g.Series))
	for _, s := range g.Series {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("%s: %w", g.Type, ErrEmptyCategory)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%s: %w: %q", g.Type, ErrDuplicateCategory, name)
		}
		seen[name] = struct{}{}
		if allowNegative {
			continue
		}
		for _, m := range Months {
			if s.Values.Get(m).IsNegative() {
				return fmt.Errorf("%s/%s/%s: %w", g.Type, name, m, ErrNegativeAmount)
			}
		}
	}

	if len(g.Series) == 0 {
		if !allowNegative {
			for _, m := range Months {
				if g.Totals.Get(m).IsNegative() {
					return fmt.Errorf("%s/%s: %w", g.Type, m, ErrNegativeAmount)
				}
			}
		}
		return nil
	}

	var sum MonthlyValues
	for _, s := range g.Series {
		sum = sum.Add(s.Values)
	}
	for _, m := range Months {
		if !g.Totals.Get(m).Equal(sum.Get(m)) {
			return fmt.Errorf("%s/%s: %w (total %s, categories %s)", g.Type, m, ErrInconsistentTotals, g.Totals.Get(m), sum.Get(m))
		}
	}
	return nil
}

func (g CategoryGroup) clone() CategoryGroup {
	g.Series = append([]CategorySeries(nil), g.Series...)
	return g
}

// Group returns the group for t. Unknown selectors yield an empty group.
func (l Ledger) Group(t GroupType) CategoryGroup {
	switch t {
	case Receitas:
		return l.Receitas
	case Despesas:
		return l.Despesas
	case Saldos:
		return l.Saldos
	default:
		return CategoryGroup{Type: t}
	}
}

// Clone deep-copies the series so the copy shares no backing arrays with l.
func (l Ledger) Clone() Ledger {
	l.Receitas = l.Receitas.clone()
	l.Despesas = l.Despesas.clone()
	l.Saldos = l.Saldos.clone()
	return l
}

func (l Ledger) Validate() error {
	if strings.TrimSpace(l.EntityID) == "" {
		return ErrEmptyEntityID
	}
	slots := []struct {
		want GroupType
		g    CategoryGroup
	}{
		{Receitas, l.Receitas},
		{Despesas, l.Despesas},
		{Saldos, l.Saldos},
	}
	for _, slot := range slots {
		if slot.g.Type != slot.want {
			return fmt.Errorf("%w: %q in %s slot", ErrInvalidGroup, slot.g.Type, slot.want)
		}
		if err := slot.g.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e Entity) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyEntityID
	}
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	return nil
}
