package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Month is a calendar month, 1 (Jan) through 12 (Dec).
type Month int

const (
	Jan Month = iota + 1
	Feb
	Mar
	Apr
	May
	Jun
	Jul
	Aug
	Sep
	Oct
	Nov
	Dec
)

// Months lists every month in calendar order. Iterate over this, never over map keys.
var Months = [12]Month{Jan, Feb, Mar, Apr, May, Jun, Jul, Aug, Sep, Oct, Nov, Dec}

var (
	monthKeys   = [12]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}
	monthLabels = [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"}
	monthNames  = [12]string{"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho", "Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro"}
)

// Valid reports whether m is one of the 12 calendar months.
func (m Month) Valid() bool {
	return m >= Jan && m <= Dec
}

// Key returns the short lowercase identifier ("jan", "fev", ...).
func (m Month) Key() string {
	if !m.Valid() {
		return ""
	}
	return monthKeys[m-1]
}

// Label returns the short display label ("Jan", "Fev", ...).
func (m Month) Label() string {
	if !m.Valid() {
		return ""
	}
	return monthLabels[m-1]
}

// Name returns the full Portuguese month name.
func (m Month) Name() string {
	if !m.Valid() {
		return ""
	}
	return monthNames[m-1]
}

func (m Month) String() string {
	return m.Key()
}

// MarshalText encodes the month as its key so JSON output reads "jan" instead of 1.
func (m Month) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, ErrInvalidMonth
	}
	return []byte(m.Key()), nil
}

// UnmarshalText accepts anything ParseMonth accepts.
func (m *Month) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMonth accepts a key ("mar"), label ("Mar"), full name ("Março" or "marco")
// or a number between 1 and 12.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidMonth
	}
	if n, err := strconv.Atoi(s); err == nil {
		m := Month(n)
		if !m.Valid() {
			return 0, ErrInvalidMonth
		}
		return m, nil
	}
	folded := foldAccents(strings.ToLower(s))
	for i := range Months {
		if folded == monthKeys[i] || folded == foldAccents(strings.ToLower(monthNames[i])) {
			return Months[i], nil
		}
	}
	return 0, ErrInvalidMonth
}

func foldAccents(s string) string {
	return strings.NewReplacer("ç", "c", "ã", "a", "á", "a", "â", "a", "é", "e", "ê", "e", "í", "i", "ó", "o", "ô", "o", "ú", "u").Replace(s)
}

// MonthlyValues holds one amount per month, indexed by Month-1.
// The zero value is a year of zeros, so an absent month reads as 0.
type MonthlyValues [12]decimal.Decimal

// Get returns the amount for m, or zero for an invalid month.
func (v MonthlyValues) Get(m Month) decimal.Decimal {
	if !m.Valid() {
		return decimal.Zero
	}
	return v[m-1]
}

// With returns a copy of v with m set to amount.
func (v MonthlyValues) With(m Month, amount decimal.Decimal) MonthlyValues {
	if m.Valid() {
		v[m-1] = amount
	}
	return v
}

// Sum adds the 12 months.
func (v MonthlyValues) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, m := range Months {
		total = total.Add(v.Get(m))
	}
	return total
}

// Add returns the month-by-month sum of v and o.
func (v MonthlyValues) Add(o MonthlyValues) MonthlyValues {
	var out MonthlyValues
	for _, m := range Months {
		out[m-1] = v.Get(m).Add(o.Get(m))
	}
	return out
}

// MonthlyValuesFrom builds a MonthlyValues from a sparse map. Invalid months are ignored.
func MonthlyValuesFrom(values map[Month]decimal.Decimal) MonthlyValues {
	var out MonthlyValues
	for m, v := range values {
		out = out.With(m, v)
	}
	return out
}
