package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"balancete/internal/core"
)

var (
	ErrMalformedExport = errors.New("malformed export")

	whitespaceRun = regexp.MustCompile(`\s+`)
)

// ExportHeader returns the export column names: Category, Total and the 12 month labels.
func ExportHeader() []string {
	header := make([]string, 0, 2+len(core.Months))
	header = append(header, "Category", "Total")
	for _, m := range core.Months {
		header = append(header, m.Label())
	}
	return header
}

// WriteCSV writes one row per series of g with a positive total, in ranked order.
// Category names are always quoted; amounts carry exactly two decimals. Every
// record, the last included, ends with a newline.
func WriteCSV(w io.Writer, g core.CategoryGroup) error {
	rows := CategoryTable(g, TableFilter{Kind: FilterPositive})

	var b strings.Builder
	b.WriteString(strings.Join(ExportHeader(), ","))
	b.WriteByte('\n')
	for _, row := range rows {
		fields := make([]string, 0, 2+len(core.Months))
		fields = append(fields, quote(row.Name), core.FormatAmount(row.Total))
		for _, m := range core.Months {
			fields = append(fields, core.FormatAmount(row.Values.Get(m)))
		}
		b.WriteString(strings.Join(fields, ","))
		b.WriteByte('\n')
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ExportFileName names the download: "<group>_<entity name>.csv" with
// whitespace runs replaced by "_".
func ExportFileName(t core.GroupType, entityName string) string {
	name := whitespaceRun.ReplaceAllString(strings.TrimSpace(entityName), "_")
	return fmt.Sprintf("%s_%s.csv", t, name)
}

// ReadCSV parses a file produced by WriteCSV.
func ReadCSV(r io.Reader) ([]CategoryRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2 + len(core.Months)

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", ErrMalformedExport)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), "Category") {
		return nil, fmt.Errorf("%w: unexpected header %q", ErrMalformedExport, header[0])
	}

	var rows []CategoryRow
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedExport, err)
		}
		row := CategoryRow{Name: rec[0]}
		if row.Total, err = core.ParseAmount(rec[1]); err != nil {
			return nil, fmt.Errorf("%w: total of %q: %v", ErrMalformedExport, rec[0], err)
		}
		for i, m := range core.Months {
			v, err := core.ParseAmount(rec[2+i])
			if err != nil {
				return nil, fmt.Errorf("%w: %s of %q: %v", ErrMalformedExport, m, rec[0], err)
			}
			row.Values = row.Values.With(m, v)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
