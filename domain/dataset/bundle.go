package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"socialstats/domain/core"
)

// Dataset is an immutable, column-oriented table. The column set is fixed per
// instance; transformations return a new Dataset that shares untouched columns.
type Dataset struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// Record is one row keyed by column name
type Record map[string]Value

// New validates and assembles a dataset from columns of equal length
func New(columns ...*Column) (*Dataset, error) {
	d := &Dataset{index: make(map[string]int, len(columns))}
	for i, col := range columns {
		if col == nil {
			return nil, core.NewValidationError("columns", fmt.Sprintf("column %d is nil", i))
		}
		if strings.TrimSpace(col.Name) == "" {
			return nil, core.NewValidationError("columns", fmt.Sprintf("column %d has no name", i))
		}
		if _, dup := d.index[col.Name]; dup {
			return nil, core.NewValidationError("columns", fmt.Sprintf("duplicate column %q", col.Name))
		}
		if i == 0 {
			d.rows = col.Len()
		} else if col.Len() != d.rows {
			return nil, core.NewValidationError("columns",
				fmt.Sprintf("column %q has %d rows, expected %d", col.Name, col.Len(), d.rows))
		}
		d.index[col.Name] = i
		d.columns = append(d.columns, col)
	}
	return d, nil
}

// MustNew is New for fixtures; it panics on invalid input
func MustNew(columns ...*Column) *Dataset {
	d, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return d
}

// Len returns the number of rows
func (d *Dataset) Len() int { return d.rows }

// Width returns the number of columns
func (d *Dataset) Width() int { return len(d.columns) }

// Names returns the column names in order
func (d *Dataset) Names() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns the columns in order
func (d *Dataset) Columns() []*Column {
	out := make([]*Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// Column looks up a column by name
func (d *Dataset) Column(name string) (*Column, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	return d.columns[i], true
}

// Has reports whether the column exists
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Type returns the statistical type of a column
func (d *Dataset) Type(name string) (StatisticalType, bool) {
	c, ok := d.Column(name)
	if !ok {
		return "", false
	}
	return c.Type, true
}

// Numeric returns a numeric column with NaN for missing cells.
// ok is false when the column is absent or not numeric.
func (d *Dataset) Numeric(name string) ([]float64, bool) {
	c, ok := d.Column(name)
	if !ok || c.Type != TypeNumeric {
		return nil, false
	}
	return c.Floats(), true
}

// Labels returns any column rendered as labels with "" for missing cells
func (d *Dataset) Labels(name string) ([]string, bool) {
	c, ok := d.Column(name)
	if !ok {
		return nil, false
	}
	return c.Labels(), true
}

// Row returns row i as a record
func (d *Dataset) Row(i int) Record {
	rec := make(Record, len(d.columns))
	for _, c := range d.columns {
		rec[c.Name] = c.values[i]
	}
	return rec
}

// WithColumn returns a dataset with col appended, or replacing the column of
// the same name in place. The receiver is not modified.
func (d *Dataset) WithColumn(col *Column) (*Dataset, error) {
	if d.Width() > 0 && col.Len() != d.rows {
		return nil, core.NewValidationError(col.Name,
			fmt.Sprintf("column has %d rows, dataset has %d", col.Len(), d.rows))
	}
	cols := d.Columns()
	if i, ok := d.index[col.Name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return New(cols...)
}

// Select returns a dataset restricted to the given row indices, in order
func (d *Dataset) Select(rows []int) *Dataset {
	cols := make([]*Column, len(d.columns))
	for j, c := range d.columns {
		vals := make([]Value, len(rows))
		for k, r := range rows {
			vals[k] = c.values[r]
		}
		cols[j] = &Column{Name: c.Name, Type: c.Type, values: vals}
	}
	out := &Dataset{columns: cols, index: make(map[string]int, len(cols)), rows: len(rows)}
	for j, c := range cols {
		out.index[c.Name] = j
	}
	return out
}

// PairwiseComplete returns the rows where both numeric columns are present.
// rows holds the original row indices.
func (d *Dataset) PairwiseComplete(a, b string) (x, y []float64, rows []int, ok bool) {
	xa, okA := d.Numeric(a)
	yb, okB := d.Numeric(b)
	if !okA || !okB {
		return nil, nil, nil, false
	}
	for i := range xa {
		if math.IsNaN(xa[i]) || math.IsNaN(yb[i]) {
			continue
		}
		x = append(x, xa[i])
		y = append(y, yb[i])
		rows = append(rows, i)
	}
	return x, y, rows, true
}

// NumericMatrix returns row-major data for rows that are complete on every
// named numeric column. ok is false if a column is absent or not numeric.
func (d *Dataset) NumericMatrix(names []string) (data [][]float64, rows []int, ok bool) {
	cols := make([][]float64, len(names))
	for j, name := range names {
		vals, isNum := d.Numeric(name)
		if !isNum {
			return nil, nil, false
		}
		cols[j] = vals
	}
	for i := 0; i < d.rows; i++ {
		row := make([]float64, len(names))
		complete := true
		for j := range names {
			v := cols[j][i]
			if math.IsNaN(v) {
				complete = false
				break
			}
			row[j] = v
		}
		if complete {
			data = append(data, row)
			rows = append(rows, i)
		}
	}
	return data, rows, true
}

// MissingByColumn returns the number of missing cells per column
func (d *Dataset) MissingByColumn() map[string]int {
	out := make(map[string]int, len(d.columns))
	for _, c := range d.columns {
		out[c.Name] = c.MissingCount()
	}
	return out
}

// MissingCells returns the total number of missing cells
func (d *Dataset) MissingCells() int {
	n := 0
	for _, c := range d.columns {
		n += c.MissingCount()
	}
	return n
}

// TotalCells returns rows × columns
func (d *Dataset) TotalCells() int {
	return d.rows * len(d.columns)
}

// Fingerprint hashes column names, types and cell labels so identical
// snapshots hash identically regardless of how they were built
func (d *Dataset) Fingerprint() core.Hash {
	names := d.Names()
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		c, _ := d.Column(name)
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(string(c.Type))
		b.WriteByte('\n')
		for _, l := range c.Labels() {
			b.WriteString(l)
			b.WriteByte('|')
		}
		b.WriteByte('\n')
	}
	return core.NewHash([]byte(b.String()))
}
