package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"socialstats/domain/core"

	"github.com/montanaflynn/stats"
)

// MissingPolicy selects how missing cells are handled before analysis
type MissingPolicy string

const (
	MissingKeep       MissingPolicy = "keep"
	MissingDrop       MissingPolicy = "drop"
	MissingFillMean   MissingPolicy = "fill_mean"
	MissingFillMedian MissingPolicy = "fill_median"
	MissingFillZero   MissingPolicy = "fill_zero"
)

// ParseMissingPolicy validates a policy name
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch p := MissingPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case MissingKeep, MissingDrop, MissingFillMean, MissingFillMedian, MissingFillZero:
		return p, nil
	case "":
		return MissingKeep, nil
	default:
		return "", core.NewValidationError("missing_policy", fmt.Sprintf("unknown policy %q", s))
	}
}

// CompleteRows returns the indices of rows with no missing cell in the named
// columns, or in every column when names is empty
func (d *Dataset) CompleteRows(names ...string) []int {
	cols := d.columns
	if len(names) > 0 {
		cols = make([]*Column, 0, len(names))
		for _, name := range names {
			c, ok := d.Column(name)
			if !ok {
				return nil
			}
			cols = append(cols, c)
		}
	}

	var rows []int
	for i := 0; i < d.rows; i++ {
		complete := true
		for _, c := range cols {
			if !c.values[i].Valid {
				complete = false
				break
			}
		}
		if complete {
			rows = append(rows, i)
		}
	}
	return rows
}

// DropIncomplete returns the rows that have no missing cell at all
func (d *Dataset) DropIncomplete() *Dataset {
	return d.Select(d.CompleteRows())
}

// Deduplicate drops rows whose rendered cells equal an earlier row.
// The second return value is the number of rows removed.
func (d *Dataset) Deduplicate() (*Dataset, int) {
	labels := make([][]string, len(d.columns))
	for j, c := range d.columns {
		labels[j] = c.Labels()
	}

	seenRows := make(map[string]bool, d.rows)
	keep := make([]int, 0, d.rows)
	var b strings.Builder
	for i := 0; i < d.rows; i++ {
		// Cells are length-prefixed so a label containing a separator cannot collide
		b.Reset()
		for j := range d.columns {
			b.WriteString(strconv.Itoa(len(labels[j][i])))
			b.WriteByte(':')
			b.WriteString(labels[j][i])
		}
		key := b.String()
		if seenRows[key] {
			continue
		}
		seenRows[key] = true
		keep = append(keep, i)
	}
	if len(keep) == d.rows {
		return d, 0
	}
	return d.Select(keep), d.rows - len(keep)
}

// FillMissing applies policy. Fill policies only touch numeric columns;
// categorical and timestamp gaps stay missing.
func (d *Dataset) FillMissing(policy MissingPolicy) *Dataset {
	switch policy {
	case MissingDrop:
		return d.DropIncomplete()
	case MissingFillMean, MissingFillMedian, MissingFillZero:
	default:
		return d
	}

	cols := d.Columns()
	for j, c := range cols {
		if c.Type != TypeNumeric || c.MissingCount() == 0 {
			continue
		}
		present := make([]float64, 0, c.Len())
		for _, v := range c.values {
			if v.Valid {
				present = append(present, v.Num)
			}
		}

		fill := 0.0
		if len(present) > 0 {
			switch policy {
			case MissingFillMean:
				fill, _ = stats.Mean(present)
			case MissingFillMedian:
				fill, _ = stats.Median(present)
			}
		}

		vals := make([]Value, c.Len())
		for i, v := range c.values {
			if v.Valid {
				vals[i] = v
			} else {
				vals[i] = Number(fill)
			}
		}
		cols[j] = NewColumn(c.Name, c.Type, vals)
	}
	return MustNew(cols...)
}
