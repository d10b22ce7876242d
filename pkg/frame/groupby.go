package frame

import (
	"fmt"
	"slices"
)

// Groups is the result of Table.GroupBy.
type Groups struct {
	t      *Table
	name   string
	order  []string
	labels map[string]any
	rows   map[string][]int
}

// GroupBy partitions the rows of t by keys (one key per row). The group labels
// become the index of the aggregated table, named name, in ascending order of
// their string form.
func (t *Table) GroupBy(name string, keys []any) (*Groups, error) {
	if len(keys) != t.Len() {
		return nil, fmt.Errorf("%w: %d group keys for %d rows", ErrLengthMismatch, len(keys), t.Len())
	}
	g := &Groups{
		t:      t,
		name:   name,
		labels: make(map[string]any),
		rows:   make(map[string][]int),
	}
	for i, k := range keys {
		s := keyString(k)
		if _, ok := g.rows[s]; !ok {
			g.order = append(g.order, s)
			g.labels[s] = k
		}
		g.rows[s] = append(g.rows[s], i)
	}
	slices.Sort(g.order)
	return g, nil
}

func (g *Groups) Len() int { return len(g.order) }

// Agg reduces every column except the excluded ones. Columns the reducer
// rejects for any group are dropped.
func (g *Groups) Agg(r Reducer, exclude ...string) (*Table, error) {
	if r == nil {
		r = Sum
	}
	labels := make([]any, len(g.order))
	for i, k := range g.order {
		labels[i] = g.labels[k]
	}
	out := &Table{
		index: Index{Name: g.name, Labels: labels},
		cols:  make(map[string][]any),
	}

	for _, col := range g.t.names {
		if slices.Contains(exclude, col) {
			continue
		}
		src := g.t.cols[col]
		vals := make([]any, len(g.order))
		keep := true
		for i, k := range g.order {
			rows := g.rows[k]
			in := make([]any, len(rows))
			for j, row := range rows {
				in[j] = src[row]
			}
			v, ok := r.Reduce(in)
			if !ok {
				keep = false
				break
			}
			vals[i] = v
		}
		if !keep {
			continue
		}
		out.names = append(out.names, col)
		out.cols[col] = vals
	}
	return out, nil
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}
