package frame

import (
	"fmt"
)

// Explode expands list-valued columns into one row per element. All named
// columns must hold lists of equal length on each row. Other columns and the
// index label are repeated. Rows whose lists are empty are dropped.
//
// The returned slice maps every output row to its source row; source rows stay
// contiguous and in their original order.
func (t *Table) Explode(names ...string) (*Table, []int, error) {
	if len(names) == 0 {
		return t, nil, nil
	}
	if err := t.Require(names...); err != nil {
		return nil, nil, err
	}

	lists := make([][][]any, len(names))
	for j, n := range names {
		lists[j] = make([][]any, t.Len())
		for i, v := range t.cols[n] {
			items, err := listItems(v)
			if err != nil {
				return nil, nil, fmt.Errorf("explode %q row %d: %w", n, i, err)
			}
			lists[j][i] = items
		}
	}

	rows := make([]int, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		want := len(lists[0][i])
		for j := 1; j < len(names); j++ {
			if len(lists[j][i]) != want {
				return nil, nil, fmt.Errorf("%w: explode row %d: %q has %d items, %q has %d",
					ErrLengthMismatch, i, names[0], want, names[j], len(lists[j][i]))
			}
		}
		for k := 0; k < want; k++ {
			rows = append(rows, i)
		}
	}

	out := t.Take(rows)
	for j, n := range names {
		flat := make([]any, 0, len(rows))
		for i := 0; i < t.Len(); i++ {
			flat = append(flat, lists[j][i]...)
		}
		out.cols[n] = flat
	}
	return out, rows, nil
}

func listItems(v any) ([]any, error) {
	switch l := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return l, nil
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, nil
	case []int:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, nil
	case []float64:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of type %T is not a list", v)
	}
}
