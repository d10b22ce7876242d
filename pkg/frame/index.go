package frame

import "fmt"

// Index holds the row labels of a table. Labels need not be unique.
type Index struct {
	Name   string
	Labels []any
}

// RangeIndex returns an unnamed index labelled 0..n-1.
func RangeIndex(n int) Index {
	labels := make([]any, n)
	for i := range labels {
		labels[i] = i
	}
	return Index{Labels: labels}
}

// StringIndex builds a named index from string labels.
func StringIndex(name string, labels ...string) Index {
	out := make([]any, len(labels))
	for i, l := range labels {
		out[i] = l
	}
	return Index{Name: name, Labels: out}
}

func (ix Index) Len() int { return len(ix.Labels) }

// Strings renders every label with fmt.Sprint.
func (ix Index) Strings() []string {
	out := make([]string, len(ix.Labels))
	for i, l := range ix.Labels {
		if s, ok := l.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprint(l)
	}
	return out
}

func (ix Index) take(rows []int) Index {
	labels := make([]any, len(rows))
	for i, r := range rows {
		labels[i] = ix.Labels[r]
	}
	return Index{Name: ix.Name, Labels: labels}
}
