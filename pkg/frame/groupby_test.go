package frame

import (
	"math"
	"reflect"
	"testing"
)

func TestGroupBy_SumSortedAndDropsText(t *testing.T) {
	tb, _ := New(
		Column{Name: "val", Values: []any{1, 2, 5}},
		Column{Name: "name", Values: []any{"a", "b", "c"}},
	)
	g, err := tb.GroupBy("h3_08", []any{"881f1d4817fffff", "881f1d4817fffff", "881f1d4811fffff"})
	if err != nil {
		t.Fatalf("GroupBy: %v", err)
	}
	if g.Len() != 2 {
		t.Fatalf("groups=%d want 2", g.Len())
	}
	out, err := g.Agg(Sum)
	if err != nil {
		t.Fatalf("Agg: %v", err)
	}
	if got := out.Columns(); !reflect.DeepEqual(got, []string{"val"}) {
		t.Fatalf("columns=%v (text column must be dropped)", got)
	}
	ix := out.Index()
	if ix.Name != "h3_08" || !reflect.DeepEqual(ix.Labels, []any{"881f1d4811fffff", "881f1d4817fffff"}) {
		t.Fatalf("index=%+v", ix)
	}
	vals, _ := out.Column("val")
	if !reflect.DeepEqual(vals, []any{5.0, 3.0}) {
		t.Fatalf("val=%v", vals)
	}
}

func TestGroupBy_ExcludeAndCustomReducer(t *testing.T) {
	tb, _ := New(
		Column{Name: "lat", Values: []any{1.0, 2.0}},
		Column{Name: "tag", Values: []any{"x", "y"}},
	)
	g, _ := tb.GroupBy("k", []any{"a", "a"})
	first := ReduceFunc("first", func(v []any) (any, bool) { return v[0], true })
	out, err := g.Agg(first, "lat")
	if err != nil {
		t.Fatalf("Agg: %v", err)
	}
	if got := out.Columns(); !reflect.DeepEqual(got, []string{"tag"}) {
		t.Fatalf("columns=%v", got)
	}
	if out.Value(0, "tag") != "x" {
		t.Fatalf("tag=%v", out.Value(0, "tag"))
	}
}

func TestBuiltinReducers(t *testing.T) {
	vals := []any{1, 2.0, nil, int64(6), float32(3)}
	cases := []struct {
		r    Reducer
		want any
	}{
		{Sum, 12.0},
		{Mean, 3.0},
		{Min, 1.0},
		{Max, 6.0},
		{Median, 2.5},
		{Count, 4},
	}
	for _, c := range cases {
		got, ok := c.r.Reduce(vals)
		if !ok {
			t.Fatalf("%s: rejected numeric values", c.r.Name())
		}
		if got != c.want {
			t.Fatalf("%s=%v want %v", c.r.Name(), got, c.want)
		}
	}

	if _, ok := Sum.Reduce([]any{"x"}); ok {
		t.Fatalf("sum must reject text")
	}
	if v, _ := Sum.Reduce([]any{nil}); v != 0.0 {
		t.Fatalf("sum of empty group=%v want 0", v)
	}
	if v, _ := Mean.Reduce([]any{nil}); !math.IsNaN(v.(float64)) {
		t.Fatalf("mean of empty group=%v want NaN", v)
	}
}

func TestReducerByName(t *testing.T) {
	for _, n := range []string{"sum", "MEAN", "min", "max", "median", "std", "count", ""} {
		if _, err := ReducerByName(n); err != nil {
			t.Fatalf("ReducerByName(%q): %v", n, err)
		}
	}
	if _, err := ReducerByName("mode"); err == nil {
		t.Fatalf("expected error for unknown reducer")
	}
}
