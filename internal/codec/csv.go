// Package codec reads and writes frame tables as CSV, GeoJSON, WKT and
// shapefiles.
package codec

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/h3-frame/pkg/frame"
)

// ReadCSV reads a table with a header row. Cells that parse as integers
// become int64, other numbers float64, empty cells nil, the rest strings. If
// indexCol is set that column becomes the index.
func ReadCSV(r io.Reader, indexCol string) (*frame.Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv: missing header row")
		}
		return nil, fmt.Errorf("csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	cols := make([][]any, len(header))
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		for i, s := range rec {
			cols[i] = append(cols[i], parseCell(s))
		}
	}

	out := make([]frame.Column, len(header))
	for i, name := range header {
		vals := cols[i]
		if vals == nil {
			vals = []any{}
		}
		out[i] = frame.Column{Name: strings.TrimSpace(name), Values: vals}
	}
	t, err := frame.New(out...)
	if err != nil {
		return nil, err
	}
	if indexCol != "" {
		return t.SetIndex(indexCol)
	}
	return t, nil
}

func parseCell(s string) any {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) {
		return f
	}
	return s
}

// WriteCSV writes t with a header row. A named index is written as the
// leading column; a range index without a name is left out.
func WriteCSV(w io.Writer, t *frame.Table) error {
	cw := csv.NewWriter(w)
	ix := t.Index()
	withIndex := ix.Name != ""
	cols := t.Columns()

	header := make([]string, 0, len(cols)+1)
	if withIndex {
		header = append(header, ix.Name)
	}
	header = append(header, cols...)
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for i := 0; i < t.Len(); i++ {
		j := 0
		if withIndex {
			s, err := FormatValue(ix.Labels[i])
			if err != nil {
				return fmt.Errorf("row %d index: %w", i, err)
			}
			rec[j] = s
			j++
		}
		for _, c := range cols {
			s, err := FormatValue(t.Value(i, c))
			if err != nil {
				return fmt.Errorf("row %d column %q: %w", i, c, err)
			}
			rec[j] = s
			j++
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGeoCSV writes g with its geometry as a trailing WKT column.
func WriteGeoCSV(w io.Writer, g *frame.GeoTable) error {
	return WriteCSV(w, g.Flatten())
}

// FormatValue renders a cell value as text. Lists become JSON arrays and
// geometries WKT.
func FormatValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case bool:
		return strconv.FormatBool(x), nil
	case geom.Geom:
		return WKT(x)
	case []string, []int, []float64, []any:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	default:
		return fmt.Sprint(x), nil
	}
}
