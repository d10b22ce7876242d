package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mohammed-shakir/h3-frame/internal/codec"
	"github.com/mohammed-shakir/h3-frame/internal/logger"
	"github.com/mohammed-shakir/h3-frame/pkg/frame"
	"github.com/mohammed-shakir/h3-frame/pkg/h3frame"
)

var Version = "dev"

type opts struct {
	Op      string
	Res     int
	K       int
	Reducer string
	Lat     string
	Lng     string
	Cells   string
	Index   string
	Output  string
	Fields  string
	Unit    string
	In      string
	Out     string
	Format  string
	Explode bool
	Verbose bool
	// set when -lat or -lng was given; geo input otherwise reads point geometry
	latLngSet bool
}

var ops = []string{
	"index", "aggregate", "parent-aggregate", "boundary", "center", "parent", "children",
	"center-child", "neighbors", "hex-ring", "compact", "uncompact", "polyfill", "linetrace",
	"area", "resolution", "base-cell", "is-valid", "is-pentagon",
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("h3frame", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o opts
	fs.StringVar(&o.Op, "op", "", "operation: "+strings.Join(ops, "|"))
	fs.IntVar(&o.Res, "res", 9, "target resolution")
	fs.IntVar(&o.K, "k", 1, "ring distance for neighbors and hex-ring")
	fs.StringVar(&o.Reducer, "reducer", "sum", "aggregation: sum|mean|min|max|median|std|count")
	fs.StringVar(&o.Lat, "lat", "lat", "latitude column")
	fs.StringVar(&o.Lng, "lng", "lng", "longitude column")
	fs.StringVar(&o.Cells, "cells", "", "cell column (default: the index)")
	fs.StringVar(&o.Index, "index", "", "input column to use as the index")
	fs.StringVar(&o.Output, "output", "", "result column or index name")
	fs.StringVar(&o.Fields, "fields", "", "comma separated shapefile attributes to read")
	fs.StringVar(&o.Unit, "unit", string(h3frame.Km2), "area unit: km^2|m^2|rads^2")
	fs.StringVar(&o.In, "in", "-", "input file (.csv, .geojson, .json, .shp) or - for CSV on stdin")
	fs.StringVar(&o.Out, "out", "-", "output file or - for stdout")
	fs.StringVar(&o.Format, "format", "csv", "output format: csv|geojson|wkt")
	fs.BoolVar(&o.Explode, "explode", true, "one row per cell for list results")
	fs.BoolVar(&o.Verbose, "v", false, "debug logging")
	showVersion := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "lat" || f.Name == "lng" {
			o.latLngSet = true
		}
	})
	if *showVersion {
		_, _ = fmt.Fprintln(stdout, Version)
		return 0
	}
	if o.Op == "" {
		_, _ = fmt.Fprintln(stderr, "h3frame: -op is required")
		fs.Usage()
		return 2
	}

	level := "info"
	if o.Verbose {
		level = "debug"
	}
	zl := logger.Build(logger.Config{Level: level, Console: true, Component: "cli", Version: Version}, stderr)

	if err := execute(o, stdin, stdout, zl); err != nil {
		zl.Error().Err(err).Str("op", o.Op).Msg("h3frame failed")
		return 1
	}
	return 0
}

func execute(o opts, stdin io.Reader, stdout io.Writer, zl zerolog.Logger) error {
	aopts := []h3frame.Option{h3frame.WithLogger(zl)}
	if o.latLngSet {
		aopts = append(aopts, h3frame.LatLng(o.Lat, o.Lng))
	}
	if o.Cells != "" {
		aopts = append(aopts, h3frame.Cells(o.Cells))
	}
	if o.Output != "" {
		aopts = append(aopts, h3frame.Output(o.Output))
	}
	if !o.Explode {
		aopts = append(aopts, h3frame.NoExplode())
	}

	var result any
	switch ext := strings.ToLower(filepath.Ext(o.In)); ext {
	case ".geojson", ".json", ".shp":
		g, err := readGeo(o, ext)
		if err != nil {
			return err
		}
		if result, err = apply(h3frame.Of(g, aopts...), o); err != nil {
			return err
		}
	default:
		t, err := readTable(o, stdin)
		if err != nil {
			return err
		}
		if result, err = apply(h3frame.Of(t, aopts...), o); err != nil {
			return err
		}
	}

	w := stdout
	if o.Out != "-" && o.Out != "" {
		f, err := os.Create(o.Out)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}
	return write(w, result, o.Format)
}

func readTable(o opts, stdin io.Reader) (*frame.Table, error) {
	if o.In == "-" || o.In == "" {
		return codec.ReadCSV(stdin, o.Index)
	}
	f, err := os.Open(o.In)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()
	return codec.ReadCSV(f, o.Index)
}

func readGeo(o opts, ext string) (*frame.GeoTable, error) {
	if ext == ".shp" {
		var fields []string
		for f := range strings.SplitSeq(o.Fields, ",") {
			if f = strings.TrimSpace(f); f != "" {
				fields = append(fields, f)
			}
		}
		g, err := codec.ReadShapefile(o.In, fields...)
		if err != nil || o.Index == "" {
			return g, err
		}
		d, err := g.Data().SetIndex(o.Index)
		if err != nil {
			return nil, err
		}
		return g.Derive(d, nil)
	}
	f, err := os.Open(o.In)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer func() { _ = f.Close() }()
	return codec.ReadGeoJSON(f, o.Index)
}

// apply runs the named operation. Geometry-producing operations return a
// GeoTable; row-preserving ones return F.
func apply[F frame.Frame[F]](a *h3frame.Accessor[F], o opts) (any, error) {
	red := func() (frame.Reducer, error) { return frame.ReducerByName(o.Reducer) }
	switch o.Op {
	case "index":
		return a.IndexFromPoint(o.Res)
	case "aggregate":
		r, err := red()
		if err != nil {
			return nil, err
		}
		if o.Format == "csv" {
			return a.GeoToCellAggregate(o.Res, r)
		}
		return a.GeoToCellAggregateGeo(o.Res, r)
	case "parent-aggregate":
		r, err := red()
		if err != nil {
			return nil, err
		}
		if o.Format == "csv" {
			return a.CellToParentAggregate(o.Res, r)
		}
		return a.CellToParentAggregateGeo(o.Res, r)
	case "boundary":
		return a.BoundaryFromCell()
	case "center":
		return a.CenterFromCell()
	case "parent":
		return a.Parent(o.Res)
	case "children":
		return a.ToChildren(o.Res)
	case "center-child":
		return a.CenterChild(o.Res)
	case "neighbors":
		return a.Neighbors(o.K)
	case "hex-ring":
		return a.HexRing(o.K)
	case "compact":
		return a.Compact()
	case "uncompact":
		return a.Uncompact(o.Res)
	case "polyfill":
		return a.Polyfill(o.Res)
	case "linetrace":
		return a.Linetrace(o.Res)
	case "area":
		return a.CellArea(h3frame.AreaUnit(o.Unit))
	case "resolution":
		return a.Resolution()
	case "base-cell":
		return a.BaseCell()
	case "is-valid":
		return a.IsValid()
	case "is-pentagon":
		return a.IsPentagon()
	default:
		return nil, fmt.Errorf("unknown op %q (want %s)", o.Op, strings.Join(ops, "|"))
	}
}

var errNeedsGeometry = errors.New("format needs a geometry result")

func write(w io.Writer, result any, format string) error {
	switch v := result.(type) {
	case *frame.GeoTable:
		switch format {
		case "csv":
			return codec.WriteGeoCSV(w, v)
		case "geojson":
			return codec.WriteGeoJSON(w, v)
		case "wkt":
			for i := 0; i < v.Len(); i++ {
				s, err := codec.WKT(v.Geom(i))
				if err != nil {
					return fmt.Errorf("row %d: %w", i, err)
				}
				if _, err := fmt.Fprintln(w, s); err != nil {
					return err
				}
			}
			return nil
		}
	case *frame.Table:
		switch format {
		case "csv":
			return codec.WriteCSV(w, v)
		case "geojson", "wkt":
			return fmt.Errorf("%w: %s", errNeedsGeometry, format)
		}
	default:
		return fmt.Errorf("unexpected result %T", result)
	}
	return fmt.Errorf("unknown format %q (want csv|geojson|wkt)", format)
}
