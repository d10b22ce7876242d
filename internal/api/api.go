// Package api serves the accessor over HTTP.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-frame/internal/cache"
	"github.com/mohammed-shakir/h3-frame/internal/cache/keys"
	"github.com/mohammed-shakir/h3-frame/internal/codec"
	mylog "github.com/mohammed-shakir/h3-frame/internal/logger"
	"github.com/mohammed-shakir/h3-frame/pkg/frame"
	"github.com/mohammed-shakir/h3-frame/pkg/h3frame"
)

const (
	contentCSV     = "text/csv; charset=utf-8"
	contentGeoJSON = "application/geo+json"
	contentJSON    = "application/json"
)

var (
	errBadRequest = errors.New("bad request")
	errNotFound   = errors.New("not found")
)

// SummaryReader looks up stored per-cell summaries.
type SummaryReader interface {
	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
}

type Options struct {
	Logger       zerolog.Logger
	Cache        *cache.Results
	TTL          func(op string) time.Duration
	DefaultRes   int
	MaxBodyBytes int64
	// MaxK caps k on the neighbors endpoint.
	MaxK int
	// MaxChildSteps caps how many resolutions below the cell children may be
	// requested; each step multiplies the result by seven.
	MaxChildSteps int
	// Summaries serves the latest ingested summary per cell when set.
	Summaries SummaryReader
}

type Handler struct {
	log        zerolog.Logger
	cache      *cache.Results
	ttl        func(op string) time.Duration
	defaultRes int
	maxBody    int64
	maxK       int
	maxSteps   int
	summaries  SummaryReader
}

func New(opts Options) *Handler {
	h := &Handler{
		log:        opts.Logger,
		cache:      opts.Cache,
		ttl:        opts.TTL,
		defaultRes: opts.DefaultRes,
		maxBody:    opts.MaxBodyBytes,
		maxK:       opts.MaxK,
		maxSteps:   opts.MaxChildSteps,
		summaries:  opts.Summaries,
	}
	if h.ttl == nil {
		h.ttl = func(string) time.Duration { return 5 * time.Minute }
	}
	if h.maxBody <= 0 {
		h.maxBody = 32 << 20
	}
	if h.maxK <= 0 {
		h.maxK = 50
	}
	if h.maxSteps <= 0 {
		h.maxSteps = 5
	}
	return h
}

// Routes mounts the v1 endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/index", h.index)
		r.Post("/aggregate", h.aggregate)
		r.Post("/compact", h.compact)
		r.Get("/cells/{cell}/boundary", h.boundary)
		r.Get("/cells/{cell}/neighbors", h.neighbors)
		r.Get("/cells/{cell}/children", h.children)
		if h.summaries != nil {
			r.Get("/cells/{cell}/summary", h.summary)
		}
	})
}

// index assigns every CSV row to its cell at res and returns the table indexed
// by the cell column.
func (h *Handler) index(w http.ResponseWriter, r *http.Request) {
	h.cached(w, r, "index", contentCSV, func(ctx context.Context, res int, body []byte) ([]byte, error) {
		t, err := codec.ReadCSV(bytes.NewReader(body), "")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		out, err := h3frame.Of(t, h.accessorOpts(ctx, r)...).IndexFromPoint(res)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := codec.WriteCSV(&buf, out); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	})
}

// aggregate groups CSV rows by cell and reduces every numeric column. With
// geometry=false the result is CSV, otherwise a FeatureCollection of cell
// boundaries.
func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	withGeom := true
	if v := q.Get("geometry"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.writeError(w, r, fmt.Errorf("%w: geometry: %v", errBadRequest, err))
			return
		}
		withGeom = b
	}
	reducer, err := frame.ReducerByName(q.Get("op"))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	ct := contentCSV
	if withGeom {
		ct = contentGeoJSON
	}

	h.cached(w, r, "aggregate", ct, func(ctx context.Context, res int, body []byte) ([]byte, error) {
		t, err := codec.ReadCSV(bytes.NewReader(body), "")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		acc := h3frame.Of(t, h.accessorOpts(ctx, r)...)
		var buf bytes.Buffer
		if withGeom {
			g, err := acc.GeoToCellAggregateGeo(res, reducer)
			if err != nil {
				return nil, err
			}
			err = codec.WriteGeoJSON(&buf, g)
			return buf.Bytes(), err
		}
		out, err := acc.GeoToCellAggregate(res, reducer)
		if err != nil {
			return nil, err
		}
		err = codec.WriteCSV(&buf, out)
		return buf.Bytes(), err
	})
}

// cached serves a body-bearing compute request through the result cache.
func (h *Handler) cached(w http.ResponseWriter, r *http.Request, op, contentType string,
	compute func(ctx context.Context, res int, body []byte) ([]byte, error),
) {
	ctx := mylog.WithOperation(r.Context(), op)
	res, err := h.resParam(r, "res")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		h.writeError(w, r, fmt.Errorf("%w: read body: %w", errBadRequest, err))
		return
	}

	key := keys.Key(op, res, r.URL.Query(), body)
	if h.cache != nil {
		if v, tier, ok := h.cache.Get(ctx, key, h.ttl(op)); ok {
			ctx = mylog.WithCacheTier(ctx, tier)
			mylog.FromContext(ctx, &h.log).Debug().Msg("served from cache")
			w.Header().Set("X-Cache", tier)
			writeBody(w, contentType, v)
			return
		}
	}

	out, err := compute(ctx, res, body)
	if err != nil {
		h.writeError(w, r.WithContext(ctx), err)
		return
	}
	if h.cache != nil {
		h.cache.Set(ctx, key, out, h.ttl(op))
		w.Header().Set("X-Cache", "miss")
	}
	writeBody(w, contentType, out)
}

func (h *Handler) boundary(w http.ResponseWriter, r *http.Request) {
	t, err := cellFrame(chi.URLParam(r, "cell"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	g, err := h3frame.Of(t, h.accessorOpts(r.Context(), r)...).BoundaryFromCell()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := codec.WriteGeoJSON(&buf, g); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeBody(w, contentGeoJSON, buf.Bytes())
}

type neighbor struct {
	Cell     string `json:"cell"`
	Distance int    `json:"distance"`
}

func (h *Handler) neighbors(w http.ResponseWriter, r *http.Request) {
	k := 1
	if v := r.URL.Query().Get("k"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, r, fmt.Errorf("%w: k must be a non-negative integer", errBadRequest))
			return
		}
		if n > h.maxK {
			h.writeError(w, r, fmt.Errorf("%w: k=%d exceeds the limit of %d", errBadRequest, n, h.maxK))
			return
		}
		k = n
	}
	t, err := cellFrame(chi.URLParam(r, "cell"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h3frame.Of(t, h.accessorOpts(r.Context(), r)...).Neighbors(k)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	list := make([]neighbor, out.Len())
	for i := range list {
		list[i] = neighbor{
			Cell:     out.Value(i, h3frame.ColKRing).(string),
			Distance: out.Value(i, h3frame.ColKRingDistance).(int),
		}
	}
	writeJSON(w, list)
}

func (h *Handler) children(w http.ResponseWriter, r *http.Request) {
	res, err := h.resParam(r, "res")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cell := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "cell")))
	if c := h3.Cell(h3.IndexFromString(cell)); c.IsValid() && res-c.Resolution() > h.maxSteps {
		h.writeError(w, r, fmt.Errorf("%w: res %d is more than %d steps below cell resolution %d",
			errBadRequest, res, h.maxSteps, c.Resolution()))
		return
	}
	t, err := cellFrame(cell)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h3frame.Of(t, h3frame.Output("child")).ToChildren(res)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	cells := make([]string, out.Len())
	for i := range cells {
		cells[i] = out.Value(i, "child").(string)
	}
	writeJSON(w, cells)
}

// summary returns the latest summary the ingest runner stored for the cell.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	cell := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "cell")))
	if !h3.Cell(h3.IndexFromString(cell)).IsValid() {
		h.writeError(w, r, fmt.Errorf("%w: %q", h3frame.ErrInvalidCell, cell))
		return
	}
	key := keys.CellSummary(cell)
	got, err := h.summaries.MGet(r.Context(), []string{key})
	if err != nil {
		h.writeError(w, r, fmt.Errorf("read summary: %w", err))
		return
	}
	v, ok := got[key]
	if !ok {
		h.writeError(w, r, fmt.Errorf("%w: no summary for %s", errNotFound, cell))
		return
	}
	writeBody(w, contentJSON, v)
}

func (h *Handler) compact(w http.ResponseWriter, r *http.Request) {
	var cells []string
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err := dec.Decode(&cells); err != nil {
		h.writeError(w, r, fmt.Errorf("%w: want a JSON array of cells: %v", errBadRequest, err))
		return
	}
	t, err := frame.NewIndexed(frame.StringIndex("cell", cells...))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out, err := h3frame.Of(t, h.accessorOpts(r.Context(), r)...).Compact()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, out.Index().Strings())
}

// accessorOpts maps the lat/lng query parameters onto accessor options and
// hands the request-scoped logger to the accessor.
func (h *Handler) accessorOpts(ctx context.Context, r *http.Request) []h3frame.Option {
	q := r.URL.Query()
	opts := []h3frame.Option{h3frame.WithLogger(*mylog.FromContext(ctx, &h.log))}
	lat, lng := strings.TrimSpace(q.Get("lat")), strings.TrimSpace(q.Get("lng"))
	if lat != "" || lng != "" {
		if lat == "" {
			lat = "lat"
		}
		if lng == "" {
			lng = "lng"
		}
		opts = append(opts, h3frame.LatLng(lat, lng))
	}
	return opts
}

func (h *Handler) resParam(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(name))
	if v == "" {
		return h.defaultRes, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", errBadRequest, name, err)
	}
	return n, nil
}

func cellFrame(cell string) (*frame.Table, error) {
	return frame.NewIndexed(frame.StringIndex("cell", strings.ToLower(strings.TrimSpace(cell))))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		code = http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest), h3frame.IsInputError(err):
		code = http.StatusBadRequest
	case errors.Is(err, errNotFound):
		code = http.StatusNotFound
	}
	l := mylog.FromContext(r.Context(), &h.log)
	if code >= 500 {
		l.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		l.Debug().Err(err).Str("path", r.URL.Path).Msg("rejected request")
	}
	http.Error(w, err.Error(), code)
}

func writeBody(w http.ResponseWriter, contentType string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", contentJSON)
	_ = json.NewEncoder(w).Encode(v)
}
