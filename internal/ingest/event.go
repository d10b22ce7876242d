package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// PointEvent is one observation read from the input topic.
type PointEvent struct {
	ID     string             `json:"id"`
	Lat    *float64           `json:"lat"`
	Lng    *float64           `json:"lng"`
	Values map[string]float64 `json:"values,omitempty"`
	TS     time.Time          `json:"ts,omitzero"`
}

// CellMessage is the per-cell summary written to the output topic.
type CellMessage struct {
	Cell   string             `json:"cell"`
	Res    int                `json:"res"`
	Count  int                `json:"count"`
	Values map[string]float64 `json:"values,omitempty"`
}

var errMissingCoordinate = errors.New("lat and lng are required")

func decodeEvent(b []byte) (PointEvent, error) {
	var ev PointEvent
	if err := json.Unmarshal(b, &ev); err != nil {
		return PointEvent{}, fmt.Errorf("decode point event: %w", err)
	}
	if ev.Lat == nil || ev.Lng == nil {
		return PointEvent{}, errMissingCoordinate
	}
	for k, v := range ev.Values {
		if strings.TrimSpace(k) == "" || k == "lat" || k == "lng" {
			return PointEvent{}, fmt.Errorf("value name %q is reserved", k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return PointEvent{}, fmt.Errorf("value %q is not finite", k)
		}
	}
	return ev, nil
}
