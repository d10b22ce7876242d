package h3mapper

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/h3-frame/internal/model"
)

func TestDisk_ZeroIsOrigin(t *testing.T) {
	m := New()
	got, err := m.Disk("891e3097383ffff", 0)
	if err != nil {
		t.Fatalf("Disk: %v", err)
	}
	want := []model.Neighbor{{Cell: "891e3097383ffff", Distance: 0}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Disk(0)=%v want %v", got, want)
	}
}

func TestDisk_KnownRing(t *testing.T) {
	m := New()
	got, err := m.Disk("891e3097383ffff", 1)
	if err != nil {
		t.Fatalf("Disk: %v", err)
	}
	want := []model.Neighbor{
		{Cell: "891e3097383ffff", Distance: 0},
		{Cell: "891e3097387ffff", Distance: 1},
		{Cell: "891e309738bffff", Distance: 1},
		{Cell: "891e309738fffff", Distance: 1},
		{Cell: "891e3097393ffff", Distance: 1},
		{Cell: "891e3097397ffff", Distance: 1},
		{Cell: "891e309739bffff", Distance: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Disk(1)=%v", got)
	}

	ring, err := m.Ring("891e3097383ffff", 1)
	if err != nil {
		t.Fatalf("Ring: %v", err)
	}
	if len(ring) != 6 {
		t.Fatalf("Ring(1) has %d cells want 6", len(ring))
	}
	if _, err := m.Disk("891e3097383ffff", -1); err == nil {
		t.Fatalf("expected error for negative k")
	}
}

func TestArea_Units(t *testing.T) {
	m := New()
	km2, err := m.Area("891e3097383ffff", model.Km2)
	if err != nil {
		t.Fatalf("Area: %v", err)
	}
	if math.Abs(km2-0.09937867) > 1e-6 {
		t.Fatalf("km2=%v", km2)
	}
	m2, _ := m.Area("891e3097383ffff", model.M2)
	if math.Abs(m2/1e6-km2) > 1e-9 {
		t.Fatalf("m2=%v km2=%v", m2, km2)
	}
	if _, err := m.Area("891e3097383ffff", "acres"); err == nil {
		t.Fatalf("expected error for unknown unit")
	}
}

func TestDistance(t *testing.T) {
	m := New()
	d, err := m.Distance("891e3097383ffff", "891e3097383ffff", model.Km)
	if err != nil || d != 0 {
		t.Fatalf("self distance=%v,%v", d, err)
	}
	km, _ := m.Distance("891e3097383ffff", "891e2659c2fffff", model.Km)
	// (50,14) to (51,15) is roughly 133 km
	if km < 120 || km > 145 {
		t.Fatalf("km=%v", km)
	}
	mm, _ := m.Distance("891e3097383ffff", "891e2659c2fffff", model.M)
	if math.Abs(mm/1000-km) > 1e-6 {
		t.Fatalf("m=%v km=%v", mm, km)
	}

	g, err := m.GridDistance("891e3097383ffff", "891e3097387ffff")
	if err != nil || g != 1 {
		t.Fatalf("GridDistance=%d,%v", g, err)
	}
	if _, err := m.GridDistance("891e3097383ffff", "881f1d4817fffff"); !errors.Is(err, ErrResolutionMismatch) {
		t.Fatalf("want ErrResolutionMismatch, got %v", err)
	}
}

func TestLinetrace(t *testing.T) {
	m := New()
	line := geom.LineString{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}}

	got, err := m.Linetrace(line, 1)
	if err != nil {
		t.Fatalf("Linetrace: %v", err)
	}
	if !reflect.DeepEqual([]string(got), []string{"81757ffffffffff"}) {
		t.Fatalf("res1=%v", got)
	}
	got, _ = m.Linetrace(line, 2)
	if !reflect.DeepEqual([]string(got), []string{"82754ffffffffff", "827547fffffffff"}) {
		t.Fatalf("res2=%v", got)
	}

	multi := geom.MultiLineString{line, {{X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}}
	got, err = m.LinetraceMulti(multi, 2)
	if err != nil {
		t.Fatalf("LinetraceMulti: %v", err)
	}
	want := []string{"82754ffffffffff", "827547fffffffff", "82754ffffffffff"}
	if !reflect.DeepEqual([]string(got), want) {
		t.Fatalf("multi=%v want %v", got, want)
	}
}
