package h3frame

import (
	"time"
)

// Neighbors adds every cell within grid distance k of each row's cell, the
// cell itself included at distance 0. Exploded rows carry the neighbor in
// h3_k_ring and its distance in h3_k_ring_distance, ordered by distance and
// then by cell. With NoExplode only the cell list is added.
func (a *Accessor[F]) Neighbors(k int) (_ F, err error) {
	defer a.track("neighbors", time.Now(), &err)
	var zero F

	cells, err := a.cellValues()
	if err != nil {
		return zero, err
	}
	rings := make([]any, len(cells))
	dists := make([]any, len(cells))
	for i, c := range cells {
		disk, err := a.m.Disk(c, k)
		if err != nil {
			return zero, rowErr(i, err)
		}
		cs := make([]string, len(disk))
		ds := make([]int, len(disk))
		for j, n := range disk {
			cs[j] = n.Cell
			ds[j] = n.Distance
		}
		rings[i] = cs
		dists[i] = ds
	}

	name := a.opt.name(ColKRing)
	if a.opt.noExplode {
		return a.assign(name, rings)
	}
	return a.assignLists([]string{name, name + distanceSuffix}, rings, dists)
}

// HexRing adds the cells at exactly grid distance k. k=0 yields the cell itself.
func (a *Accessor[F]) HexRing(k int) (_ F, err error) {
	defer a.track("hex_ring", time.Now(), &err)
	var zero F

	lists, err := a.perCell(func(c any) (any, error) {
		ring, err := a.m.Ring(c, k)
		return []string(ring), err
	})
	if err != nil {
		return zero, err
	}
	return a.assignLists([]string{a.opt.name(ColHexRing)}, lists)
}
