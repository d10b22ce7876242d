package h3mapper

import (
	"fmt"
	"sort"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/h3-frame/internal/model"
)

// ToParent ascends to parentRes, which must be strictly coarser than the cell.
func (m *Mapper) ToParent(cell any, parentRes int) (string, error) {
	if err := ValidateRes(parentRes); err != nil {
		return "", err
	}
	c, err := ParseCell(cell)
	if err != nil {
		return "", err
	}
	curRes := c.Resolution()
	if parentRes >= curRes {
		return "", fmt.Errorf("%w: parent resolution %d must be < cell resolution %d",
			ErrResolutionMismatch, parentRes, curRes)
	}

	p, err := c.Parent(parentRes)
	if err != nil {
		return "", fmt.Errorf("h3 parent: %w", err)
	}
	return p.String(), nil
}

// ToChildren descends to childRes, which must be strictly finer than the cell.
// Children are returned sorted.
func (m *Mapper) ToChildren(cell any, childRes int) (model.Cells, error) {
	if err := ValidateRes(childRes); err != nil {
		return nil, err
	}
	c, err := ParseCell(cell)
	if err != nil {
		return nil, err
	}
	curRes := c.Resolution()
	if childRes <= curRes {
		return nil, fmt.Errorf("%w: child resolution %d must be > cell resolution %d",
			ErrResolutionMismatch, childRes, curRes)
	}

	kids, err := c.Children(childRes)
	if err != nil {
		return nil, fmt.Errorf("h3 children: %w", err)
	}

	seen := make(map[string]struct{}, len(kids))
	out := make([]string, 0, len(kids))
	for _, k := range kids {
		s := k.String()
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// CenterChild returns the child at childRes that contains the cell center.
func (m *Mapper) CenterChild(cell any, childRes int) (string, error) {
	if err := ValidateRes(childRes); err != nil {
		return "", err
	}
	c, err := ParseCell(cell)
	if err != nil {
		return "", err
	}
	if childRes <= c.Resolution() {
		return "", fmt.Errorf("%w: child resolution %d must be > cell resolution %d",
			ErrResolutionMismatch, childRes, c.Resolution())
	}
	cc, err := c.CenterChild(childRes)
	if err != nil {
		return "", fmt.Errorf("h3 center child: %w", err)
	}
	return cc.String(), nil
}

func (m *Mapper) Resolution(cell any) (int, error) {
	c, err := ParseCell(cell)
	if err != nil {
		return 0, err
	}
	return c.Resolution(), nil
}

func (m *Mapper) BaseCell(cell any) (int, error) {
	c, err := ParseCell(cell)
	if err != nil {
		return 0, err
	}
	return c.BaseCellNumber(), nil
}

func (m *Mapper) IsPentagon(cell any) (bool, error) {
	c, err := ParseCell(cell)
	if err != nil {
		return false, err
	}
	return c.IsPentagon(), nil
}

// Compact replaces complete sibling sets with their parents. The result is
// sorted. Duplicate input cells are rejected.
func (m *Mapper) Compact(cells []any) (model.Cells, error) {
	if len(cells) == 0 {
		return model.Cells{}, nil
	}
	in := make([]h3.Cell, 0, len(cells))
	seen := make(map[h3.Cell]int, len(cells))
	for i, v := range cells {
		c, err := ParseCell(v)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		if j, dup := seen[c]; dup {
			return nil, fmt.Errorf("%w: cell %d duplicates cell %d (%s)", ErrInvalidCell, i, j, c)
		}
		seen[c] = i
		in = append(in, c)
	}
	out, err := h3.CompactCells(in)
	if err != nil {
		return nil, fmt.Errorf("%w: h3 compact: %v", ErrInvalidCell, err)
	}
	return sortedStrings(out), nil
}

// Uncompact expands every cell to res, which must not be coarser than any input.
func (m *Mapper) Uncompact(cells []any, res int) (model.Cells, error) {
	if err := ValidateRes(res); err != nil {
		return nil, err
	}
	if len(cells) == 0 {
		return model.Cells{}, nil
	}
	in := make([]h3.Cell, 0, len(cells))
	for i, v := range cells {
		c, err := ParseCell(v)
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		if c.Resolution() > res {
			return nil, fmt.Errorf("%w: cell %d resolution %d is finer than %d",
				ErrResolutionMismatch, i, c.Resolution(), res)
		}
		in = append(in, c)
	}
	out, err := h3.UncompactCells(in, res)
	if err != nil {
		return nil, fmt.Errorf("h3 uncompact: %w", err)
	}
	return sortedStrings(out), nil
}

func sortedStrings(cells []h3.Cell) model.Cells {
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		out = append(out, c.String())
	}
	sort.Strings(out)
	return out
}
