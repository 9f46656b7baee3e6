package tile

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownTileType is reported together with the fallback index when a tile
// type has no registered category.
var ErrUnknownTileType = errors.New("unknown tile type")

// DefaultUnknown is the atlas index drawn for unregistered tile types.
const DefaultUnknown uint16 = 255

// Category binds a tile type to its region of the atlas.
type Category struct {
	Type   uint8
	Name   string
	Layout Layout
	Base   uint16
	Solid  uint16 // used for masks the table leaves unmapped
	Table  *Table
}

func NewCategory(t uint8, name string, base uint16, layout Layout) (Category, error) {
	tbl, err := layout.Build(base)
	if err != nil {
		return Category{}, err
	}
	solid, ok := tbl.Lookup(0xFF)
	if !ok {
		solid = base
	}
	return Category{Type: t, Name: name, Layout: layout, Base: base, Solid: solid, Table: tbl}, nil
}

// DefaultCategories registers grass, water and forest at atlas bases 0, 48 and 96.
func DefaultCategories(layout Layout) ([]Category, error) {
	specs := []struct {
		t    uint8
		name string
		base uint16
	}{
		{Grass, "grass", 0},
		{Water, "water", 48},
		{Forest, "forest", 96},
	}
	cats := make([]Category, 0, len(specs))
	for _, s := range specs {
		c, err := NewCategory(s.t, s.name, s.base, layout)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, nil
}

// Autotiler derives atlas indices from same-type neighbor adjacency.
// It is read-only after construction.
type Autotiler struct {
	cats    [256]*Category
	Unknown uint16
}

func NewAutotiler(unknown uint16, cats ...Category) (*Autotiler, error) {
	a := &Autotiler{Unknown: unknown}
	for i := range cats {
		c := cats[i]
		if c.Table == nil {
			return nil, fmt.Errorf("category %q: nil table", c.Name)
		}
		if a.cats[c.Type] != nil {
			return nil, fmt.Errorf("category %q: type %d already registered by %q", c.Name, c.Type, a.cats[c.Type].Name)
		}
		a.cats[c.Type] = &c
	}
	return a, nil
}

// NewDefault builds an autotiler over DefaultCategories.
func NewDefault(layout Layout) (*Autotiler, error) {
	cats, err := DefaultCategories(layout)
	if err != nil {
		return nil, err
	}
	return NewAutotiler(DefaultUnknown, cats...)
}

func (a *Autotiler) Category(t uint8) (*Category, bool) {
	c := a.cats[t]
	return c, c != nil
}

// Categories returns the registered categories ordered by tile type.
func (a *Autotiler) Categories() []Category {
	var out []Category
	for _, c := range a.cats {
		if c != nil {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out
}

// Mask packs the 8-neighborhood of (x, y) into a bit mask. Out-of-bounds
// neighbors count as matching. A corner is only consulted when both adjacent
// cardinals match.
func Mask(g *Grid, x, y int) uint8 {
	t := g.At(x, y)
	match := func(dx, dy int) bool {
		nx, ny := x+dx, y+dy
		if !g.InBounds(nx, ny) {
			return true
		}
		return g.At(nx, ny) == t
	}

	n := match(0, -1)
	e := match(1, 0)
	s := match(0, 1)
	w := match(-1, 0)

	var m uint8
	if n {
		m |= BitN
	}
	if e {
		m |= BitE
	}
	if s {
		m |= BitS
	}
	if w {
		m |= BitW
	}
	if n && e && match(1, -1) {
		m |= BitNE
	}
	if s && e && match(1, 1) {
		m |= BitSE
	}
	if s && w && match(-1, 1) {
		m |= BitSW
	}
	if n && w && match(-1, -1) {
		m |= BitNW
	}
	return m
}

// Resolve returns the atlas index for tile (x, y). Unregistered types yield
// a.Unknown together with ErrUnknownTileType.
func (a *Autotiler) Resolve(g *Grid, x, y int) (uint16, error) {
	t := g.At(x, y)
	c := a.cats[t]
	if c == nil {
		return a.Unknown, fmt.Errorf("tile (%d,%d) type %d: %w", x, y, t, ErrUnknownTileType)
	}
	if idx, ok := c.Table.Lookup(Mask(g, x, y)); ok {
		return idx, nil
	}
	return c.Solid, nil
}

func (a *Autotiler) Index(g *Grid, x, y int) uint16 {
	idx, _ := a.Resolve(g, x, y)
	return idx
}
