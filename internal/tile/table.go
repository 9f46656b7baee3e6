package tile

import "fmt"

// Neighbor bit weights used by Mask and every Table.
const (
	BitN  uint8 = 1
	BitNE uint8 = 2
	BitE  uint8 = 4
	BitSE uint8 = 8
	BitS  uint8 = 16
	BitSW uint8 = 32
	BitW  uint8 = 64
	BitNW uint8 = 128
)

// Unmapped marks a mask with no dedicated atlas tile.
const Unmapped int16 = -1

// Table maps a neighbor mask to an atlas index.
type Table [256]int16

func newTable() *Table {
	var t Table
	for i := range t {
		t[i] = Unmapped
	}
	return &t
}

func (t *Table) Lookup(mask uint8) (uint16, bool) {
	v := t[mask]
	if v < 0 {
		return 0, false
	}
	return uint16(v), true
}

// Canonical reports whether every corner bit in mask is backed by both of its
// adjacent cardinal bits. Only canonical masks can come out of Mask.
func Canonical(mask uint8) bool {
	has := func(b uint8) bool { return mask&b != 0 }
	if has(BitNE) && !(has(BitN) && has(BitE)) {
		return false
	}
	if has(BitSE) && !(has(BitS) && has(BitE)) {
		return false
	}
	if has(BitSW) && !(has(BitS) && has(BitW)) {
		return false
	}
	if has(BitNW) && !(has(BitN) && has(BitW)) {
		return false
	}
	return true
}

// BlobTable maps the 47 canonical masks, in ascending mask order, to base+0..base+46.
func BlobTable(base uint16) *Table {
	t := newTable()
	next := base
	for m := 0; m < 256; m++ {
		if Canonical(uint8(m)) {
			t[m] = int16(next)
			next++
		}
	}
	return t
}

// CardinalTable keys on the N/E/S/W bits only: base + (N|E<<1|S<<2|W<<3).
// Every mask is mapped.
func CardinalTable(base uint16) *Table {
	t := newTable()
	for m := 0; m < 256; m++ {
		t[m] = int16(base + uint16(cardinalBits(uint8(m))))
	}
	return t
}

func cardinalBits(mask uint8) uint8 {
	var c uint8
	if mask&BitN != 0 {
		c |= 1
	}
	if mask&BitE != 0 {
		c |= 2
	}
	if mask&BitS != 0 {
		c |= 4
	}
	if mask&BitW != 0 {
		c |= 8
	}
	return c
}

// Layout names an atlas arrangement for one category.
type Layout string

const (
	LayoutBlob     Layout = "blob"
	LayoutCardinal Layout = "cardinal"
)

// Size is the number of atlas tiles one category occupies.
func (l Layout) Size() int {
	switch l {
	case LayoutCardinal:
		return 16
	default:
		return 47
	}
}

func (l Layout) Build(base uint16) (*Table, error) {
	switch l {
	case LayoutBlob, "":
		return BlobTable(base), nil
	case LayoutCardinal:
		return CardinalTable(base), nil
	}
	return nil, fmt.Errorf("unknown autotile layout %q", string(l))
}
