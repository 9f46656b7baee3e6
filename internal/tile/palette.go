package tile

import "image/color"

// RGB is an 8-bit per channel colour.
type RGB struct {
	R, G, B uint8
}

func (c RGB) Mul(k uint8) RGB {
	return RGB{
		R: uint8((uint16(c.R) * uint16(k)) / 255),
		G: uint8((uint16(c.G) * uint16(k)) / 255),
		B: uint8((uint16(c.B) * uint16(k)) / 255),
	}
}

func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

// Palette holds the placeholder atlas colours.
var Palette = struct {
	Grass   RGB
	Water   RGB
	Forest  RGB
	Unknown RGB
	Edge    uint8 // shade factor for category borders
}{
	Grass:   RGB{R: 140, G: 136, B: 91},
	Water:   RGB{R: 60, G: 104, B: 168},
	Forest:  RGB{R: 70, G: 95, B: 50},
	Unknown: RGB{R: 214, G: 40, B: 190},
	Edge:    150,
}

// CategoryColor picks the base colour for a tile type. Types without a
// palette entry get a stable colour derived from the type value.
func CategoryColor(t uint8) RGB {
	switch t {
	case Grass:
		return Palette.Grass
	case Water:
		return Palette.Water
	case Forest:
		return Palette.Forest
	}
	h := uint32(t)*2654435761 + 0x9E37
	return RGB{R: uint8(h >> 8), G: uint8(h >> 16), B: uint8(h >> 24)}
}
