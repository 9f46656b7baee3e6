package tile

import (
	"errors"
	"fmt"
	"image"
)

var (
	ErrImageDecode   = errors.New("atlas image decode failed")
	ErrAtlasGeometry = errors.New("invalid atlas geometry")
)

// Decoder loads an image file into RGBA pixels.
type Decoder interface {
	Decode(path string) (*image.RGBA, error)
}

// Atlas is a uniform grid of tile sprites inside one image. Immutable after
// construction and safe for concurrent reads.
type Atlas struct {
	Image *image.RGBA

	PixelsU, PixelsV         int
	TilePixelsU, TilePixelsV int
	NumTilesU, NumTilesV     int
	StepU, StepV             float32
}

func NewAtlas(img *image.RGBA, tileU, tileV int) (*Atlas, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrAtlasGeometry)
	}
	if tileU <= 0 || tileV <= 0 {
		return nil, fmt.Errorf("%w: tile size %dx%d", ErrAtlasGeometry, tileU, tileV)
	}
	b := img.Bounds()
	a := &Atlas{
		Image:       img,
		PixelsU:     b.Dx(),
		PixelsV:     b.Dy(),
		TilePixelsU: tileU,
		TilePixelsV: tileV,
		NumTilesU:   b.Dx() / tileU,
		NumTilesV:   b.Dy() / tileV,
	}
	if a.NumTilesU == 0 || a.NumTilesV == 0 {
		return nil, fmt.Errorf("%w: %dx%d image smaller than one %dx%d tile", ErrAtlasGeometry, a.PixelsU, a.PixelsV, tileU, tileV)
	}
	a.StepU = 1.0 / float32(a.NumTilesU)
	a.StepV = 1.0 / float32(a.NumTilesV)
	return a, nil
}

// LoadAtlas decodes path with dec and slices it into tileU x tileV tiles.
func LoadAtlas(dec Decoder, path string, tileU, tileV int) (*Atlas, error) {
	img, err := dec.Decode(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrImageDecode, path, err)
	}
	return NewAtlas(img, tileU, tileV)
}

func (a *Atlas) Capacity() int {
	return a.NumTilesU * a.NumTilesV
}

// UVRect returns the normalized texture rectangle of atlas tile i.
func (a *Atlas) UVRect(i uint16) (u0, v0, u1, v1 float32) {
	n := int(i)
	u0 = float32(n%a.NumTilesU) * a.StepU
	v0 = float32(n/a.NumTilesU) * a.StepV
	return u0, v0, u0 + a.StepU, v0 + a.StepV
}
