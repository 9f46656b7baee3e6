// Package assets decodes atlas images into RGBA pixels.
package assets

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
	stbi "neilpa.me/go-stbi"
)

// STBI decodes through stb_image, the loader the atlas format was authored for.
type STBI struct{}

func (STBI) Decode(path string) (*image.RGBA, error) {
	img, err := stbi.Load(path)
	if err != nil {
		return nil, fmt.Errorf("stbi load %s: %w", path, err)
	}
	return img, nil
}

// Std decodes with the registered image/* formats (png, jpeg, bmp, webp).
type Std struct{}

func (Std) Decode(path string) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return ToRGBA(src), nil
}

// ToRGBA returns img as a zero-origin *image.RGBA, copying when needed.
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

type Decoder interface {
	Decode(path string) (*image.RGBA, error)
}

// Chain tries each decoder in order and returns the first success.
type Chain []Decoder

func (c Chain) Decode(path string) (*image.RGBA, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("decode %s: no decoders", path)
	}
	var errs []error
	for _, d := range c {
		img, err := d.Decode(path)
		if err == nil {
			return img, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
