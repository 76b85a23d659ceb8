package main

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"golang.org/x/image/tiff"

	"github.com/CreatorSiSo/hikari/rt/kernel"
)

// writePNG tone-maps the HDR radiance with Reinhard, applies gamma 2.2
// and encodes 8-bit PNG.
func writePNG(path string, tex *kernel.Texture, exposure float32) error {
	img := image.NewNRGBA(image.Rect(0, 0, tex.Width, tex.Height))
	for y := 0; y < tex.Height; y++ {
		for x := 0; x < tex.Width; x++ {
			c := tex.At(x, y)
			img.SetNRGBA(x, y, color.NRGBA{
				R: encode(c.X() * exposure),
				G: encode(c.Y() * exposure),
				B: encode(c.Z() * exposure),
				A: 255,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// writeTIFF stores the linear radiance as 16-bit TIFF, clamped to the
// representable range.
func writeTIFF(path string, tex *kernel.Texture) error {
	img := image.NewRGBA64(image.Rect(0, 0, tex.Width, tex.Height))
	for y := 0; y < tex.Height; y++ {
		for x := 0; x < tex.Width; x++ {
			c := tex.At(x, y)
			img.SetRGBA64(x, y, color.RGBA64{
				R: quantize16(c.X()),
				G: quantize16(c.Y()),
				B: quantize16(c.Z()),
				A: math.MaxUint16,
			})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return nil
}

// encode applies Reinhard then the 2.2 gamma curve.
func encode(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	mapped := v / (1 + v)
	g := math.Pow(float64(mapped), 1/2.2)
	return uint8(g*255 + 0.5)
}

func quantize16(v float32) uint16 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return math.MaxUint16
	}
	return uint16(v*math.MaxUint16 + 0.5)
}
