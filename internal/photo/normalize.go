package photo

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned when the bytes are not a decodable image.
var ErrUnsupportedImage = errors.New("unsupported image")

// Defaults used when NormalizeOptions leaves a field at zero.
const (
	DefaultMaxDimension = 2000
	DefaultQuality      = 85
	DefaultMaxPixels    = 50_000_000
)

// NormalizeOptions controls how photos are prepared for embedding.
type NormalizeOptions struct {
	MaxDimension int // longest side in pixels
	Quality      int // JPEG quality 1-100
	// MaxPixels caps width*height of the source image. Larger images are
	// rejected from their header, before any pixel is decoded.
	MaxPixels int64
}

func (o NormalizeOptions) withDefaults() NormalizeOptions {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.Quality <= 0 || o.Quality > 100 {
		o.Quality = DefaultQuality
	}
	if o.MaxPixels <= 0 {
		o.MaxPixels = DefaultMaxPixels
	}
	return o
}

// Image is a photo ready for embedding.
type Image struct {
	JPEG   []byte
	Width  int
	Height int
	Format string // format of the source bytes
}

// Normalize decodes JPEG, PNG, GIF, WebP, BMP or TIFF bytes, flattens
// transparency onto white, shrinks the image so its longest side fits
// MaxDimension and re-encodes it as JPEG.
func Normalize(data []byte, opts NormalizeOptions) (*Image, error) {
	opts = opts.withDefaults()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	if px := int64(cfg.Width) * int64(cfg.Height); px > opts.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrUnsupportedImage, cfg.Width, cfg.Height, opts.MaxPixels)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	b := src.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: zero-sized image", ErrUnsupportedImage)
	}

	w, h := fit(b.Dx(), b.Dy(), opts.MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: opts.Quality}); err != nil {
		return nil, fmt.Errorf("encoding jpeg: %w", err)
	}
	return &Image{JPEG: buf.Bytes(), Width: w, Height: h, Format: format}, nil
}

// NormalizeDataURI parses a data URI and normalizes the image it carries.
func NormalizeDataURI(s string, opts NormalizeOptions) (*Image, error) {
	data, _, err := ParseDataURI(s)
	if err != nil {
		return nil, err
	}
	return Normalize(data, opts)
}

// fit scales w x h down so the longest side is at most limit.
func fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}
	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}
