// Package imaging decodes stored originals and produces height-scaled
// derivatives. Derivation is a pure function of the input bytes; the pool and
// cache in this package only bound and memoize it.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	// Registered so image.Decode recognises GIF input and can report it as
	// unsupported instead of undecodable.
	_ "image/gif"
)

// Format is an image encoding the service accepts.
type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string { return "image/" + string(f) }

// ParseFormat maps a decoder format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch name {
	case "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// JPEGQuality is used when re-encoding JPEG derivatives.
const JPEGQuality = 90

var (
	// ErrDecode is returned when the input bytes are not a decodable image.
	ErrDecode = errors.New("unable to decode image")
	// ErrUnsupportedFormat is returned for images outside {jpeg, png}.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrInvalidHeight is returned for non-positive target heights.
	ErrInvalidHeight = errors.New("target height must be positive")
)

// ScaledWidth returns the width that preserves the aspect ratio of a
// width×height image scaled to target height. The result is rounded half
// away from zero and never less than 1.
func ScaledWidth(width, height, target int) int {
	w := int(math.Round(float64(width) * float64(target) / float64(height)))
	if w < 1 {
		w = 1
	}
	return w
}

// Decode decodes b and reports its format.
func Decode(b []byte) (image.Image, Format, error) {
	img, name, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	f, err := ParseFormat(name)
	if err != nil {
		return nil, "", err
	}
	return img, f, nil
}

// DecodeConfig reads only the header of b and returns its dimensions and format.
func DecodeConfig(b []byte) (image.Config, Format, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	f, err := ParseFormat(name)
	if err != nil {
		return image.Config{}, "", err
	}
	return cfg, f, nil
}

// Encode writes img in format f.
func Encode(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality})
	case FormatPNG:
		err = png.Encode(&buf, img)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", f, err)
	}
	return buf.Bytes(), nil
}

// Derive resizes original to the given height with a bicubic (Catmull-Rom)
// filter, preserving aspect ratio, and re-encodes it in the original format.
// Upscaling is allowed.
func Derive(original []byte, height int) ([]byte, Format, error) {
	if height <= 0 {
		return nil, "", ErrInvalidHeight
	}
	src, f, err := Decode(original)
	if err != nil {
		return nil, "", err
	}

	b := src.Bounds()
	width := ScaledWidth(b.Dx(), b.Dy(), height)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	out, err := Encode(dst, f)
	if err != nil {
		return nil, "", err
	}
	return out, f, nil
}
