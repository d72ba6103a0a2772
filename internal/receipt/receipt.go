// Package receipt shrinks uploaded receipt photos before they are stored
// inline with an expense.
package receipt

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
)

const (
	// MaxEdge bounds the longer side of a stored receipt in pixels.
	MaxEdge = 800
	// Quality is the JPEG quality of a stored receipt.
	Quality = 70
	// MaxUploadBytes limits the accepted upload size.
	MaxUploadBytes = 10 << 20
	// MaxPixels bounds the decoded size of an upload. Compressed formats
	// can declare far more pixels than their byte size suggests.
	MaxPixels = 40_000_000

	dataURIPrefix = "data:image/jpeg;base64,"
)

// ErrTooManyPixels is returned for images larger than MaxPixels.
var ErrTooManyPixels = errors.New("image dimensions too large")

// Resize decodes a JPEG, PNG or GIF image, scales it down so the longer
// edge is at most MaxEdge and returns it as a JPEG data URI. Smaller
// images keep their size.
func Resize(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes))
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return "", fmt.Errorf("%w: %dx%d", ErrTooManyPixels, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	w, h := Fit(src.Bounds().Dx(), src.Bounds().Dy(), MaxEdge)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: Quality}); err != nil {
		return "", fmt.Errorf("encode jpeg: %w", err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// Fit returns the size of a w×h image scaled so neither side exceeds max,
// keeping the aspect ratio. It never scales up.
func Fit(w, h, max int) (int, int) {
	if w >= h {
		if w > max {
			h = h * max / w
			w = max
		}
	} else if h > max {
		w = w * max / h
		h = max
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// Decode returns the JPEG bytes of a data URI produced by Resize.
func Decode(dataURI string) ([]byte, error) {
	if len(dataURI) < len(dataURIPrefix) || dataURI[:len(dataURIPrefix)] != dataURIPrefix {
		return nil, errors.New("not a jpeg data uri")
	}
	return base64.StdEncoding.DecodeString(dataURI[len(dataURIPrefix):])
}
