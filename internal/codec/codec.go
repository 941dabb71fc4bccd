// Package codec wraps image decoding, resizing and WebP encoding.
package codec

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"math"
	"os"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// filters maps configuration names to resampling filters.
var filters = map[string]imaging.ResampleFilter{
	"lanczos":    imaging.Lanczos,
	"catmullrom": imaging.CatmullRom,
	"mitchell":   imaging.MitchellNetravali,
	"linear":     imaging.Linear,
	"box":        imaging.Box,
	"nearest":    imaging.NearestNeighbor,
}

// Filter returns the resampling filter for name. An empty name selects Lanczos.
func Filter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		return imaging.Lanczos, nil
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resampling filter %q", name)
	}
	return f, nil
}

// FitDimensions returns the size of a width x height image scaled down so
// neither side exceeds maxDim, preserving aspect ratio. The longer side
// becomes maxDim and the shorter is rounded. Images already within bounds,
// and maxDim <= 0, return the input unchanged.
func FitDimensions(width, height, maxDim int) (int, int) {
	if maxDim <= 0 || (width <= maxDim && height <= maxDim) {
		return width, height
	}

	if width >= height {
		h := int(math.Round(float64(height) * float64(maxDim) / float64(width)))
		return maxDim, max(h, 1)
	}
	w := int(math.Round(float64(width) * float64(maxDim) / float64(height)))
	return max(w, 1), maxDim
}

// Open decodes the image at path, applying EXIF orientation for JPEGs.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// Resize scales img down to fit within maxDim using filter.
// Returns the input and false when no resize is needed.
func Resize(img image.Image, maxDim int, filter imaging.ResampleFilter) (image.Image, bool) {
	b := img.Bounds()
	w, h := FitDimensions(b.Dx(), b.Dy(), maxDim)
	if w == b.Dx() && h == b.Dy() {
		return img, false
	}
	return imaging.Resize(img, w, h, filter), true
}

// EncodeWebP writes img to w as lossy WebP at quality (0-100) with the given
// effort (encoder method 0-6, higher is slower and smaller).
func EncodeWebP(w io.Writer, img image.Image, quality, effort int) error {
	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality))
	if err != nil {
		return fmt.Errorf("webp options: %w", err)
	}
	options.Method = effort

	if err := webp.Encode(w, imaging.Clone(img), options); err != nil {
		return fmt.Errorf("webp encode: %w", err)
	}
	return nil
}

// DecodeConfig reads only the image header at path and returns its
// dimensions and registered format name.
func DecodeConfig(path string) (width, height int, format string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, "", err
	}
	defer func() { _ = f.Close() }()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, "", fmt.Errorf("decode header %s: %w", path, err)
	}
	return cfg.Width, cfg.Height, format, nil
}
