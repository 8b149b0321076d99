// Package seed provides the image every session starts from.
package seed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"strings"

	"github.com/bnema/evo/internal/domain"
)

const DefaultSize = 512

// Load reads the seed from path, or renders the default circle when path
// is empty.
func Load(ctx context.Context, path string) (domain.Image, error) {
	if err := ctx.Err(); err != nil {
		return domain.Image{}, err
	}

	path = strings.TrimSpace(path)
	if path == "" {
		return Circle(DefaultSize)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Image{}, fmt.Errorf("read seed image %s: %w", path, err)
	}
	if len(data) == 0 {
		return domain.Image{}, fmt.Errorf("%w: seed image %s is empty", domain.ErrInvalidImage, path)
	}

	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") {
		return domain.Image{}, fmt.Errorf("%w: seed %s has content type %s", domain.ErrInvalidImage, path, mimeType)
	}

	return domain.NewImage(data, mimeType), nil
}

// Circle renders a black circle outline on a white square.
func Circle(size int) (domain.Image, error) {
	if size <= 0 {
		return domain.Image{}, fmt.Errorf("seed size must be positive, got %d", size)
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	black := color.RGBA{A: 255}

	center := float64(size) / 2
	outer := float64(size) * 0.35
	inner := outer - float64(size)/64 - 1

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - center
			dy := float64(y) + 0.5 - center
			dist := dx*dx + dy*dy

			if dist <= outer*outer && dist >= inner*inner {
				img.SetRGBA(x, y, black)
				continue
			}
			img.SetRGBA(x, y, white)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return domain.Image{}, fmt.Errorf("encode seed png: %w", err)
	}

	return domain.NewImage(buf.Bytes(), "image/png"), nil
}
