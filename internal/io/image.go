package ioutils

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // GIF decoder registration
	_ "image/jpeg" // JPEG decoder registration
	_ "image/png"  // PNG decoder registration
	"strings"

	"github.com/charmbracelet/lipgloss"
	_ "golang.org/x/image/bmp" // BMP decoder registration
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration
)

// ImageService renders visualisation images for the terminal.
//
// Example usage:
//
//	svc := NewImageService()
//	preview, err := svc.Preview(ctx, pngData, 80, 40)
type ImageService struct{}

// NewImageService creates a new ImageService.
func NewImageService() *ImageService {
	return &ImageService{}
}

// Decode decodes an image and reports its format name.
func (s *ImageService) Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decoding image: %w", err)
	}
	return img, format, nil
}

// Fit returns the largest width and height that fit within maxWidth x
// maxHeight while keeping the aspect ratio. Images that already fit are
// returned unchanged.
func Fit(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= 0 || height <= 0 {
		return 0, 0
	}
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	ratio := float64(width) / float64(height)
	if float64(maxWidth)/float64(maxHeight) > ratio {
		// Height is the limiting factor
		width = max(1, int(float64(maxHeight)*ratio))
		height = maxHeight
	} else {
		// Width is the limiting factor
		height = max(1, int(float64(maxWidth)/ratio))
		width = maxWidth
	}
	return width, height
}

// ResizeImage scales img to fit within maxWidth x maxHeight pixels over an
// opaque black background.
//
// The Catmull-Rom algorithm is used for high-quality scaling.
func (s *ImageService) ResizeImage(img image.Image, maxWidth, maxHeight int) *image.RGBA {
	bounds := img.Bounds()
	width, height := Fit(bounds.Dx(), bounds.Dy(), maxWidth, maxHeight)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), image.Black, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	return dst
}

// Preview renders an image as at most columns x rows terminal cells.
//
// Each cell shows two vertical pixels using the upper half block, the top
// pixel as foreground and the bottom pixel as background colour.
func (s *ImageService) Preview(ctx context.Context, data []byte, columns, rows int) (string, error) {
	if columns <= 0 || rows <= 0 {
		return "", fmt.Errorf("preview area %dx%d is empty", columns, rows)
	}

	img, _, err := s.Decode(data)
	if err != nil {
		return "", err
	}

	scaled := s.ResizeImage(img, columns, rows*2)
	bounds := scaled.Bounds()

	var b strings.Builder
	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := scaled.RGBAAt(x, y)
			bottom := color.RGBA{A: 0xff}
			if y+1 < bounds.Max.Y {
				bottom = scaled.RGBAAt(x, y+1)
			}
			b.WriteString(lipgloss.NewStyle().
				Foreground(hexColor(top)).
				Background(hexColor(bottom)).
				Render("▀"))
		}
		if y+2 < bounds.Max.Y {
			b.WriteByte('\n')
		}
	}

	return b.String(), nil
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}
