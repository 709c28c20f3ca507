package render

import (
	"fmt"
	"image/png"
	"io"
	"strings"

	"github.com/jwulff/glucotrack/internal/domain"
)

// EncodePNG writes the frame as a PNG, enlarged by scale so individual
// pixels stay crisp in a browser.
func EncodePNG(w io.Writer, frame *domain.Frame, scale int) error {
	if err := png.Encode(w, frame.Scale(scale).Image()); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// FrameASCII renders the frame as block characters by brightness, with a border.
func FrameASCII(frame *domain.Frame) string {
	var b strings.Builder

	b.WriteString("┌")
	b.WriteString(strings.Repeat("─", frame.Width))
	b.WriteString("┐\n")

	for y := 0; y < frame.Height; y++ {
		b.WriteString("│")
		for x := 0; x < frame.Width; x++ {
			b.WriteString(shade(frame.GetPixel(x, y)))
		}
		b.WriteString("│\n")
	}

	b.WriteString("└")
	b.WriteString(strings.Repeat("─", frame.Width))
	b.WriteString("┘\n")
	return b.String()
}

func shade(pixel *domain.RGB) string {
	if pixel == nil {
		return " "
	}
	brightness := (int(pixel.R) + int(pixel.G) + int(pixel.B)) / 3

	switch {
	case brightness > 200:
		return "█"
	case brightness > 150:
		return "▓"
	case brightness > 100:
		return "▒"
	case brightness > 50:
		return "░"
	case brightness > 10:
		return "·"
	default:
		return " "
	}
}
