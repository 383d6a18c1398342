package viz

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

const converterBin = "rsvg-convert"

// ToPNG rasterizes SVG bytes to PNG at the given scale factor (2.0 doubles
// the pixel dimensions). Conversion runs rsvg-convert, so librsvg must be
// installed ("brew install librsvg" / "apt install librsvg2-bin").
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return convertSVG(ctx, svg, "png", "-z", strconv.FormatFloat(scale, 'f', 2, 64))
}

// ToPDF converts SVG bytes to a single-page PDF. Conversion runs
// rsvg-convert, so librsvg must be installed ("brew install librsvg" /
// "apt install librsvg2-bin").
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convertSVG(ctx, svg, "pdf")
}

// convertSVG pipes svg through rsvg-convert and returns the converted
// bytes. The target format and any extra flags are passed straight to the
// tool.
func convertSVG(ctx context.Context, svg []byte, format string, extra ...string) ([]byte, error) {
	bin, err := exec.LookPath(converterBin)
	if err != nil {
		return nil, fmt.Errorf("%s output needs %s (librsvg): %w", format, converterBin, err)
	}

	var out, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, append([]string{"-f", format}, extra...)...)
	cmd.Stdin = bytes.NewReader(svg)
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, fmt.Errorf("%s: %s", converterBin, msg)
		}
		return nil, fmt.Errorf("%s: %w", converterBin, err)
	}
	return out.Bytes(), nil
}
