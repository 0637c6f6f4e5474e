package render

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"

	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
)

// converter is the librsvg command line tool used for raster and PDF
// output.
const converter = "rsvg-convert"

// pngScale renders PNGs at twice the SVG size so labels stay readable.
const pngScale = 2.0

// ErrNoConverter is returned when rsvg-convert is not on the PATH.
var ErrNoConverter = errors.New(converter + " not found")

// ToPDF converts an SVG document to PDF.
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return convert(ctx, svg, FormatPDF)
}

// ToPNG converts an SVG document to PNG, scaled by scale (1 if not
// positive).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	return convert(ctx, svg, FormatPNG, "--zoom", strconv.FormatFloat(scale, 'f', 2, 64))
}

func convert(ctx context.Context, svg []byte, format string, args ...string) ([]byte, error) {
	bin, err := exec.LookPath(converter)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeUnsupported, ErrNoConverter,
			"%s output needs librsvg (brew install librsvg, apt install librsvg2-bin)", format)
	}

	cmd := exec.CommandContext(ctx, bin, append([]string{"--format", format}, args...)...)
	cmd.Stdin = bytes.NewReader(svg)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ferrors.Wrap(ferrors.ErrCodeInternal, err, "%s conversion failed: %s", format, strings.TrimSpace(stderr.String()))
	}
	return stdout.Bytes(), nil
}
