package render

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/mermaid"
)

// Output formats.
const (
	FormatSVG     = "svg"
	FormatPNG     = "png"
	FormatPDF     = "pdf"
	FormatDOT     = "dot"
	FormatJSON    = "json"
	FormatMermaid = "mmd"
)

// Formats lists every supported output format.
var Formats = []string{FormatSVG, FormatPNG, FormatPDF, FormatDOT, FormatJSON, FormatMermaid}

// ValidateFormat checks that format is supported.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return fmt.Errorf("invalid format: %q (must be one of: svg, png, pdf, dot, json, mmd)", format)
	}
	return nil
}

// ContentType returns the MIME type served for format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	case FormatPDF:
		return "application/pdf"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Render produces g in the given format.
func Render(ctx context.Context, g *flow.Graph, format string, opts ...Option) ([]byte, error) {
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	o := newOptions(g, opts)

	switch format {
	case FormatMermaid:
		return []byte(mermaid.Serialize(g)), nil
	case FormatJSON:
		var buf bytes.Buffer
		if err := flow.WriteJSON(g, &buf); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatDOT:
		return []byte(toDOT(g, o)), nil
	}

	svg, err := RenderSVG(ctx, toDOT(g, o), *o.Pinned)
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatPNG:
		return ToPNG(ctx, svg, pngScale)
	case FormatPDF:
		return ToPDF(ctx, svg)
	default:
		return svg, nil
	}
}
