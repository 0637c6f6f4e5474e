package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/mermaid"
)

const sample = `flowchart TD
    begin([Start])
    check{"Valid?"}
    finish([End])
    begin --> check
    check -->|yes| finish
    check -->|no| begin
`

func TestToDOTUnpinned(t *testing.T) {
	g := mermaid.Parse(sample)
	dot := ToDOT(g)

	for _, want := range []string{
		"rankdir=TB;",
		`"begin" [label="Start", shape=box, style="rounded,filled", peripheries=2];`,
		`"check" [label="Valid?", shape=diamond];`,
		`"check" -> "finish" [label="yes"];`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "pos=") {
		t.Error("a graph that was never laid out must not pin positions")
	}
}

func TestToDOTPinned(t *testing.T) {
	g := mermaid.Parse(sample)
	if _, err := layout.Run(context.Background(), layout.Layered{}, g, layout.Options{}); err != nil {
		t.Fatal(err)
	}
	dot := ToDOT(g)

	if !strings.Contains(dot, "splines=true;") {
		t.Errorf("pinned DOT should enable splines:\n%s", dot)
	}
	// begin is the top node: centre x = 90, flipped centre y = extent - 30.
	b, _ := g.Node("begin")
	want := `pos="` + inches(b.Position.X+90) + ","
	if !strings.Contains(dot, want) {
		t.Errorf("DOT missing pinned position %q:\n%s", want, dot)
	}
	if !strings.Contains(dot, "tailport=s") || !strings.Contains(dot, "headport=n") {
		t.Errorf("edge sides should become ports:\n%s", dot)
	}
	// check -> begin closes a cycle with begin -> check, so both are dashed.
	if strings.Count(dot, "style=dashed") != 2 {
		t.Errorf("want 2 dashed edges:\n%s", dot)
	}
}

func TestToDOTOptions(t *testing.T) {
	g := mermaid.Parse(sample)
	dot := ToDOT(g, WithDirection(layout.LeftRight), WithNodeSize(144, 72), WithPinned(false))
	if !strings.Contains(dot, "rankdir=LR;") {
		t.Error("WithDirection not applied")
	}
	if !strings.Contains(dot, "width=2.0000, height=1.0000") {
		t.Errorf("WithNodeSize not applied:\n%s", dot)
	}
}

func TestQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{"two\nlines", `"two\nlines"`},
		{`back\slash`, `"back\\slash"`},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestPort(t *testing.T) {
	tests := map[flow.Side]string{
		flow.SideTop:    "n",
		flow.SideBottom: "s",
		flow.SideLeft:   "w",
		flow.SideRight:  "e",
		"":              "",
	}
	for side, want := range tests {
		if got := port(side); got != want {
			t.Errorf("port(%q) = %q, want %q", side, got, want)
		}
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox =\n%s\nwant\n%s", got, want)
	}

	noBox := []byte(`<svg><g/></svg>`)
	if !bytes.Equal(normalizeViewBox(noBox), noBox) {
		t.Error("SVG without viewBox should be unchanged")
	}
}

func TestValidateFormat(t *testing.T) {
	for _, f := range Formats {
		if err := ValidateFormat(f); err != nil {
			t.Errorf("ValidateFormat(%q) = %v", f, err)
		}
	}
	if err := ValidateFormat("gif"); err == nil {
		t.Error("ValidateFormat(gif) should fail")
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType(FormatSVG); got != "image/svg+xml" {
		t.Errorf("ContentType(svg) = %q", got)
	}
	if got := ContentType(FormatMermaid); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("ContentType(mmd) = %q", got)
	}
}

func TestRenderText(t *testing.T) {
	ctx := context.Background()
	g := mermaid.Parse(sample)

	mmd, err := Render(ctx, g, FormatMermaid)
	if err != nil {
		t.Fatal(err)
	}
	if !mermaid.Equivalent(mermaid.Parse(string(mmd)), g) {
		t.Error("mmd output should re-parse to the same graph")
	}

	js, err := Render(ctx, g, FormatJSON)
	if err != nil {
		t.Fatal(err)
	}
	back, err := flow.ReadJSON(bytes.NewReader(js))
	if err != nil {
		t.Fatal(err)
	}
	if back.NodeCount() != 3 || back.EdgeCount() != 3 {
		t.Errorf("json round trip: %d nodes, %d edges", back.NodeCount(), back.EdgeCount())
	}

	dot, err := Render(ctx, g, FormatDOT)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(dot), "digraph G {") {
		t.Errorf("dot output = %q", dot[:20])
	}

	if _, err := Render(ctx, g, "gif"); err == nil {
		t.Error("Render(gif) should fail")
	}
}

func TestRenderSVG(t *testing.T) {
	ctx := context.Background()
	g := mermaid.Parse(sample)
	if _, err := layout.Run(ctx, layout.Layered{}, g, layout.Options{}); err != nil {
		t.Fatal(err)
	}

	for _, pinned := range []bool{true, false} {
		svg, err := RenderSVG(ctx, ToDOT(g, WithPinned(pinned)), pinned)
		if err != nil {
			t.Fatalf("RenderSVG(pinned=%v): %v", pinned, err)
		}
		s := string(svg)
		if !strings.Contains(s, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
			t.Errorf("pinned=%v: normalized svg tag missing", pinned)
		}
		if !strings.Contains(s, "Valid?") {
			t.Errorf("pinned=%v: node label missing from SVG", pinned)
		}
	}
}

func TestConvertWithoutConverter(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	ctx := context.Background()

	convs := map[string]func() ([]byte, error){
		FormatPDF: func() ([]byte, error) { return ToPDF(ctx, []byte("<svg/>")) },
		FormatPNG: func() ([]byte, error) { return ToPNG(ctx, []byte("<svg/>"), 0) },
	}
	for format, conv := range convs {
		_, err := conv()
		if !errors.Is(err, ErrNoConverter) {
			t.Errorf("%s without %s = %v, want ErrNoConverter", format, converter, err)
		}
		if !ferrors.Is(err, ferrors.ErrCodeUnsupported) {
			t.Errorf("%s code = %q, want %q", format, ferrors.GetCode(err), ferrors.ErrCodeUnsupported)
		}
	}
}
