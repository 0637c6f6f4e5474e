package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/storage"
)

const sampleChart = `flowchart TD
    A([Start])
    B{Approved?}
    C[Ship it]
    A --> B
    B -->|yes| C
    classDef hot fill:#f00
`

// quietUI discards status output for the duration of the test.
func quietUI(t *testing.T) {
	t.Helper()
	old := uiOut
	uiOut = io.Discard
	t.Cleanup(func() { uiOut = old })
}

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	quietUI(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	c := New(io.Discard, log.InfoLevel)
	root := c.RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestParseCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.mmd")
	writeFile(t, path, sampleChart)

	out, err := runCLI(t, "", "parse", path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var doc flow.Document
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if len(doc.Nodes) != 3 || len(doc.Edges) != 2 {
		t.Errorf("got %d nodes, %d edges, want 3, 2", len(doc.Nodes), len(doc.Edges))
	}
}

func TestParseCommandStdinToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "order.json")

	if _, err := runCLI(t, sampleChart, "parse", "-", "-o", output); err != nil {
		t.Fatalf("parse: %v", err)
	}
	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatal(err)
	}
	g, err := flow.ReadJSON(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if n, ok := g.Node("B"); !ok || n.Kind != flow.KindDecision {
		t.Errorf("node B = %+v, want a decision", n)
	}
}

func TestFmtCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.mmd")
	writeFile(t, path, sampleChart)

	_, err := runCLI(t, "", "fmt", "--check", path)
	if !errors.Is(err, errNotFormatted) {
		t.Fatalf("fmt --check on unformatted file: err = %v, want errNotFormatted", err)
	}

	if _, err := runCLI(t, "", "fmt", "-w", path); err != nil {
		t.Fatalf("fmt -w: %v", err)
	}
	data, _ := os.ReadFile(path)
	got := string(data)
	if !strings.HasPrefix(got, "flowchart TD\n") {
		t.Errorf("formatted text does not start with the header:\n%s", got)
	}
	if strings.Contains(got, "classDef") {
		t.Errorf("formatted text kept an unsupported line:\n%s", got)
	}

	if _, err := runCLI(t, "", "fmt", "--check", path); err != nil {
		t.Errorf("fmt --check after fmt -w: %v", err)
	}
}

func TestFmtCommandStdout(t *testing.T) {
	out, err := runCLI(t, sampleChart, "fmt", "-")
	if err != nil {
		t.Fatalf("fmt: %v", err)
	}
	formatted, _ := format(t.Context(), "-", sampleChart)
	if out != formatted {
		t.Errorf("stdout = %q, want %q", out, formatted)
	}
}

func TestFmtCommandFlagsExclusive(t *testing.T) {
	if _, err := runCLI(t, sampleChart, "fmt", "-w", "--check", "-"); err == nil {
		t.Error("fmt -w --check should fail")
	}
}

func TestLayoutCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.mmd")
	writeFile(t, path, sampleChart)

	if _, err := runCLI(t, "", "layout", path, "-d", "LR"); err != nil {
		t.Fatalf("layout: %v", err)
	}

	data, err := os.ReadFile(strings.TrimSuffix(path, ".mmd") + ".layout.json")
	if err != nil {
		t.Fatalf("read layout file: %v", err)
	}
	var lf layoutFile
	if err := json.Unmarshal(data, &lf); err != nil {
		t.Fatal(err)
	}
	if lf.Layout.Engine != layout.EngineLayered {
		t.Errorf("engine = %q, want %q", lf.Layout.Engine, layout.EngineLayered)
	}
	if len(lf.Layout.Positions) != 3 {
		t.Errorf("positions = %d, want 3", len(lf.Layout.Positions))
	}

	// Left to right: the start node is left of the decision.
	pos := map[string]flow.Point{}
	for _, n := range lf.Graph.Nodes {
		pos[n.ID] = n.Position
	}
	if pos["A"].X >= pos["B"].X {
		t.Errorf("LR layout placed A at %v and B at %v", pos["A"], pos["B"])
	}
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "order.mmd")
	writeFile(t, path, sampleChart)
	base := filepath.Join(dir, "build", "order")

	if _, err := runCLI(t, "", "render", path, "-f", "dot,mmd", "-o", base, "--no-cache"); err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, ext := range []string{".dot", ".mmd"} {
		if _, err := os.Stat(base + ext); err != nil {
			t.Errorf("missing %s: %v", base+ext, err)
		}
	}
	dot, _ := os.ReadFile(base + ".dot")
	if !strings.Contains(string(dot), "digraph") {
		t.Errorf("dot output:\n%s", dot)
	}
}

func TestRenderCommandRejectsFormat(t *testing.T) {
	if _, err := runCLI(t, sampleChart, "render", "-", "-f", "gif"); err == nil {
		t.Error("render -f gif should fail")
	}
}

func TestFilesCommand(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mmd"), sampleChart)
	writeFile(t, filepath.Join(root, "flows", "b.mermaid"), sampleChart)
	writeFile(t, filepath.Join(root, "notes.txt"), "hello")

	cfg := filepath.Join(t.TempDir(), "config.toml")
	writeFile(t, cfg, "[storage]\nbackend = \"fs\"\nroot = \""+filepath.ToSlash(root)+"\"\n")

	out, err := runCLI(t, "", "--config", cfg, "files")
	if err != nil {
		t.Fatalf("files: %v", err)
	}
	got := strings.Fields(out)
	want := []string{"a.mmd", "flows/b.mermaid"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("files = %v, want %v", got, want)
	}

	out, err = runCLI(t, "", "--config", cfg, "files", "--all")
	if err != nil {
		t.Fatalf("files --all: %v", err)
	}
	if !strings.Contains(out, "notes.txt") {
		t.Errorf("files --all = %q, want notes.txt listed", out)
	}
}

func TestConfigCommand(t *testing.T) {
	out, err := runCLI(t, "", "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, section := range []string{"[server]", "[storage]", "[layout]", "[cache]"} {
		if !strings.Contains(out, section) {
			t.Errorf("config output missing %s:\n%s", section, out)
		}
	}
}

func TestConfigRejectsMissingExplicitFile(t *testing.T) {
	if _, err := runCLI(t, "", "--config", filepath.Join(t.TempDir(), "nope.toml"), "config"); err == nil {
		t.Error("an explicit config path that does not exist should fail")
	}
}

func TestLayoutFlags(t *testing.T) {
	base := layout.Options{NodeWidth: 99}
	base.SetDefaults()

	tests := []struct {
		name    string
		args    []string
		check   func(layout.Options) bool
		wantErr bool
	}{
		{
			name:  "unchanged flags keep config",
			args:  nil,
			check: func(o layout.Options) bool { return o.NodeWidth == 99 && o.Direction == layout.TopBottom },
		},
		{
			name:  "direction in any case",
			args:  []string{"--direction", "lr"},
			check: func(o layout.Options) bool { return o.Direction == layout.LeftRight && o.NodeWidth == 99 },
		},
		{
			name:  "explicit default overrides config",
			args:  []string{"--node-width", "180", "--sweeps", "2"},
			check: func(o layout.Options) bool { return o.NodeWidth == 180 && o.Sweeps == 2 },
		},
		{
			name:    "bad direction",
			args:    []string{"-d", "XY"},
			wantErr: true,
		},
		{
			name:    "unknown engine",
			args:    []string{"--engine", "dagre"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{Use: "test"}
			lf := addLayoutFlags(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			got, err := lf.apply(cmd, base)
			if (err != nil) != tt.wantErr {
				t.Fatalf("apply() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !tt.check(got) {
				t.Errorf("apply() = %+v", got)
			}
		})
	}
}

func TestResolveFile(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()

	c := New(io.Discard, log.InfoLevel)
	c.Config.Storage.Backend = storage.BackendFS
	c.Config.Storage.Root = root

	tests := []struct {
		name string
		arg  string
		want string
	}{
		{"inside root", filepath.Join(root, "flows", "order.mmd"), "flows/order.mmd"},
		{"outside root", filepath.Join(outside, "other.mmd"), "other.mmd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, got, err := c.resolveFile(t.Context(), tt.arg)
			if err != nil {
				t.Fatalf("resolveFile() error: %v", err)
			}
			defer store.Close()
			if got != tt.want {
				t.Errorf("resolveFile() path = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "svg"},
		{"svg", "svg"},
		{"svg, png,dot", "svg png dot"},
	}

	for _, tt := range tests {
		if got := strings.Join(parseFormats(tt.input), " "); got != tt.want {
			t.Errorf("parseFormats(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestOutputBase(t *testing.T) {
	tests := []struct {
		input, output, want string
	}{
		{"flows/order.mmd", "", "flows/order"},
		{"-", "", "flowchart"},
		{"order.mmd", "out/chart.svg", "out/chart"},
		{"order.mmd", "out/chart", "out/chart"},
	}

	for _, tt := range tests {
		if got := outputBase(tt.input, tt.output); got != tt.want {
			t.Errorf("outputBase(%q, %q) = %q, want %q", tt.input, tt.output, got, tt.want)
		}
	}
}

func TestFormatStats(t *testing.T) {
	cached := true
	got := formatStats(1, 2, 3, &cached)
	for _, want := range []string{"1 node", "2 edges", "3 ignored", iconCached} {
		if !strings.Contains(got, want) {
			t.Errorf("formatStats() = %q, missing %q", got, want)
		}
	}
	if got := formatStats(0, 0, 0, nil); !strings.Contains(got, "empty") {
		t.Errorf("formatStats(empty) = %q", got)
	}
}

func TestCompletions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"file argument", []string{"parse", ""}, []string{"mmd", "mermaid"}},
		{"format list", []string{"render", "order.mmd", "--format", "svg,"}, []string{"svg,png", "svg,dot"}},
		{"engine", []string{"layout", "order.mmd", "--engine", ""}, []string{"layered", "graphviz"}},
		{"direction", []string{"render", "order.mmd", "--direction", ""}, []string{"TB", "LR"}},
		{"mode", []string{"edit", "--mode", ""}, []string{"diagram", "text"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, "", append([]string{cobra.ShellCompRequestCmd}, tt.args...)...)
			if err != nil {
				t.Fatalf("complete: %v", err)
			}
			lines := strings.Split(strings.TrimSpace(out), "\n")
			for _, want := range tt.want {
				if !slices.Contains(lines, want) {
					t.Errorf("completions %q missing %q", lines, want)
				}
			}
		})
	}
}
