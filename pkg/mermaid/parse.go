package mermaid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/matzehuels/flowdesk/pkg/flow"
)

// Stats describes what a parse consumed.
type Stats struct {
	Lines        int // non-empty lines, header excluded
	Declarations int // lines matched by a node rule
	Connections  int // lines matched by an edge rule
	Ignored      int // lines matched by neither
}

var (
	startMarkers = []string{"start", "begin", "user", "用户", "开始"}
	endMarkers   = []string{"end", "finish", "stop", "结束"}
)

func hasMarker(s string, markers []string) bool {
	s = strings.ToLower(s)
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// declRule recognises one node shape. Each pattern captures the id, then
// either a quoted or a bare label, then an optional class suffix.
type declRule struct {
	re   *regexp.Regexp
	kind func(id, label, class string) flow.Kind
}

// Rules are tried in order; the first match wins. Only the shape decides
// between node, decision and terminal, so every kind is written back with
// the shape it was read from.
var declRules = []declRule{
	{
		re:   regexp.MustCompile(`^\s*(\w+)\s*\{(?:"([^"]*)"|([^}]+))\}()`),
		kind: func(string, string, string) flow.Kind { return flow.KindDecision },
	},
	{
		re:   regexp.MustCompile(`^\s*(\w+)\s*\[(?:"([^"]*)"|([^\]]+))\]()`),
		kind: func(string, string, string) flow.Kind { return flow.KindNode },
	},
	{
		re:   regexp.MustCompile(`^\s*(\w+)\s*\(\[(?:"([^"]*)"|([^\]]+))\]\)(?::::(\w+))?`),
		kind: terminalKind,
	},
}

// terminalKind resolves the stadium shape, which start and end share. An
// explicit start or end class wins; otherwise markers in the id, then in
// the label, decide, and an unmarked terminal is an end.
func terminalKind(id, label, class string) flow.Kind {
	switch strings.ToLower(class) {
	case string(flow.KindStart):
		return flow.KindStart
	case string(flow.KindEnd):
		return flow.KindEnd
	}
	return markedKind(id, label)
}

func markedKind(id, label string) flow.Kind {
	switch {
	case hasMarker(id, startMarkers):
		return flow.KindStart
	case hasMarker(id, endMarkers):
		return flow.KindEnd
	case hasMarker(label, startMarkers):
		return flow.KindStart
	default:
		return flow.KindEnd
	}
}

// Edge rules: the labelled arrow must be tried before the plain one, which
// would otherwise stop at the pipe.
var (
	labeledEdge = regexp.MustCompile(`^\s*(\w+)\s*--?>\s*\|(?:"([^"]*)"|([^|]+))\|\s*(\w+)`)
	plainEdge   = regexp.MustCompile(`^\s*(\w+)\s*--?>\s*(\w+)`)
)

// header matches the diagram-type line only, so ids such as graph_load are
// still parsed as nodes.
var header = regexp.MustCompile(`(?i)^\s*(?:flowchart|graph)(?:\s+(?:TD|TB|BT|RL|LR))?\s*;?\s*$`)

func isHeader(line string) bool { return header.MatchString(line) }

func isComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "%%")
}

// captured returns the quoted capture if present, otherwise the trimmed
// bare capture.
func captured(m []string, quoted, bare int) string {
	if m[quoted] != "" || m[bare] == "" {
		return decodeLabel(m[quoted])
	}
	return decodeLabel(strings.TrimSpace(m[bare]))
}

// Parse converts flowchart text into a graph. It never fails; see
// [ParseWithStats] for how many lines were skipped.
func Parse(text string) *flow.Graph {
	g, _ := ParseWithStats(text)
	return g
}

// ParseWithStats is like [Parse] and also reports line statistics.
//
// Parsing runs in two passes so that declarations anywhere in the text take
// effect before connections create placeholders.
func ParseWithStats(text string) (*flow.Graph, Stats) {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" || isHeader(line) || isComment(line) {
			continue
		}
		lines = append(lines, line)
	}

	g := flow.New()
	st := Stats{Lines: len(lines)}
	matched := make([]bool, len(lines))

	for i, line := range lines {
		for _, rule := range declRules {
			m := rule.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			id, label := m[1], captured(m, 2, 3)
			// Patterns only admit word ids, so Declare cannot fail here.
			_ = g.Declare(id, rule.kind(id, label, m[4]), label)
			matched[i] = true
			st.Declarations++
			break
		}
	}

	for i, line := range lines {
		var source, target, label string
		if m := labeledEdge.FindStringSubmatch(line); m != nil {
			source, label, target = m[1], captured(m, 2, 3), m[4]
		} else if m := plainEdge.FindStringSubmatch(line); m != nil {
			source, target = m[1], m[2]
		} else {
			continue
		}
		if _, ok := g.Node(source); !ok {
			_ = g.Declare(source, flow.KindNode, source)
		}
		_, _ = g.AddEdge(source, target, label)
		matched[i] = true
		st.Connections++
	}

	for _, ok := range matched {
		if !ok {
			st.Ignored++
		}
	}
	return g, st
}

// ParseReader reads all of r and parses it. Only read errors are returned.
func ParseReader(r io.Reader) (*flow.Graph, error) {
	var b strings.Builder
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		b.WriteString(sc.Text())
		b.WriteByte('\n')
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return Parse(b.String()), nil
}

// ReadFile parses the flowchart file at path.
func ReadFile(path string) (*flow.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ParseReader(f)
}
