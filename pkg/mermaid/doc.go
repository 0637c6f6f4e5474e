// Package mermaid reads and writes the flowchart subset of Mermaid text.
//
// # Grammar
//
// The supported subset is line oriented:
//
//	flowchart TD
//	    start(["Begin"])
//	    check{"Valid?"}
//	    work["Process"]
//	    start --> check
//	    check -->|"yes"| work
//
// Node declarations come in three shapes: id{label} for decisions,
// id([label]) for start and end terminals, and id[label] for everything else.
// Labels may be bare or double-quoted. Connections are A --> B or
// A -->|label| B; a single-dash arrow (A -> B) is accepted as well.
//
// # Leniency
//
// [Parse] never fails. Lines that match no rule are skipped and counted in
// [Stats.Ignored]. Connections that mention undeclared ids create
// placeholder nodes of kind node labelled with their id.
//
// # Kind Inference
//
// The shape decides the kind: braces are decisions, brackets are plain
// nodes and the rounded stadium is a terminal. Start and end share the
// stadium, so marker words in the id, then the label, tell them apart
// ("start", "begin", "user" against "end", "finish", "stop"), and an
// unmarked terminal is an end. A trailing class (id([label]):::start)
// overrides the markers; [Serialize] writes one only when the markers would
// read the kind back wrongly, so whatever it writes parses to the same
// kind:
//
//	parse(serialize(parse(text))) ≅ parse(text)
//
// [Equivalent] checks that relation.
//
// # Escaping
//
// The serializer always quotes labels. Characters that would end a quoted
// label are written as Mermaid entity codes (#quot;, #35;, #lt;, #gt;) and
// newlines as <br/>. The parser decodes the same set.
package mermaid
