package editor

import "github.com/matzehuels/flowdesk/pkg/flow"

// NoticeKind classifies a [Notice].
type NoticeKind string

const (
	NoticeReadFailure  NoticeKind = "read_failure"
	NoticeWriteFailure NoticeKind = "write_failure"
	NoticeDuplicateID  NoticeKind = "duplicate_id"
	NoticeInvalidEdit  NoticeKind = "invalid_edit"
	NoticeLayout       NoticeKind = "layout_failure"
	NoticeSaved        NoticeKind = "saved"
)

// Notice is the inline message shown to the user until dismissed or
// replaced.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// IsError reports whether the notice describes a failure.
func (n Notice) IsError() bool { return n.Kind != NoticeSaved }

// Snapshot is a point-in-time copy of everything a canvas draws. It shares
// no memory with the session.
type Snapshot struct {
	Path      string        `json:"path"`
	Mode      Mode          `json:"mode"`
	Text      string        `json:"text"`
	Graph     flow.Document `json:"graph"`
	Width     float64       `json:"width"`
	Height    float64       `json:"height"`
	Selection []string      `json:"selection,omitempty"`
	Notice    *Notice       `json:"notice,omitempty"`
	Saving    bool          `json:"saving"`
	Dirty     bool          `json:"dirty"`
	Stale     bool          `json:"stale"`
	Ignored   int           `json:"ignored"`
}

// Canvas draws snapshots. Update is called without the session lock held,
// so it may call back into the session.
type Canvas interface {
	Update(Snapshot)
}

// CanvasFunc adapts a function to the [Canvas] interface.
type CanvasFunc func(Snapshot)

// Update calls f(s).
func (f CanvasFunc) Update(s Snapshot) { f(s) }
