package editor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
	"github.com/matzehuels/flowdesk/pkg/flow"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/mermaid"
	"github.com/matzehuels/flowdesk/pkg/observability"
	"github.com/matzehuels/flowdesk/pkg/pipeline"
	"github.com/matzehuels/flowdesk/pkg/storage"
)

// DefaultDebounce is the delay between the last structural edit and the
// layout pass it triggers.
const DefaultDebounce = 100 * time.Millisecond

var (
	// ErrWrongMode is returned when an operation belongs to the other mode.
	ErrWrongMode = errors.New("operation not available in current mode")

	// ErrSaveInProgress is returned by Save while an earlier save is
	// outstanding.
	ErrSaveInProgress = errors.New("save already in progress")

	// ErrSuperseded is returned by Load when a newer load started before
	// this one finished. The session reflects the newer load.
	ErrSuperseded = errors.New("load superseded by a newer load")

	// ErrClosed is returned by operations on a closed session.
	ErrClosed = errors.New("session closed")
)

// Option configures a [Session].
type Option func(*Session)

// WithDebounce sets the layout debounce. Zero or negative values run the
// layout on the next timer tick.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.debounce = d }
}

// WithLayout sets the layout options used for every pass.
func WithLayout(opts layout.Options) Option {
	return func(s *Session) { s.layoutOpts = opts }
}

// WithRunner sets the pipeline runner, which carries the layout cache.
func WithRunner(r *pipeline.Runner) Option {
	return func(s *Session) { s.runner = r }
}

// WithCanvas sets the canvas that receives snapshots.
func WithCanvas(c Canvas) Option {
	return func(s *Session) { s.canvas = c }
}

// WithLogger sets the session logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithMode sets the initial mode. The default is [ModeDiagram].
func WithMode(m Mode) Option {
	return func(s *Session) { s.mode = m }
}

// Session is the editing state of one flowchart file.
type Session struct {
	store      storage.Store
	runner     *pipeline.Runner
	canvas     Canvas
	logger     *log.Logger
	debounce   time.Duration
	layoutOpts layout.Options

	mu        sync.Mutex
	idle      *sync.Cond // signalled when pending drops
	path      string
	mode      Mode
	text      string
	graph     *flow.Graph
	ignored   int
	width     float64
	height    float64
	selection []string
	notice    *Notice
	saving    bool
	closed    bool

	loadGen  uint64 // incremented by every Load
	topology uint64 // incremented by every structural change
	revision uint64 // incremented by every change to the serialized form
	savedRev uint64
	timer    *time.Timer
	pending  int // layouts scheduled or running
}

// New creates a session for path backed by store. The session starts
// empty; call [Session.Load] to read the file.
func New(store storage.Store, path string, opts ...Option) *Session {
	s := &Session{
		store:    store,
		path:     path,
		debounce: DefaultDebounce,
		graph:    flow.New(),
		text:     mermaid.Header + "\n",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	if s.runner == nil {
		s.runner = pipeline.NewRunner(nil, nil, s.logger)
	}
	s.layoutOpts = s.layoutOpts.Normalized()
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Path returns the file the session reads and writes.
func (s *Session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Text returns the flowchart text of the authoritative representation.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textLocked()
}

func (s *Session) textLocked() string {
	if s.mode == ModeText {
		return s.text
	}
	return mermaid.Serialize(s.graph)
}

// Graph returns a copy of the current graph.
func (s *Session) Graph() *flow.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Clone()
}

// =============================================================================
// Loading
// =============================================================================

// Load reads the session's file. See [Session.Open].
func (s *Session) Load(ctx context.Context) error {
	return s.Open(ctx, s.Path())
}

// Open switches the session to path and reads it. On success the text and
// graph are replaced and, in diagram mode, laid out immediately. On
// failure a read-failure notice is set and the previous state is kept.
//
// If another Open starts before this one completes, this one returns
// [ErrSuperseded] without touching the session.
func (s *Session) Open(ctx context.Context, path string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	text, err := s.store.Read(ctx, path)
	observability.Editor().OnLoad(ctx, path, len(text), err)

	s.mu.Lock()
	if gen != s.loadGen {
		s.mu.Unlock()
		return ErrSuperseded
	}
	if err != nil {
		err = readFailure(path, err)
		s.notice = &Notice{Kind: NoticeReadFailure, Message: ferrors.UserMessage(err)}
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.logger.Warn("load failed", "path", path, "err", err)
		s.publish(snap)
		return err
	}

	s.path = path
	s.text = text
	s.replaceGraphLocked(ctx, path, text)
	s.selection = nil
	s.notice = nil
	s.savedRev = s.revision
	mode := s.mode
	s.mu.Unlock()

	s.logger.Debug("loaded", "path", path, "bytes", len(text))
	if mode == ModeDiagram {
		return s.LayoutNow(ctx)
	}
	s.publishCurrent()
	return nil
}

func readFailure(path string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ferrors.Wrap(ferrors.ErrCodeFileNotFound, err, "cannot open %s: file not found", path)
	}
	if ferrors.GetCode(err) != "" {
		return err
	}
	return ferrors.Wrap(ferrors.ErrCodeReadFailure, err, "cannot open %s: %v", path, err)
}

// replaceGraphLocked parses text into a fresh graph and cancels any layout
// scheduled for the old one.
func (s *Session) replaceGraphLocked(ctx context.Context, source, text string) {
	g, stats := pipeline.Parse(ctx, source, text)
	s.graph = g
	s.ignored = stats.Ignored
	s.topology++
	s.cancelLayoutLocked()
}

// =============================================================================
// Modes
// =============================================================================

// SetText replaces the text in text mode and re-parses it for the preview.
func (s *Session) SetText(ctx context.Context, text string) error {
	s.mu.Lock()
	if err := s.checkLocked(ModeText); err != nil {
		s.mu.Unlock()
		return err
	}
	if text == s.text {
		s.mu.Unlock()
		return nil
	}
	s.text = text
	s.revision++
	s.replaceGraphLocked(ctx, s.path, text)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
	return nil
}

// EnterDiagram leaves text mode. The text is parsed a final time, the
// resulting graph becomes authoritative and is laid out immediately.
// Calling it in diagram mode does nothing.
func (s *Session) EnterDiagram(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.mode == ModeDiagram {
		s.mu.Unlock()
		return nil
	}
	s.replaceGraphLocked(ctx, s.path, s.text)
	s.mode = ModeDiagram
	s.selection = nil
	path := s.path
	s.mu.Unlock()

	observability.Editor().OnModeChange(ctx, path, ModeText.String(), ModeDiagram.String())
	return s.LayoutNow(ctx)
}

// EnterText leaves diagram mode. The text is regenerated from the graph and
// any pending layout is dropped. Calling it in text mode does nothing.
func (s *Session) EnterText(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.mode == ModeText {
		s.mu.Unlock()
		return nil
	}
	s.text = mermaid.Serialize(s.graph)
	s.mode = ModeText
	s.cancelLayoutLocked()
	path := s.path
	snap := s.snapshotLocked()
	s.mu.Unlock()

	observability.Editor().OnModeChange(ctx, path, ModeDiagram.String(), ModeText.String())
	s.publish(snap)
	return nil
}

func (s *Session) checkLocked(want Mode) error {
	if s.closed {
		return ErrClosed
	}
	if s.mode != want {
		return ferrors.Wrap(ferrors.ErrCodeWrongMode, ErrWrongMode, "switch to %s mode first", want)
	}
	return nil
}

// =============================================================================
// Saving
// =============================================================================

// Save writes the authoritative representation to the session's file. It
// fails with [ErrSaveInProgress] if a save is outstanding. A write failure
// sets a write-failure notice and leaves the session dirty.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.saving {
		s.mu.Unlock()
		return ferrors.Wrap(ferrors.ErrCodeSaveInProgress, ErrSaveInProgress, "a save is already in progress")
	}
	s.saving = true
	path := s.path
	content := s.textLocked()
	rev := s.revision
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)

	start := time.Now()
	err := s.store.Write(ctx, path, content)
	observability.Editor().OnSave(ctx, path, len(content), time.Since(start), err)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		if ferrors.GetCode(err) == "" {
			err = ferrors.Wrap(ferrors.ErrCodeWriteFailure, err, "cannot save %s: %v", path, err)
		}
		s.notice = &Notice{Kind: NoticeWriteFailure, Message: ferrors.UserMessage(err)}
	} else {
		if s.revision == rev {
			s.savedRev = rev
		}
		s.notice = &Notice{Kind: NoticeSaved, Message: fmt.Sprintf("saved %s", path)}
	}
	snap = s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("save failed", "path", path, "err", err)
	} else {
		s.logger.Info("saved", "path", path, "bytes", len(content))
	}
	s.publish(snap)
	return err
}

// Saving reports whether a save is outstanding.
func (s *Session) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

// Dirty reports whether the session has changes that were not saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision != s.savedRev
}

// =============================================================================
// Notices and snapshots
// =============================================================================

// Notice returns the current notice, or nil.
func (s *Session) Notice() *Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return nil
	}
	n := *s.notice
	return &n
}

// Dismiss clears the current notice.
func (s *Session) Dismiss() {
	s.mu.Lock()
	s.notice = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.publish(snap)
}

// Snapshot returns a copy of the visible state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		Path:      s.path,
		Mode:      s.mode,
		Text:      s.textLocked(),
		Graph:     flow.ToDocument(s.graph),
		Width:     s.width,
		Height:    s.height,
		Selection: slices.Clone(s.selection),
		Saving:    s.saving,
		Dirty:     s.revision != s.savedRev,
		Stale:     s.graph.Stale(),
		Ignored:   s.ignored,
	}
	if s.notice != nil {
		n := *s.notice
		snap.Notice = &n
	}
	return snap
}

func (s *Session) publish(snap Snapshot) {
	if s.canvas != nil {
		s.canvas.Update(snap)
	}
}

func (s *Session) publishCurrent() { s.publish(s.Snapshot()) }

// Close cancels any pending layout and waits for a running one to finish.
// Later calls return [ErrClosed].
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.cancelLayoutLocked()
	for s.pending > 0 {
		s.idle.Wait()
	}
	return nil
}
