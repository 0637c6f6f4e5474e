package editor

import (
	"context"
	"errors"
	"time"

	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/pipeline"
)

// LayoutNow drops any scheduled layout and lays the graph out before
// returning. It is only available in diagram mode.
func (s *Session) LayoutNow(ctx context.Context) error {
	s.mu.Lock()
	if err := s.checkLocked(ModeDiagram); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cancelLayoutLocked()
	s.mu.Unlock()
	return s.layoutOnce(ctx)
}

// Flush runs a scheduled layout immediately and waits until no layout is
// pending or running.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	run := false
	if s.timer != nil && s.timer.Stop() {
		s.timer = nil
		s.pending--
		run = true
	}
	s.mu.Unlock()

	var err error
	if run {
		err = s.layoutOnce(ctx)
	}

	s.mu.Lock()
	for s.pending > 0 {
		s.idle.Wait()
	}
	s.mu.Unlock()
	return err
}

// scheduleLayoutLocked (re)arms the debounce timer. A timer that has not
// fired yet is replaced, so a burst of edits yields one pass.
func (s *Session) scheduleLayoutLocked() {
	if s.timer == nil || !s.timer.Stop() {
		s.pending++
	}
	s.timer = time.AfterFunc(s.debounce, s.runScheduled)
}

// cancelLayoutLocked stops a timer that has not fired. A timer that already
// fired finishes on its own and its result is discarded if the topology
// moved on.
func (s *Session) cancelLayoutLocked() {
	if s.timer != nil && s.timer.Stop() {
		s.pending--
		s.idle.Broadcast()
	}
	s.timer = nil
}

func (s *Session) runScheduled() {
	defer func() {
		s.mu.Lock()
		s.pending--
		s.idle.Broadcast()
		s.mu.Unlock()
	}()

	s.mu.Lock()
	skip := s.closed || s.mode != ModeDiagram
	s.mu.Unlock()
	if skip {
		return
	}
	if err := s.layoutOnce(context.Background()); err != nil && !errors.Is(err, ErrClosed) {
		s.logger.Warn("layout failed", "err", err)
	}
}

// layoutOnce lays out a copy of the graph without holding the lock and
// applies the result if the topology did not change meanwhile.
func (s *Session) layoutOnce(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	g := s.graph.Clone()
	topo := s.topology
	opts := pipeline.Options{Source: s.path, Layout: s.layoutOpts, Logger: s.logger}
	s.mu.Unlock()

	res, err := s.runner.Layout(ctx, g, opts)

	s.mu.Lock()
	if err != nil {
		err = ferrors.Wrap(ferrors.ErrCodeLayout, err, "layout failed: %v", err)
		s.notice = &Notice{Kind: NoticeLayout, Message: ferrors.UserMessage(err)}
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.publish(snap)
		return err
	}
	if topo != s.topology {
		s.mu.Unlock()
		return nil
	}
	layout.Apply(s.graph, res)
	s.graph.MarkLaidOut()
	s.width, s.height = res.Width, res.Height
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("laid out", "path", opts.Source, "nodes", len(res.Positions), "crossings", res.Crossings)
	s.publish(snap)
	return nil
}
