package editor

import (
	"context"
	"errors"
	"fmt"
	"slices"

	ferrors "github.com/matzehuels/flowdesk/pkg/errors"
	"github.com/matzehuels/flowdesk/pkg/flow"
)

// ChangeType names a canvas gesture.
type ChangeType string

const (
	ChangeAddNode    ChangeType = "add_node"
	ChangeRemoveNode ChangeType = "remove_node"
	ChangeRenameNode ChangeType = "rename_node"
	ChangeRelabel    ChangeType = "relabel"
	ChangeSetKind    ChangeType = "set_kind"
	ChangeConnect    ChangeType = "connect"
	ChangeRemoveEdge ChangeType = "remove_edge"
	ChangeMove       ChangeType = "move"
	ChangeSelect     ChangeType = "select"
)

// DefaultNodeLabel is the label of nodes added without one.
const DefaultNodeLabel = "New node"

// Change is one gesture reported by the canvas. Which fields are read
// depends on Type:
//
//	add_node     Kind, Label, optional ID
//	remove_node  ID
//	rename_node  ID, NewID
//	relabel      ID, Label
//	set_kind     ID, Kind
//	connect      Source, Target, Label
//	remove_edge  ID (an edge id)
//	move         ID, Position
//	select       Selection (node or edge ids)
type Change struct {
	Type      ChangeType `json:"type"`
	ID        string     `json:"id,omitempty"`
	NewID     string     `json:"new_id,omitempty"`
	Kind      flow.Kind  `json:"kind,omitempty"`
	Label     string     `json:"label,omitempty"`
	Source    string     `json:"source,omitempty"`
	Target    string     `json:"target,omitempty"`
	Position  flow.Point `json:"position"`
	Selection []string   `json:"selection,omitempty"`
}

// structural reports whether the gesture changes what the layout depends
// on and therefore schedules a layout pass.
func (t ChangeType) structural() bool {
	switch t {
	case ChangeMove, ChangeSelect, ChangeRelabel:
		return false
	}
	return true
}

// Apply applies a gesture in diagram mode. Structural gestures schedule a
// debounced layout. Rejected gestures leave the graph untouched; a
// rename onto an existing id also sets a duplicate-id notice. Removing a
// node or edge that is already gone is a no-op.
//
// For add_node the new node becomes the selection, which is how callers
// learn a generated id.
func (s *Session) Apply(ctx context.Context, c Change) error {
	s.mu.Lock()
	if err := s.checkLocked(ModeDiagram); err != nil {
		s.mu.Unlock()
		return err
	}

	err := s.applyLocked(c)
	if errors.Is(err, errUnchanged) {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.publish(snap)
		return nil
	}
	if err != nil {
		err = classify(c, err)
		kind := NoticeInvalidEdit
		if ferrors.Is(err, ferrors.ErrCodeDuplicateID) {
			kind = NoticeDuplicateID
		}
		s.notice = &Notice{Kind: kind, Message: ferrors.UserMessage(err)}
	} else {
		if c.Type != ChangeMove && c.Type != ChangeSelect {
			s.revision++
		}
		if c.Type.structural() {
			s.topology++
			s.scheduleLayoutLocked()
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Debug("gesture rejected", "type", c.Type, "err", err)
	}
	s.publish(snap)
	return err
}

func (s *Session) applyLocked(c Change) error {
	g := s.graph
	switch c.Type {
	case ChangeAddNode:
		kind := c.Kind
		if kind == "" {
			kind = flow.KindNode
		}
		label := c.Label
		if label == "" {
			label = DefaultNodeLabel
		}
		id := c.ID
		if id != "" {
			if err := ferrors.ValidateNodeID(id); err != nil {
				return err
			}
		}
		if id == "" {
			if !slices.Contains(flow.Kinds, kind) {
				return fmt.Errorf("%w: %q", flow.ErrInvalidKind, kind)
			}
			id = g.AddNode(kind, label)
		} else {
			if _, exists := g.Node(id); exists {
				return fmt.Errorf("%w: %s", flow.ErrDuplicateNodeID, id)
			}
			if err := g.Declare(id, kind, label); err != nil {
				return err
			}
		}
		s.selection = []string{id}

	case ChangeRemoveNode:
		if _, ok := g.Node(c.ID); !ok {
			return errUnchanged
		}
		g.RemoveNode(c.ID)
		s.pruneSelectionLocked()

	case ChangeRenameNode:
		if err := ferrors.ValidateNodeID(c.NewID); err != nil {
			return err
		}
		if err := g.RenameNode(c.ID, c.NewID); err != nil {
			return err
		}
		for i, id := range s.selection {
			if id == c.ID {
				s.selection[i] = c.NewID
			}
		}
		s.pruneSelectionLocked()

	case ChangeRelabel:
		return g.Relabel(c.ID, c.Label)

	case ChangeSetKind:
		return g.SetKind(c.ID, c.Kind)

	case ChangeConnect:
		if _, err := g.AddEdge(c.Source, c.Target, c.Label); err != nil {
			return err
		}

	case ChangeRemoveEdge:
		if _, ok := g.Edge(c.ID); !ok {
			return errUnchanged
		}
		g.RemoveEdge(c.ID)
		s.pruneSelectionLocked()

	case ChangeMove:
		return g.SetPosition(c.ID, c.Position)

	case ChangeSelect:
		sel := make([]string, 0, len(c.Selection))
		for _, id := range c.Selection {
			if s.knownLocked(id) && !slices.Contains(sel, id) {
				sel = append(sel, id)
			}
		}
		s.selection = sel

	default:
		return fmt.Errorf("%w: %q", errUnknownChange, c.Type)
	}
	return nil
}

var (
	errUnknownChange = errors.New("unknown change type")

	// errUnchanged reports a gesture that had nothing to do.
	errUnchanged = errors.New("unchanged")
)

func (s *Session) knownLocked(id string) bool {
	if _, ok := s.graph.Node(id); ok {
		return true
	}
	_, ok := s.graph.Edge(id)
	return ok
}

// pruneSelectionLocked drops selected ids that no longer exist. Edge ids
// change when an endpoint is renamed, so selected edges may disappear.
func (s *Session) pruneSelectionLocked() {
	s.selection = slices.DeleteFunc(s.selection, func(id string) bool { return !s.knownLocked(id) })
}

// Selection returns the selected node and edge ids.
func (s *Session) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.selection)
}

// classify attaches a user-facing code to a gesture error. Errors that
// already carry a code pass through.
func classify(c Change, err error) error {
	if ferrors.GetCode(err) != "" {
		return err
	}
	switch {
	case errors.Is(err, flow.ErrDuplicateNodeID):
		if c.Type == ChangeRenameNode {
			return ferrors.Wrap(ferrors.ErrCodeDuplicateID, err,
				"node ID %q is already in use; %q keeps its ID", c.NewID, c.ID)
		}
		return ferrors.Wrap(ferrors.ErrCodeDuplicateID, err, "node ID %q is already in use", c.ID)
	case errors.Is(err, flow.ErrInvalidNodeID):
		return ferrors.Wrap(ferrors.ErrCodeInvalidID, err, "%s: invalid node ID", c.Type)
	case errors.Is(err, flow.ErrInvalidKind):
		return ferrors.Wrap(ferrors.ErrCodeInvalidKind, err, "%s: unknown kind %q", c.Type, c.Kind)
	case errors.Is(err, flow.ErrUnknownNode):
		return ferrors.Wrap(ferrors.ErrCodeNotFound, err, "%s: no node %q", c.Type, subject(c))
	case errors.Is(err, errUnknownChange):
		return ferrors.Wrap(ferrors.ErrCodeUnsupported, err, "unknown gesture %q", c.Type)
	}
	return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "%s rejected", c.Type)
}

// subject is the node a gesture addresses.
func subject(c Change) string {
	if c.Type == ChangeConnect {
		return c.Source
	}
	return c.ID
}
