// Package editor holds the state of one flowchart being edited.
//
// A [Session] owns a file path, the flowchart text and the graph parsed
// from it. Exactly one of the two is authoritative at a time, selected by
// the session [Mode]:
//
//   - [ModeText]: the text is authoritative. [Session.SetText] re-parses it
//     synchronously so a preview can follow every keystroke.
//   - [ModeDiagram]: the graph is authoritative. [Session.Apply] mutates it
//     with canvas gestures; structural gestures schedule a debounced layout
//     so a burst of edits produces one layout pass.
//
// The only transitions are [Session.EnterDiagram], which parses the text a
// final time and lays the graph out, and [Session.EnterText], which
// regenerates the text from the graph. Nothing synchronizes the two
// representations in the background.
//
// # Collaborators
//
// Files are read and written through a [storage.Store]. Read and write
// failures never escape as panics or corrupt the session; they become a
// dismissible [Notice] and the previous state is kept. A [Canvas] receives
// a [Snapshot] whenever the visible state changes, including after every
// layout pass.
//
// # Concurrency
//
// All methods are safe for concurrent use. Layout runs outside the session
// lock on a copy of the graph; a result computed for a topology that has
// since changed is discarded. [Session.Load] may be called while an older
// load is still in flight: whichever started last wins. [Session.Save]
// refuses to start while a save is outstanding.
package editor
