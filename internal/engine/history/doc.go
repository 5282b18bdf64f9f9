// Package history provides the event log and undo/redo engine for a
// document.
//
// Every mutation flows through a single Event sum type (Insert, Delete,
// AddCursor, RemoveCursor, MoveCursor, AddOverlay, RemoveOverlay, Batch)
// applied via History.Apply to anything implementing Target. Apply
// follows a fixed six-step protocol: open a group for a Batch, snapshot
// the cursor set, mutate buffer/cursors/overlays, translate every cursor
// through the edit, normalize the cursor set, and push the event to the
// past stack while clearing future.
//
// # Undo/redo
//
// History keeps two vectors of events (past, future). Undo pops past,
// applies the event's inverse, restores the cursor snapshot recorded
// alongside it exactly (not merely whatever the inverse transform would
// produce), and pushes the original event to future. Redo is symmetric:
// it restores that same snapshot and reapplies the original event
// forward, which deterministically reproduces the same end cursor state
// because Apply's cursor transform is a pure function of the starting
// set and the edit.
//
// # Batches
//
// A Batch groups several events into one undo unit: multi-cursor typing,
// deleting, and pasting all decompose into a Batch so that undoing them
// reverses every cursor's effect together. Batches never nest; Batch
// flattens any nested batch at construction.
//
// # Read-only motion
//
// Pure caret motion with no selection change and no buffer or overlay
// mutation never reaches History at all: callers move the cursor set
// directly and skip Apply, so the undo stack never records it.
package history
