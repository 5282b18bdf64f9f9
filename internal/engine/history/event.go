package history

import (
	"github.com/dshills/quill/internal/engine/buffer"
	"github.com/dshills/quill/internal/engine/cursor"
)

// ByteOffset is an alias for buffer.ByteOffset for convenience.
type ByteOffset = buffer.ByteOffset

// Range is an alias for buffer.Range for convenience.
type Range = buffer.Range

// Kind tags the variant an Event carries.
type Kind uint8

const (
	KindInsert Kind = iota
	KindDelete
	KindAddCursor
	KindRemoveCursor
	KindMoveCursor
	KindAddOverlay
	KindRemoveOverlay
	KindBatch
)

func (k Kind) String() string {
	switch k {
	case KindInsert:
		return "Insert"
	case KindDelete:
		return "Delete"
	case KindAddCursor:
		return "AddCursor"
	case KindRemoveCursor:
		return "RemoveCursor"
	case KindMoveCursor:
		return "MoveCursor"
	case KindAddOverlay:
		return "AddOverlay"
	case KindRemoveOverlay:
		return "RemoveOverlay"
	case KindBatch:
		return "Batch"
	default:
		return "Unknown"
	}
}

// Event is a tagged record describing one write to a document. Only the
// fields relevant to Kind are populated; the rest are zero.
type Event struct {
	Kind Kind

	// Insert
	Position ByteOffset
	Bytes    string

	// Delete. DeletedBytes is kept for undo fidelity: the bytes that
	// Apply actually removed, recorded at apply time so Invert can
	// reinstate exactly them regardless of what the range looks like
	// later.
	Range        Range
	DeletedBytes string

	// AddCursor / RemoveCursor / MoveCursor { id, old, new }
	CursorID cursor.ID
	OldPos   ByteOffset
	NewPos   ByteOffset

	// AddOverlay / RemoveOverlay { namespace, range, face, priority, msg }
	Namespace string
	Face      string
	Priority  int
	Msg       string

	// Batch
	Events      []Event
	Description string
}

// NewInsert builds an Insert event.
func NewInsert(position ByteOffset, bytes string, cursorID cursor.ID) Event {
	return Event{Kind: KindInsert, Position: position, Bytes: bytes, CursorID: cursorID}
}

// NewDelete builds a Delete event. deletedBytes must be the bytes
// actually present in [r.Start, r.End) at the moment of Apply.
func NewDelete(r Range, deletedBytes string, cursorID cursor.ID) Event {
	return Event{Kind: KindDelete, Range: r, DeletedBytes: deletedBytes, CursorID: cursorID}
}

// NewAddCursor builds an AddCursor event: a new cursor appears at pos.
func NewAddCursor(id cursor.ID, pos ByteOffset) Event {
	return Event{Kind: KindAddCursor, CursorID: id, NewPos: pos}
}

// NewRemoveCursor builds a RemoveCursor event: the cursor at pos
// disappears. pos is recorded so Invert can restore it.
func NewRemoveCursor(id cursor.ID, pos ByteOffset) Event {
	return Event{Kind: KindRemoveCursor, CursorID: id, OldPos: pos}
}

// NewMoveCursor builds a MoveCursor event.
func NewMoveCursor(id cursor.ID, old, new_ ByteOffset) Event {
	return Event{Kind: KindMoveCursor, CursorID: id, OldPos: old, NewPos: new_}
}

// NewAddOverlay builds an AddOverlay event.
func NewAddOverlay(namespace string, r Range, face string, priority int, msg string) Event {
	return Event{Kind: KindAddOverlay, Namespace: namespace, Range: r, Face: face, Priority: priority, Msg: msg}
}

// NewRemoveOverlay builds a RemoveOverlay event. face/priority/msg must
// be the overlay's own fields at the time of removal, so Invert can
// restore it faithfully.
func NewRemoveOverlay(namespace string, r Range, face string, priority int, msg string) Event {
	return Event{Kind: KindRemoveOverlay, Namespace: namespace, Range: r, Face: face, Priority: priority, Msg: msg}
}

// NewBatch builds an atomic group of events. Nested batches are
// flattened into the new batch's event list so a Batch is never nested
// inside another Batch.
func NewBatch(description string, events ...Event) Event {
	flat := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Kind == KindBatch {
			flat = append(flat, e.Events...)
		} else {
			flat = append(flat, e)
		}
	}
	return Event{Kind: KindBatch, Events: flat, Description: description}
}

// Invert returns the event that undoes e.
func Invert(e Event) Event {
	switch e.Kind {
	case KindInsert:
		end := e.Position + ByteOffset(len(e.Bytes))
		return NewDelete(Range{Start: e.Position, End: end}, e.Bytes, e.CursorID)
	case KindDelete:
		return NewInsert(e.Range.Start, e.DeletedBytes, e.CursorID)
	case KindAddCursor:
		return NewRemoveCursor(e.CursorID, e.NewPos)
	case KindRemoveCursor:
		return NewAddCursor(e.CursorID, e.OldPos)
	case KindMoveCursor:
		return NewMoveCursor(e.CursorID, e.NewPos, e.OldPos)
	case KindAddOverlay:
		return NewRemoveOverlay(e.Namespace, e.Range, e.Face, e.Priority, e.Msg)
	case KindRemoveOverlay:
		return NewAddOverlay(e.Namespace, e.Range, e.Face, e.Priority, e.Msg)
	case KindBatch:
		inverted := make([]Event, len(e.Events))
		for i, sub := range e.Events {
			// Reverse order: undoing a batch undoes its last effect first.
			inverted[len(e.Events)-1-i] = Invert(sub)
		}
		return Event{Kind: KindBatch, Events: inverted, Description: e.Description}
	default:
		return e
	}
}

// BytesDelta returns the change in document length an Insert or Delete
// event causes; zero for every other kind.
func (e Event) BytesDelta() int {
	switch e.Kind {
	case KindInsert:
		return len(e.Bytes)
	case KindDelete:
		return -int(e.Range.End - e.Range.Start)
	default:
		return 0
	}
}

// AsEdit converts an Insert or Delete event to the buffer.Edit shape
// cursor.Set.Transform expects.
func (e Event) AsEdit() buffer.Edit {
	switch e.Kind {
	case KindInsert:
		return buffer.Edit{Range: buffer.Range{Start: e.Position, End: e.Position}, NewText: e.Bytes}
	case KindDelete:
		return buffer.Edit{Range: e.Range, NewText: ""}
	default:
		return buffer.Edit{}
	}
}
