package document

import (
	"sort"

	"github.com/dshills/quill/internal/engine/buffer"
	"github.com/dshills/quill/internal/engine/cursor"
)

// Overlay is the spec's { namespace, range, face, priority, msg } tuple:
// a decoration owned by the document rather than the renderer — a
// diagnostic squiggle, a plugin-drawn highlight, an AI ghost-text span.
// Higher Priority overlays are meant to render on top, matching the
// convention of the teacher's renderer-layer overlay package.
type Overlay struct {
	Namespace string
	Range     buffer.Range
	Face      string
	Priority  int
	Msg       string
}

// overlayStore holds overlays keyed by namespace. A slice per namespace
// is enough: per-document overlay counts are small relative to buffer
// size, and OverlaysIn is only asked to scan the visible range.
type overlayStore struct {
	byNamespace map[string][]Overlay
}

func newOverlayStore() *overlayStore {
	return &overlayStore{byNamespace: make(map[string][]Overlay)}
}

func (s *overlayStore) add(namespace string, r buffer.Range, face string, priority int, msg string) {
	s.byNamespace[namespace] = append(s.byNamespace[namespace], Overlay{
		Namespace: namespace,
		Range:     r,
		Face:      face,
		Priority:  priority,
		Msg:       msg,
	})
}

// remove deletes the first overlay in namespace with an exactly matching
// range. Returns false if none matched.
func (s *overlayStore) remove(namespace string, r buffer.Range) bool {
	list := s.byNamespace[namespace]
	for i, o := range list {
		if o.Range == r {
			s.byNamespace[namespace] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// in returns every overlay, across all namespaces, whose range
// intersects r, sorted by ascending priority (ties broken by ascending
// start offset) so a renderer painting in order gets top overlays last.
func (s *overlayStore) in(r buffer.Range) []Overlay {
	var out []Overlay
	for _, list := range s.byNamespace {
		for _, o := range list {
			if o.Range.Overlaps(r) || o.Range == r {
				out = append(out, o)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].Range.Start < out[j].Range.Start
	})
	return out
}

// transform translates every overlay's range through edit, the way
// cursors are translated (spec.md §4.3 step 4), resolving the Open
// Question on cursor-less overlays intersecting a deletion with the
// spec's stated default: collapse (drop the overlay) if the deleted
// range fully contains it, otherwise clip it to what survives.
//
// transformOverlayRange reuses cursor.TransformOffset rather than
// reinventing edit arithmetic: TransformOffset already collapses an
// endpoint inside a deleted range to the deletion's start, which is
// exactly "clip to what survives" for a partial overlap.
func (s *overlayStore) transform(edit buffer.Edit) {
	for namespace, list := range s.byNamespace {
		kept := list[:0]
		for _, o := range list {
			newRange, dropped := transformOverlayRange(o.Range, edit)
			if dropped {
				continue
			}
			o.Range = newRange
			kept = append(kept, o)
		}
		s.byNamespace[namespace] = kept
	}
}

func transformOverlayRange(r buffer.Range, edit buffer.Edit) (buffer.Range, bool) {
	if edit.NewText == "" && !edit.Range.IsEmpty() {
		d := edit.Range
		if d.Start <= r.Start && r.End <= d.End {
			return buffer.Range{}, true
		}
	}
	start := cursor.TransformOffset(r.Start, edit)
	end := cursor.TransformOffset(r.End, edit)
	if start > end {
		start = end
	}
	return buffer.Range{Start: start, End: end}, false
}
