package history

// Builder accumulates events for a single Batch, the ergonomic
// replacement for the teacher's BeginGroup/EndGroup pair: instead of
// mutating the target as each command runs and only deciding afterward
// whether to fold the results into one undo unit, callers assemble the
// primitive events first and apply them all at once.
type Builder struct {
	description string
	events      []Event
}

// NewBuilder starts a batch with the given undo-stack description.
func NewBuilder(description string) *Builder {
	return &Builder{description: description}
}

// Add appends an event to the batch and returns the builder for
// chaining.
func (b *Builder) Add(e Event) *Builder {
	b.events = append(b.events, e)
	return b
}

// Len reports how many events have been added so far.
func (b *Builder) Len() int {
	return len(b.events)
}

// Build returns the accumulated events as a single Batch event, flattening
// any nested batch among them.
func (b *Builder) Build() Event {
	return NewBatch(b.description, b.events...)
}

// ApplyBatch builds events into a Batch (or, for a single event, applies
// it directly without the Batch wrapper) and runs it against t.
func (h *History) ApplyBatch(t Target, description string, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	if len(events) == 1 {
		return h.Apply(t, events[0])
	}
	return h.Apply(t, NewBatch(description, events...))
}
