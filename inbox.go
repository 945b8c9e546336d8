package coyote

// envelope is one enqueued (event, sender, group) triple in an actor's
// inbox.
type envelope struct {
	event    Event
	senderID uint64 // Operation.id of the sender, 0 for runtime-originated sends
	group    *EventGroup
}

// inbox is the per-actor FIFO event queue. It is a plain slice rather than
// a concurrent structure: the cooperative scheduler guarantees exactly one
// operation's code runs at a time, so every method here -- whether invoked
// by the owning actor's own operation or, via [Operation.ready], by
// whichever operation happens to be currently running -- is already
// serialized and needs no lock of its own.
type inbox struct {
	items []envelope
}

func (ib *inbox) enqueue(e envelope) {
	ib.items = append(ib.items, e)
}

// dispatchable scans from the head, permanently dropping any event whose
// handler (against the given lookup) is Ignore, and skipping past (without
// removing) any event whose handler is Defer, per spec: "leave the inbox
// head unchanged by skipping past it conceptually". It returns the index
// and envelope of the first event found to have a real (non-Ignore,
// non-Defer) handler, or ok=false if none exists yet -- everything
// remaining is either empty or deferred under the current handler chain.
func (ib *inbox) dispatchable(lookup func(Event) (handlerEntry, bool)) (idx int, env envelope, ok bool) {
	i := 0
	for i < len(ib.items) {
		e := ib.items[i]
		h, found := lookup(e.event)
		if !found {
			return i, e, true // let the caller report UnhandledEvent
		}
		switch h.kind {
		case handlerIgnore:
			ib.items = append(ib.items[:i], ib.items[i+1:]...)
			continue
		case handlerDefer:
			i++
			continue
		default:
			return i, e, true
		}
	}
	return 0, envelope{}, false
}

// remove splices out the envelope at idx (already known to be the one
// dispatchable returned).
func (ib *inbox) remove(idx int) {
	ib.items = append(ib.items[:idx], ib.items[idx+1:]...)
}

// hasDispatchable reports whether dispatchable would currently find
// something (read-only: it does not drop Ignored events, since it must be
// safe to call from [Operation.ready] without mutating state other
// operations may be relying on to stay unchanged between calls).
func (ib *inbox) hasDispatchable(lookup func(Event) (handlerEntry, bool)) bool {
	for _, e := range ib.items {
		h, found := lookup(e.event)
		if !found {
			return true
		}
		if h.kind != handlerDefer {
			return true
		}
	}
	return false
}

func (ib *inbox) len() int { return len(ib.items) }
