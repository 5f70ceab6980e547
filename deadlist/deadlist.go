// deadlist.go implements the per-context queue of buffers awaiting destruction.

// Package deadlist implements deferred destruction of buffer objects.
//
// A buffer handed to the hardware may still be referenced by an in-flight
// submission, so it is first Marked (appended to the list of its context)
// and only Freed when the owner flushes the list.
package deadlist

import (
	"context"

	"github.com/rexxster/vdpau-driver/handle"
	"github.com/rexxster/vdpau-driver/logger"
)

// GrowStep is the amount of slots the list grows by when full.
const GrowStep = 16

// List is an ordered, append-only-until-flush sequence of buffer IDs.
// It is not safe for concurrent use.
type List struct {
	ids []handle.ID
}

// Append marks the buffer for destruction.
func (l *List) Append(id handle.ID) {
	if len(l.ids) == cap(l.ids) {
		grown := make([]handle.ID, len(l.ids), cap(l.ids)+GrowStep)
		copy(grown, l.ids)
		l.ids = grown
	}
	l.ids = append(l.ids, id)
}

func (l *List) Len() int {
	return len(l.ids)
}

// Cap returns the amount of entries the list can hold before growing.
func (l *List) Cap() int {
	return cap(l.ids)
}

// Contains reports whether the buffer is already marked.
func (l *List) Contains(id handle.ID) bool {
	for _, pending := range l.ids {
		if pending == id {
			return true
		}
	}
	return false
}

// IDs returns a copy of the pending entries in insertion order.
func (l *List) IDs() []handle.ID {
	result := make([]handle.ID, len(l.ids))
	copy(result, l.ids)
	return result
}

// Flush frees every marked buffer in insertion order through destroyFn and
// empties the list. The capacity is retained for the next cycle.
func (l *List) Flush(
	ctx context.Context,
	destroyFn func(context.Context, handle.ID),
) (_ret int) {
	logger.Tracef(ctx, "Flush: %d pending", len(l.ids))
	defer func() { logger.Tracef(ctx, "/Flush: %d freed", _ret) }()

	// destroyFn must not Append to the list being flushed.
	for _, id := range l.ids {
		destroyFn(ctx, id)
	}
	count := len(l.ids)
	l.ids = l.ids[:0]
	return count
}
