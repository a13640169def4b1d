package worker

import "sync/atomic"

// Generation is the requester side of staleness cancellation. Every seek or
// direction change calls Next; results carrying an older id are dropped.
type Generation struct {
	id atomic.Uint64
}

// Next starts a new generation and returns its id
func (g *Generation) Next() uint64 {
	return g.id.Add(1)
}

// Current returns the id of the current generation
func (g *Generation) Current() uint64 {
	return g.id.Load()
}

// Set forces the current id
func (g *Generation) Set(id uint64) {
	g.id.Store(id)
}

// Accept reports whether r belongs to the current generation
func (g *Generation) Accept(r Result) bool {
	return r.ID == g.id.Load()
}
