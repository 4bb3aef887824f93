package catalog

import "sync/atomic"

// Holder is an atomically swappable catalog handle shared by concurrent
// compiles. Readers load the current snapshot and never block; updaters
// publish a total replacement, never mutating the published catalog in
// place.
type Holder struct {
	cur atomic.Pointer[snapshot]
}

// snapshot boxes the Catalog interface value so the pointer swap stays a
// single word.
type snapshot struct {
	cat Catalog
}

// NewHolder creates a holder with an initial catalog.
func NewHolder(cat Catalog) *Holder {
	h := &Holder{}
	h.cur.Store(&snapshot{cat: cat})
	return h
}

// Load returns the current catalog snapshot.
func (h *Holder) Load() Catalog {
	return h.cur.Load().cat
}

// Swap publishes a new catalog, replacing the current one for all future
// loads. In-flight compiles keep the snapshot they already loaded.
func (h *Holder) Swap(cat Catalog) {
	h.cur.Store(&snapshot{cat: cat})
}
