package etstm

// g2lEntry pairs a global original with the local copy a transaction made
// of it.
type g2lEntry struct {
	orig  Object
	local Object
}

// g2lMap is the per-transaction mapping from a global object's Header to the
// local copy a transaction created for it, mirroring the original's G2L. It
// is private to one descriptor; a plain Go map suffices since nothing else
// ever touches it.
type g2lMap struct {
	entries map[*Header]g2lEntry
}

func newG2LMap() g2lMap {
	return g2lMap{entries: make(map[*Header]g2lEntry)}
}

func (g *g2lMap) find(orig *Header) (Object, bool) {
	e, ok := g.entries[orig]
	if !ok {
		return nil, false
	}
	return e.local, true
}

func (g *g2lMap) insert(orig Object, local Object) {
	g.entries[orig.Header()] = g2lEntry{orig: orig, local: local}
}

func (g *g2lMap) clear() {
	clear(g.entries)
}

func (g *g2lMap) any() bool { return len(g.entries) > 0 }

func (g *g2lMap) forEach(visit func(orig, local Object)) {
	for _, e := range g.entries {
		visit(e.orig, e.local)
	}
}
