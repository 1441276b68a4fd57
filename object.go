package etstm

// Object is implemented by every value a host wants to manage
// transactionally. Hosts embed Header as the first field of their concrete
// type and return a pointer to it from Header().
type Object interface {
	Header() *Header
}

// GC is the external collaborator this package requires from the host's
// garbage collector / allocator, per the specification's deliberate
// narrowing of scope: the core never allocates application objects itself.
type GC interface {
	// Duplicate returns a freshly allocated, field-for-field copy of g,
	// with FlagGlobal and FlagPossiblyOutdated cleared and FlagLocalCopy
	// set. FlagNotWritten must still be set on the returned copy; only the
	// write barrier clears it.
	Duplicate(g Object) Object
}

// EnumerateRoots visits every (original, local copy) pair currently held in
// d's global-to-local map, for a GC that needs to trace transactional roots
// mid-transaction. It is a core-provided convenience (G2L is private to the
// descriptor), not a callback into the GC.
func EnumerateRoots(d *Descriptor, visit func(original, local Object)) {
	d.g2l.forEach(visit)
}
