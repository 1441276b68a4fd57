package etstm

// gcRoot is one pending publication: the local copy L about to become the
// new global revision, the global original R it supersedes, and (once
// AcquireLocks has run) the revision word R held before this transaction
// locked it, so an abort can restore it.
type gcRoot struct {
	local    Object
	orig     *Header
	oldValue uint64
	locked   bool
}

// gcRootList is the write-set materialized at commit time, mirroring the
// original's gcroots GcPtrList (there represented as a flat array of
// (L, oldvalue) pairs terminated by a NULL sentinel; here a plain slice of
// structs, which needs no sentinel).
type gcRootList struct {
	items []gcRoot
}

func (g *gcRootList) clear() { g.items = g.items[:0] }
