package etstm

// globalizeForComparison reduces p to the canonical global original it
// represents: a global object is walked to its latest revision, a local
// copy is mapped back to the original it was duplicated from. Mirrors
// GlobalizeForComparison.
func globalizeForComparison(d *Descriptor, p Object) Object {
	if p == nil {
		return nil
	}
	h := p.Header()
	switch {
	case h.HasFlag(FlagGlobal):
		return latestGlobalRevision(d, h, nil).owner
	case h.HasFlag(FlagLocalCopy):
		return h.resolvedLink().owner
	default:
		return p
	}
}

// PtrEq reports whether p1 and p2 are transactionally equal: their canonical
// global forms match, even if one or both are local copies or stale chain
// heads. Mirrors stm_PtrEq / STM_PTR_EQ.
func PtrEq(d *Descriptor, p1, p2 Object) bool {
	return globalizeForComparison(d, p1) == globalizeForComparison(d, p2)
}
