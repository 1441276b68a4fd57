package etstm

// localize returns r's local copy for this transaction, creating one via the
// GC collaborator's Duplicate if none exists yet. Mirrors Localize.
func localize(d *Descriptor, r *Header) Object {
	if local, ok := d.g2l.find(r); ok {
		return local
	}

	orig := r.owner
	local := d.gc.Duplicate(orig)
	lh := local.Header()
	if lh.HasFlag(FlagGlobal) {
		panic("etstm: GC.Duplicate returned an object still flagged GLOBAL")
	}
	if lh.HasFlag(FlagPossiblyOutdated) {
		panic("etstm: GC.Duplicate returned an object flagged POSSIBLY_OUTDATED")
	}
	if !lh.HasFlag(FlagLocalCopy) {
		panic("etstm: GC.Duplicate must set FlagLocalCopy")
	}
	if !lh.HasFlag(FlagNotWritten) {
		panic("etstm: GC.Duplicate must leave FlagNotWritten set")
	}
	lh.owner = local
	lh.revision.storeLink(r) // back-reference to the original

	d.g2l.insert(orig, local)
	return local
}

// writeBarrier is the shared implementation behind WriteBarrier and
// WriteBarrierFromReady.
func writeBarrier(d *Descriptor, p Object, alreadyLatest bool) Object {
	h := p.Header()
	var r *Header
	var w Object

	if !h.HasFlag(FlagGlobal) {
		w = p
		r = h.resolvedLink()
	} else {
		if !alreadyLatest && h.HasFlag(FlagPossiblyOutdated) {
			r = latestGlobalRevision(d, h, nil)
		} else {
			r = h
		}
		w = localize(d, r)
	}

	w.Header().ClearFlags(FlagNotWritten)
	r.SetFlags(FlagPossiblyOutdated)
	return w
}

// WriteBarrier returns a writable local copy of p, promoting a stale global
// reference to its latest revision first if needed. Mirrors stm_WriteBarrier
// / STM_BARRIER_P2W / STM_BARRIER_G2W.
func WriteBarrier(d *Descriptor, p Object) Object {
	return writeBarrier(d, p, false)
}

// WriteBarrierFromReady is WriteBarrier for a pointer the caller already
// knows is the latest global revision (so the chain walk is skipped).
// Mirrors stm_WriteBarrierFromReady / STM_BARRIER_R2W / STM_BARRIER_O2W.
func WriteBarrierFromReady(d *Descriptor, r Object) Object {
	return writeBarrier(d, r, true)
}
