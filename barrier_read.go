package etstm

// chainCompressionInterval is the amortized frequency (1 in 148) at which a
// successful chain walk rewrites every intermediate node to point directly
// at the resolved head. Purely a performance heuristic: any positive
// amortization constant is correct. Mirrors the original's literal 148.
const chainCompressionInterval = 148

// possiblyUpdateChain implements the original's PossiblyUpdateChain: once
// every chainCompressionInterval resolved walks, rewrite every node between
// g and r to point directly at r, and fix up the container's field if one
// was supplied.
func possiblyUpdateChain(d *Descriptor, g, r *Header, field *Object, resolved Object) {
	if r == g {
		return
	}
	d.readonlyUpdates--
	if d.readonlyUpdates >= 0 {
		return
	}
	d.readonlyUpdates = chainCompressionInterval

	for {
		v := g.revisionRaw()
		if isTimestamp(v) {
			break
		}
		next := resolveLink(v)
		g.revision.storeLink(r)
		if next == r {
			break
		}
		g = next
	}
	if field != nil {
		*field = resolved
	}
}

// latestGlobalRevision walks g's revision chain until it reaches an odd
// (timestamp) value, spinning on locked heads and revalidating (advancing
// start_time) when it finds a head too recent for the current snapshot.
// Mirrors LatestGlobalRevision.
func latestGlobalRevision(d *Descriptor, g *Header, field *Object) *Header {
	r := g
retry:
	for {
		v := r.revisionRaw()
		if isTimestamp(v) {
			break
		}
		r = resolveLink(v)
	}
	v := r.revisionRaw()
	if v > d.startTime {
		if isLocked(v) {
			d.spin(SpinReadWalk)
			goto retry
		}
		validateDuringTransaction(d) // may advance start_time, may abort
		goto retry
	}
	possiblyUpdateChain(d, g, r, field, r.owner)
	return r
}

// addInReadSet probes the recent-reads cache and, on a new entry, appends r
// to the read-set list; on a hot (repeatedly re-read) entry, promotes it to
// a local copy and returns that copy instead of r's own owning object.
// Mirrors AddInReadSet.
func addInReadSet(d *Descriptor, r *Header) Object {
	switch d.fx.add(r) {
	case fxNew:
		d.reads.add(r)
	case fxPresentHot:
		return localize(d, r)
	}
	return r.owner
}

// directReadBarrier is the shared implementation behind ReadBarrier and
// ReadBarrierFromContainer. Mirrors _direct_read_barrier.
func directReadBarrier(d *Descriptor, g Object, field *Object) Object {
	h := g.Header()
	if !h.HasFlag(FlagPossiblyOutdated) {
		return addInReadSet(d, h)
	}

	r := latestGlobalRevision(d, h, field)
	if r.HasFlag(FlagPossiblyOutdated) {
		if local, ok := d.g2l.find(r); ok {
			if field != nil && !(*field).Header().HasFlag(FlagGlobal) {
				*field = local
			}
			return local
		}
	}
	return addInReadSet(d, r)
}

// ReadBarrier returns the object the calling transaction must observe in
// place of g. Mirrors stm_DirectReadBarrier / STM_BARRIER_G2R.
func ReadBarrier(d *Descriptor, g Object) Object {
	return directReadBarrier(d, g, nil)
}

// ReadBarrierFromContainer is ReadBarrier, additionally given the address of
// the container's object-typed field that produced g, so that chain
// compression can fix the field in place. The G2L short-circuit writes the
// local copy into the field only when the object the field currently holds
// is not flagged GLOBAL; the container's own flags are not consulted.
// Mirrors stm_DirectReadBarrierFromR / STM_READ_BARRIER_P_FROM_R, adapted
// from a (container, byte-offset) pair to a typed field pointer since Go has
// no portable pointer-plus-offset arithmetic.
func ReadBarrierFromContainer(d *Descriptor, g Object, field *Object) Object {
	return directReadBarrier(d, g, field)
}

// RepeatReadBarrier re-fetches the correct observable object for one the
// caller already knows was observed earlier in this transaction (so no
// chain walk is needed: only the G2L lookup). Mirrors stm_RepeatReadBarrier
// / STM_BARRIER_O2R.
func RepeatReadBarrier(d *Descriptor, o Object) Object {
	h := o.Header()
	local, ok := d.g2l.find(h)
	if !ok {
		return o
	}
	return local
}
