package etstm

import "unsafe"

// findRootsForLocalCollect drains d's G2L map into d.gcroots, deciding for
// each local copy whether it needs publishing at all. A copy that was only
// localized (read-promoted, say by the recent-reads cache) but never
// actually mutated still has FlagNotWritten set; it is promoted straight to
// global without ever becoming a chain head, matching the invariant that
// FlagNotWritten is cleared solely by the write barrier. Mirrors
// FindRootsForLocalCollect.
//
// The resulting slice is sorted by the global original's address rather
// than kept in G2L iteration order (Go map iteration is deliberately
// randomized) so that any two transactions contending over an overlapping
// write-set always acquire locks in the same relative order — this is what
// makes the spin-only lock acquisition in acquireLocks deadlock-free,
// matching the original's reliance on a hash-table's address-derived,
// insertion-order-independent enumeration.
func findRootsForLocalCollect(d *Descriptor) {
	d.g2l.forEach(func(orig, local Object) {
		lh := local.Header()
		lh.ClearFlags(FlagLocalCopy)
		if lh.HasFlag(FlagNotWritten) {
			lh.SetFlags(FlagGlobal | FlagPossiblyOutdated)
			return
		}
		lh.SetFlags(FlagGlobal | FlagNotWritten)
		d.gcroots.items = append(d.gcroots.items, gcRoot{local: local, orig: orig.Header()})
	})
	d.g2l.clear()

	items := d.gcroots.items
	for i := 1; i < len(items); i++ {
		for j := i; j > 0 && headerAddr(items[j].orig) < headerAddr(items[j-1].orig); j-- {
			items[j], items[j-1] = items[j-1], items[j]
		}
	}
}

func headerAddr(h *Header) uintptr { return uintptr(unsafe.Pointer(h)) }

// acquireLocks CAS's each gcroot's global original from its current odd
// revision to d's lock token, spinning on entries already locked by another
// descriptor's in-flight commit and aborting (ReasonWriteStale) if one has
// already been superseded. Deadlock-free because gcroots is sorted into a
// deterministic, transaction-independent order. Mirrors AcquireLocks.
func acquireLocks(d *Descriptor) {
	for i := range d.gcroots.items {
		root := &d.gcroots.items[i]
		r := root.orig
	retry:
		v := r.revisionRaw()
		if !isTimestamp(v) {
			abortTransaction(d, ReasonWriteStale)
		}
		if isLocked(v) {
			otherToken := v
			otherInevitable := tokenIsInevitable(otherToken)
			decision := resolveContention(d.policy, WriteWriteContention,
				d.isInevitable(), otherInevitable,
				d.startTime, lookupStartTime(otherToken))
			if !decision.AbortOther {
				// The policy concedes us, not the lock holder. If it
				// also asked us to pause (the default policy's
				// behavior), spin and retry instead of aborting
				// outright; a policy that never sets Sleep (the
				// deterministic testing policy) always aborts here.
				if decision.Sleep {
					d.spin(SpinLockAcquire)
					goto retry
				}
				reason := ReasonWriteStale
				if otherInevitable {
					reason = ReasonInevitableForced
				}
				abortTransaction(d, reason)
			}
			d.spin(SpinLockAcquire)
			goto retry
		}
		if !r.revision.cas(v, d.myLock) {
			goto retry
		}
		root.oldValue = v
		root.locked = true
	}
}

// updateChainHeads publishes every gcroot: the local copy becomes the new
// odd-timestamped head, and the old global original's revision word is
// overwritten with a chain-link handle pointing at it. Split into two
// passes, timestamps first and links second, matching the original's
// smp_wmb()-separated structure: any reader that observes the new link
// (installed second) is guaranteed, under Go's memory model, to also
// observe the timestamp store that precedes it in program order on this
// goroutine, so no separate fence instruction is required. Mirrors
// UpdateChainHeads.
func updateChainHeads(d *Descriptor, curTime uint64) {
	newRevision := curTime + 1
	for i := range d.gcroots.items {
		root := &d.gcroots.items[i]
		root.local.Header().revision.storeTimestamp(newRevision)
	}
	for i := range d.gcroots.items {
		root := &d.gcroots.items[i]
		root.orig.revision.storeLink(root.local.Header())
	}
}

// commitTransaction runs the two-phase commit protocol: materialize the
// write set, acquire per-object locks, reserve a new clock value (with the
// inevitable-mode fast path), validate if anyone else committed meanwhile,
// publish, and tear down. Mirrors CommitTransaction.
func commitTransaction(d *Descriptor) {
	if d.active == stateInactive {
		panic("etstm: commitTransaction called on an inactive descriptor")
	}

	findRootsForLocalCollect(d)
	acquireLocks(d)

	var curTime uint64
	if d.isInevitable() {
		curTime = d.startTime
		if !casClock(Inevitable, curTime+2) {
			panic("etstm: global clock changed while a transaction was inevitable")
		}
		clearInevitable(d.myLock)
		inevitableMutex.Unlock()
	} else {
		for {
			curTime = globalClock.Load()
			if curTime == Inevitable {
				cancelLocks(d)
				inevitableMutex.Lock()
				inevitableMutex.Unlock()
				acquireLocks(d)
				continue
			}
			if casClock(curTime, curTime+2) {
				break
			}
		}
		if curTime != d.startTime {
			if !validateDuringCommit(d) {
				abortTransaction(d, ReasonCommitValidation)
			}
		}
	}

	// Past this point the transaction cannot abort any more.
	d.reads.clear()
	d.fx.clear()

	updateChainHeads(d, curTime)

	d.gcroots.clear()
	d.numCommits++
	d.active = stateInactive
	unregisterToken(d.myLock)

	d.logger.Debug("stm-commit", logTxn(d))
}
