package etstm

// abortSignal is the panic payload used to unwind from wherever inside the
// mutator's speculative function an abort was detected, back to the
// Atomically driver loop that owns the matching beginTransaction call. It
// stands in for the original's setjmp/longjmp pair: Go has no non-local
// goto, and panic/recover is its nearest equivalent for unwinding arbitrary
// call depth without running destructor-like cleanup in between (the abort
// handler below clears all descriptor state before panicking, so nothing
// meaningful runs between the abort and the recover).
type abortSignal struct {
	reason AbortReason
}

// abortTransaction cancels any locks d holds, clears all transactional
// state, marks d inactive, and unwinds to the Atomically driver via panic.
// It never returns. Mirrors AbortTransaction in the original, with
// CancelLocks/clearing inlined at the call site's responsibility boundary
// kept the same.
func abortTransaction(d *Descriptor, reason AbortReason) {
	if d.isInevitable() {
		panic("etstm: an inevitable transaction attempted to abort")
	}
	d.numAborts[reason]++

	cancelLocks(d)

	d.reads.clear()
	d.gcroots.clear()
	d.g2l.clear()
	d.fx.clear()

	d.logger.Debug("stm-abort",
		logTxn(d),
		logReason(reason),
	)

	d.spin(SpinAbortCleanup)
	d.active = stateInactive
	unregisterToken(d.myLock)
	panic(abortSignal{reason: reason})
}

// cancelLocks restores every gcroot lock this transaction is holding back to
// its pre-lock revision value, walking gcroots in order (the original's
// CancelLocks). Safe to call even if AcquireLocks never ran, or partially
// ran: unlocked entries have locked == false and are skipped.
func cancelLocks(d *Descriptor) {
	for i := range d.gcroots.items {
		root := &d.gcroots.items[i]
		if !root.locked {
			continue
		}
		root.orig.revision.v.Store(root.oldValue)
		root.locked = false
	}
}
