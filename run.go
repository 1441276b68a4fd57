package etstm

import "github.com/pkg/errors"

// beginTransaction starts a regular transaction on d, sampling the current
// clock as its snapshot start time. Mirrors BeginTransaction (the
// jmp_buf/setjmp_buf bookkeeping has no equivalent here: Atomically owns the
// panic/recover pair that plays that role).
func beginTransaction(d *Descriptor) {
	d.resetForTransaction()
	d.active = stateRegular
	d.startTime = getGlobalCurTime(d)
	d.readonlyUpdates = 0
	registerTokenStart(d.myLock, d.startTime)

	d.logger.Debug("stm-begin", logTxn(d))
}

// ErrExplicitRetry can be returned by a speculative function passed to
// Atomically to request an explicit abort-and-retry, e.g. because it
// discovered a precondition isn't yet satisfied. The transaction is re-run
// immediately; Atomically does not wait for anything it read to change.
var ErrExplicitRetry = errors.New("etstm: explicit retry requested")

// Atomically runs fn as a speculative transaction on d, retrying
// automatically whenever the engine detects fn's view of the heap would not
// have been serializable. fn must only touch transactional objects through
// the barrier functions in this package (ReadBarrier, WriteBarrier, ...);
// local, non-transactional computation and pure reads of already-localized
// copies can run freely, since they get re-executed verbatim on retry.
// Side effects with unrecoverable consequences (I/O) must be deferred until
// after BecomeInevitable or after Atomically returns.
//
// If fn returns ErrExplicitRetry, the transaction aborts (ReasonExplicitRetry)
// and is retried. Any other non-nil error aborts the whole call: the
// transaction is unwound (nothing fn did is published) and the error is
// returned to the caller.
func Atomically(d *Descriptor, fn func(*Descriptor) error) (err error) {
	for {
		beginTransaction(d)

		aborted := runSpeculative(d, fn, &err)
		if aborted {
			continue
		}
		if err != nil {
			// fn returned a real error: unwind without publishing,
			// but do not retry.
			unwindWithoutCommit(d)
			return err
		}

		// Every successful transaction commits, even a pure read:
		// the global clock advances by 2 per commit regardless of
		// whether the write set is empty, matching the original
		// (which does not special-case read-only transactions). An
		// abort raised during commit (lock acquisition or commit-time
		// validation) is recovered here and the transaction retried.
		committed := func() (ok bool) {
			defer func() {
				if r := recover(); r != nil {
					if _, isAbort := r.(abortSignal); isAbort {
						return
					}
					panic(r)
				}
			}()
			commitTransaction(d)
			return true
		}()
		if !committed {
			continue
		}
		return nil
	}
}

// runSpeculative invokes fn under panic/recover, translating an abortSignal
// panic into a "please retry" signal to Atomically's loop, translating an
// explicit ErrExplicitRetry return the same way, and re-panicking anything
// else (a genuine bug in the mutator's function must not be swallowed).
func runSpeculative(d *Descriptor, fn func(*Descriptor) error, outErr *error) (aborted bool) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(abortSignal); ok {
				aborted = true
				return
			}
			panic(r)
		}
	}()

	err := fn(d)
	if err == ErrExplicitRetry {
		if d.isInevitable() {
			panic("etstm: an inevitable transaction requested a retry")
		}
		abortTransaction(d, ReasonExplicitRetry) // panics, unwinds to the defer above
	}
	*outErr = err
	return false
}

// unwindWithoutCommit discards everything fn did without publishing it,
// used when fn returns a real (non-retry) error.
func unwindWithoutCommit(d *Descriptor) {
	cancelLocks(d)
	d.reads.clear()
	d.gcroots.clear()
	d.g2l.clear()
	d.fx.clear()
	d.active = stateInactive
	unregisterToken(d.myLock)
}
