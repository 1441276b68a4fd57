package etstm

// becomeInevitable upgrades a running regular transaction to inevitable
// mode. Spins on inevitableMutex (via the same contention-management
// bookkeeping acquireLocks uses) while another descriptor already holds it.
// Mirrors BecomeInevitable.
func becomeInevitable(d *Descriptor, why string) {
	if d.active != stateRegular {
		return // already inevitable, or not in a transaction at all
	}

	d.logger.Debug("stm-inevitable", logTxn(d), stringField("why", why))

	for !inevitableMutex.TryLock() {
		otherToken := inevitableToken.Load()
		decision := resolveContention(d.policy, InevitableContention,
			false, true, d.startTime, lookupStartTime(otherToken))
		if decision.AbortOther {
			panic("etstm: inevitable incumbent unexpectedly conceded")
		}
		d.spin(SpinLockAcquire)
	}
	curTime := globalClock.Load()
	for !casClock(curTime, Inevitable) {
		curTime = globalClock.Load()
	}

	if d.startTime != curTime {
		d.startTime = curTime
		registerTokenStart(d.myLock, d.startTime)
		if !validateDuringCommit(d) {
			globalClock.Store(curTime) // restore
			inevitableMutex.Unlock()
			abortTransaction(d, ReasonInevitableForced)
		}
	}
	makeInevitable(d)
}

func makeInevitable(d *Descriptor) {
	d.active = stateInevitable
	markInevitable(d.myLock)
}

// beginInevitableTransaction enters inevitable mode directly, blocking on
// inevitableMutex until it can claim the clock. Mirrors
// BeginInevitableTransaction.
func beginInevitableTransaction(d *Descriptor) {
	d.resetForTransaction()

	inevitableMutex.Lock()
	curTime := globalClock.Load()
	for !casClock(curTime, Inevitable) {
		curTime = globalClock.Load()
	}
	d.startTime = curTime
	registerTokenStart(d.myLock, d.startTime)
	makeInevitable(d)
}

// BeginInevitable starts a new, directly-inevitable transaction on d. Unlike
// a regular transaction started through Atomically, an inevitable
// transaction never retries: side effects run exactly once. The caller must
// end it with CommitTransaction; Atomically cannot drive a transaction begun
// this way, since its beginTransaction panics on a descriptor that is not
// inactive.
func BeginInevitable(d *Descriptor) {
	beginInevitableTransaction(d)
}

// BecomeInevitable upgrades d's current regular transaction in place. After
// it returns, d can no longer abort: any side effect the speculative
// function performs from here on runs exactly once.
func (d *Descriptor) BecomeInevitable(reason string) {
	becomeInevitable(d, reason)
}

// CommitTransaction runs the two-phase commit protocol on d's current
// transaction and deactivates it. Callers that drive a transaction through
// Atomically never call this directly; it exists for hosts that pair
// BeginInevitable with an explicit commit, since an inevitable transaction
// never retries and so never passes back through a driver loop.
func CommitTransaction(d *Descriptor) {
	commitTransaction(d)
}
