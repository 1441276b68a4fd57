package etstm

import (
	"sync"
	"sync/atomic"
)

// tokenRegistry lets contention management learn just enough about the
// other side of a conflict — its start time and whether it is currently
// inevitable — without descriptors sharing any other state. Keyed by lock
// token, which is unique to whichever descriptor currently owns it. Entries
// are best-effort: a stale read only ever affects which contention policy
// branch runs, never correctness (that comes entirely from the CAS-guarded
// revision words), so races against a token being recycled are harmless.
var tokenRegistry sync.Map // map[uint64]uint64 (lock token -> start time)

var inevitableToken atomic.Uint64

func registerTokenStart(token, startTime uint64) {
	tokenRegistry.Store(token, startTime)
}

func unregisterToken(token uint64) {
	tokenRegistry.Delete(token)
}

func lookupStartTime(token uint64) uint64 {
	if v, ok := tokenRegistry.Load(token); ok {
		return v.(uint64)
	}
	return 0
}

func markInevitable(token uint64) { inevitableToken.Store(token) }
func clearInevitable(token uint64) {
	inevitableToken.CompareAndSwap(token, 0)
}
func tokenIsInevitable(token uint64) bool { return inevitableToken.Load() == token }
