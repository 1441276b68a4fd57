package etstm

import "go.uber.org/zap"

// logTxn and its companions build the structured fields attached to every
// debug event this package emits, the structured equivalent of the
// original's compile-time PYPY_DEBUG_START/STOP markers (which printed
// "thread %lx aborting %d" style lines). Grounded in the *zap.Logger field +
// zap.NewNop() default + structured-field idiom used throughout the
// corpus's etcd mvcc backend.
func logTxn(d *Descriptor) zap.Field {
	return zap.Uint64("lock_token", d.myLock)
}

func logReason(r AbortReason) zap.Field {
	return zap.String("reason", r.String())
}

func stringField(key, val string) zap.Field {
	return zap.String(key, val)
}
