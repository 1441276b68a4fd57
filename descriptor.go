package etstm

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// txState is the descriptor's lifecycle state, mirroring tx_descriptor.active
// (0 = inactive, 1 = regular, 2 = inevitable).
type txState int32

const (
	stateInactive txState = iota
	stateRegular
	stateInevitable
)

// Descriptor is the per-goroutine transaction descriptor (the original's
// struct tx_descriptor / __thread thread_descriptor). Exactly one goroutine
// may use a given Descriptor at a time, and never concurrently with another
// goroutine — the same discipline the original required of OS threads via
// pthread TLS, made an explicit caller contract here since Go goroutines
// have no natural thread-local storage.
type Descriptor struct {
	gc     GC
	logger *zap.Logger
	policy ContentionPolicy

	myLock    uint64
	startTime uint64
	active    txState
	atomic_   int // flat nesting counter: 0 = not atomic, >0 = atomic

	readonlyUpdates int

	reads   readSet
	g2l     g2lMap
	gcroots gcRootList
	fx      fxCache

	numCommits uint64
	numAborts  [abortReasonCount]uint64
	numSpins   [spinReasonCount]uint64
}

// DescriptorOption configures a Descriptor at construction time.
type DescriptorOption func(*Descriptor)

// WithLogger attaches a structured logger; events are emitted at Debug
// level for transaction starts, commits, aborts (with reason), upgrades to
// inevitable mode, and every spin (with its reason), which is where a
// contention wait shows up. Default is a no-op logger, so the hot path
// never branches on nilness.
func WithLogger(l *zap.Logger) DescriptorOption {
	return func(d *Descriptor) { d.logger = l }
}

// WithContentionPolicy overrides the default WaitForOther policy. Tests use
// this to install AbortYounger for deterministic scenarios.
func WithContentionPolicy(p ContentionPolicy) DescriptorOption {
	return func(d *Descriptor) { d.policy = p }
}

// NewDescriptor allocates and initializes a descriptor bound to gc, the
// external collaborator this package consults to duplicate objects on the
// write path. It mirrors DescriptorInit, except it returns the descriptor
// to the caller instead of stashing it behind thread-local storage, and it
// can fail if the process-wide lock-token space is exhausted.
func NewDescriptor(gc GC, opts ...DescriptorOption) (*Descriptor, error) {
	lock, err := lockTokens.acquire()
	if err != nil {
		return nil, errors.Wrap(err, "etstm: NewDescriptor")
	}
	d := &Descriptor{
		gc:     gc,
		logger: zap.NewNop(),
		policy: WaitForOther,
		myLock: lock,
		g2l:    newG2LMap(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Close releases d's lock token back to the package-level free-list. d must
// not be active (Atomically must not be in progress). Mirrors
// DescriptorDone, plus the token-reuse protocol the specification's open
// question calls for.
func (d *Descriptor) Close() {
	if d.active != stateInactive {
		panic("etstm: Close called on an active descriptor")
	}
	unregisterToken(d.myLock)
	lockTokens.release(d.myLock)
}

// Stats is a snapshot of a descriptor's lifetime counters, for diagnostics.
type Stats struct {
	Commits int64
	Aborts  [5]uint64
	Spins   [3]uint64
}

// Stats returns a copy of d's lifetime counters.
func (d *Descriptor) Stats() Stats {
	var s Stats
	s.Commits = int64(d.numCommits)
	copy(s.Aborts[:], d.numAborts[:])
	copy(s.Spins[:], d.numSpins[:])
	return s
}

func (d *Descriptor) isInevitable() bool { return d.active == stateInevitable }

func (d *Descriptor) spin(reason SpinReason) {
	d.numSpins[reason]++
	d.logger.Debug("stm-spin", logTxn(d), zap.Stringer("reason", reason))
	cpuPause()
}

func (d *Descriptor) resetForTransaction() {
	if d.active != stateInactive {
		panic("etstm: beginning a transaction on a non-inactive descriptor")
	}
	if len(d.gcroots.items) != 0 || d.g2l.any() || len(d.reads.items) != 0 {
		panic("etstm: descriptor state not cleared before begin")
	}
}
