package etstm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestScenarioS1BasicCommit mirrors scenario S1: a prebuilt global is
// written once and committed, and both the new head and the superseded
// original end up in the exact states the specification describes.
func TestScenarioS1BasicCommit(t *testing.T) {
	c := newCell(0)
	before := globalClock.Load()

	d := newTestDescriptor(t)
	err := Atomically(d, func(d *Descriptor) error {
		writeCell(d, c, 42)
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, before+2, globalClock.Load())
	require.True(t, c.hdr.HasFlag(FlagPossiblyOutdated))
	require.False(t, isTimestamp(c.hdr.revisionRaw()), "G's revision must become a chain link, not stay a timestamp")

	w := c.hdr.resolvedLink()
	require.Equal(t, before+1, w.revisionRaw())
	require.True(t, w.HasFlag(FlagGlobal))
	require.True(t, w.HasFlag(FlagNotWritten))
	require.Equal(t, 42, w.owner.(*cell).value)
}

// TestScenarioS4SpinWhileLocked mirrors scenario S4: a reader hits a head
// CAS'd to a lock token by an in-flight committer, spins, and proceeds once
// the committer publishes the new timestamp, without aborting.
func TestScenarioS4SpinWhileLocked(t *testing.T) {
	c := newCell(7)
	c.hdr.SetFlags(FlagPossiblyOutdated)

	d, err := NewDescriptor(cellGC{})
	require.NoError(t, err)
	defer func() {
		d.active = stateInactive
		d.reads.clear()
		d.Close()
	}()
	d.active = stateRegular
	d.startTime = 1000

	require.True(t, c.hdr.revision.cas(RevInitial, Locked+1))

	done := make(chan Object, 1)
	go func() {
		done <- ReadBarrier(d, c)
	}()

	time.Sleep(5 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("ReadBarrier returned while the head was still locked")
	default:
	}

	c.hdr.revision.storeTimestamp(3)

	select {
	case result := <-done:
		require.Same(t, Object(c), result)
	case <-time.After(time.Second):
		t.Fatal("ReadBarrier never returned after the lock was released")
	}
}

// TestScenarioS5ChainCompression mirrors scenario S5: walking a multi-hop
// chain with the compression counter at zero rewrites every intermediate
// node to point directly at the resolved head.
func TestScenarioS5ChainCompression(t *testing.T) {
	tail := newCell(55)

	head := &Header{}
	mid1 := &Header{}
	mid2 := &Header{}
	head.revision.storeLink(mid1)
	mid1.revision.storeLink(mid2)
	mid2.revision.storeLink(&tail.hdr)

	d := newTestDescriptor(t)
	d.startTime = 10
	d.readonlyUpdates = 0

	r := latestGlobalRevision(d, head, nil)
	require.Same(t, &tail.hdr, r)

	require.Same(t, &tail.hdr, resolveLink(head.revisionRaw()))
	require.Same(t, &tail.hdr, resolveLink(mid1.revisionRaw()))
	require.Same(t, &tail.hdr, resolveLink(mid2.revisionRaw()))
}

// TestRepeatReadBarrierIdempotence is the round-trip invariant: a read
// barrier followed immediately by a repeat read barrier on the same object
// returns the identical pointer.
func TestRepeatReadBarrierIdempotence(t *testing.T) {
	d := newTestDescriptor(t)
	c := newCell(1)

	err := Atomically(d, func(d *Descriptor) error {
		first := ReadBarrier(d, c)
		second := RepeatReadBarrier(d, first)
		require.Same(t, first, second)
		return nil
	})
	require.NoError(t, err)
}

// TestReadBarrierHotPromotionMatchesRepeatRead covers the fxPresentHot path
// through directReadBarrier's fast (non-POSSIBLY_OUTDATED) branch: the
// second of two consecutive reads on the same object within a transaction
// crosses fxHotThreshold and must itself return the promoted local copy,
// not the original, since a later RepeatReadBarrier on either result has to
// agree with what this call already handed back.
func TestReadBarrierHotPromotionMatchesRepeatRead(t *testing.T) {
	d := newTestDescriptor(t)
	c := newCell(9)

	err := Atomically(d, func(d *Descriptor) error {
		first := ReadBarrier(d, c)
		require.Same(t, Object(c), first)

		second := ReadBarrier(d, c)
		require.True(t, second.Header().HasFlag(FlagLocalCopy), "second read should have crossed the hot threshold and been promoted")

		require.Same(t, second, RepeatReadBarrier(d, first))
		require.Same(t, second, RepeatReadBarrier(d, second))
		return nil
	})
	require.NoError(t, err)
}

// TestReadYourWrites is the round-trip invariant: a transaction that reads
// X, writes X, then commits, leaves readback(X) == written_value for any
// later transaction.
func TestReadYourWrites(t *testing.T) {
	d := newTestDescriptor(t)
	c := newCell(1)

	err := Atomically(d, func(d *Descriptor) error {
		v := readCell(d, c)
		writeCell(d, c, v+41)
		return nil
	})
	require.NoError(t, err)

	var got int
	err = Atomically(d, func(d *Descriptor) error {
		got = readCell(d, c)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, got)
}
