package etstm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestDescriptor(t *testing.T) *Descriptor {
	t.Helper()
	d, err := NewDescriptor(cellGC{})
	require.NoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func TestAtomicallyReadWrite(t *testing.T) {
	d := newTestDescriptor(t)
	c := newCell(10)

	err := Atomically(d, func(d *Descriptor) error {
		writeCell(d, c, 20)
		return nil
	})
	require.NoError(t, err)

	var got int
	err = Atomically(d, func(d *Descriptor) error {
		got = readCell(d, c)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 20, got)
}

func TestAtomicallyAdvancesClockOnReadOnlyCommit(t *testing.T) {
	d := newTestDescriptor(t)
	before := globalClock.Load()

	err := Atomically(d, func(d *Descriptor) error {
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, before+2, globalClock.Load())
}

func TestAtomicallyUnwindsOnError(t *testing.T) {
	d := newTestDescriptor(t)
	c := newCell(1)

	err := Atomically(d, func(d *Descriptor) error {
		writeCell(d, c, 999)
		return errExplicitTest
	})
	require.Error(t, err)
	require.Equal(t, errExplicitTest, err)

	var got int
	_ = Atomically(d, func(d *Descriptor) error {
		got = readCell(d, c)
		return nil
	})
	require.Equal(t, 1, got, "an erroring transaction must not publish its writes")
}

var errExplicitTest = explicitTestError{}

type explicitTestError struct{}

func (explicitTestError) Error() string { return "boom" }

func TestAtomicallyRetriesOnExplicitRetry(t *testing.T) {
	d := newTestDescriptor(t)
	c := newCell(5)

	attempts := 0
	err := Atomically(d, func(d *Descriptor) error {
		attempts++
		if attempts < 3 {
			return ErrExplicitRetry
		}
		writeCell(d, c, 100)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, attempts)

	var got int
	_ = Atomically(d, func(d *Descriptor) error {
		got = readCell(d, c)
		return nil
	})
	require.Equal(t, 100, got)
}

func TestPtrEqAcrossLocalCopy(t *testing.T) {
	d := newTestDescriptor(t)
	a := newCell(1)
	b := newCell(2)

	err := Atomically(d, func(d *Descriptor) error {
		w := WriteBarrier(d, a)
		require.True(t, PtrEq(d, a, w), "a local copy must compare equal to its global original")
		require.False(t, PtrEq(d, a, b))
		return nil
	})
	require.NoError(t, err)
}

func TestBeginInevitableCommitTransaction(t *testing.T) {
	d := newTestDescriptor(t)
	c := newCell(1)

	BeginInevitable(d)
	writeCell(d, c, 7)
	CommitTransaction(d)

	var got int
	_ = Atomically(d, func(d *Descriptor) error {
		got = readCell(d, c)
		return nil
	})
	require.Equal(t, 7, got)
}
