package etstm

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestIntVarSum adapts the teacher's concurrent-sum stress test onto this
// engine's IntVar/Atomically surface: N goroutines each increment a shared
// counter M times, and the final total must be exact.
func TestIntVarSum(t *testing.T) {
	sum := NewIntVar(0)

	const n = 10
	const m = 20000

	var wg sync.WaitGroup
	wg.Add(n)
	for x := 0; x < n; x++ {
		go func() {
			defer wg.Done()
			d, err := NewDescriptor(IntVarGC{})
			if err != nil {
				t.Error(err)
				return
			}
			defer d.Close()

			for i := 0; i < m; i++ {
				err := Atomically(d, func(d *Descriptor) error {
					sum.Store(d, sum.Load(d)+1)
					return nil
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	d, err := NewDescriptor(IntVarGC{})
	require.NoError(t, err)
	defer d.Close()

	var total int
	err = Atomically(d, func(d *Descriptor) error {
		total = sum.Load(d)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, n*m, total)
}

// TestIntVarBankTransfer adapts the teacher's bank-transfer stress test:
// many goroutines move random amounts between random accounts, conserving
// the total balance across all of them.
func TestIntVarBankTransfer(t *testing.T) {
	const numAccounts = 10
	const startBalance = 100

	var accounts [numAccounts]*IntVar
	for i := range accounts {
		accounts[i] = NewIntVar(startBalance)
	}

	const n = 24
	const m = 2000

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(seed int) {
			defer wg.Done()
			d, err := NewDescriptor(IntVarGC{})
			if err != nil {
				t.Error(err)
				return
			}
			defer d.Close()

			rng := rand.New(rand.NewSource(int64(seed)))
			for x := 0; x < m; x++ {
				from := rng.Intn(numAccounts)
				to := rng.Intn(numAccounts)
				if from == to {
					continue
				}
				err := Atomically(d, func(d *Descriptor) error {
					fromBal := accounts[from].Load(d)
					if fromBal == 0 {
						return nil
					}
					amount := rng.Intn(fromBal) + 1
					toBal := accounts[to].Load(d)
					accounts[from].Store(d, fromBal-amount)
					accounts[to].Store(d, toBal+amount)
					return nil
				})
				if err != nil {
					t.Error(err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	d, err := NewDescriptor(IntVarGC{})
	require.NoError(t, err)
	defer d.Close()

	total := 0
	err = Atomically(d, func(d *Descriptor) error {
		total = 0
		for _, a := range accounts {
			total += a.Load(d)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, numAccounts*startBalance, total)
}

// TestIntVarWriteSkew adapts the teacher's write-skew test: two
// transactions each conditionally write based on what they read of the
// other's variable. This engine's read-set validation at commit time must
// prevent both conditional writes from landing together.
func TestIntVarWriteSkew(t *testing.T) {
	a := NewIntVar(1)
	b := NewIntVar(2)

	dA, err := NewDescriptor(IntVarGC{})
	require.NoError(t, err)
	defer dA.Close()
	dB, err := NewDescriptor(IntVarGC{})
	require.NoError(t, err)
	defer dB.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	ch := make(chan struct{})

	go func() {
		defer wg.Done()
		_ = Atomically(dA, func(d *Descriptor) error {
			<-ch
			if a.Load(d) == 1 {
				b.Store(d, 666)
			}
			return nil
		})
	}()

	go func() {
		defer wg.Done()
		_ = Atomically(dB, func(d *Descriptor) error {
			<-ch
			if b.Load(d) == 2 {
				a.Store(d, 42)
			}
			return nil
		})
	}()

	close(ch)
	wg.Wait()

	dCheck, err := NewDescriptor(IntVarGC{})
	require.NoError(t, err)
	defer dCheck.Close()

	var va, vb int
	_ = Atomically(dCheck, func(d *Descriptor) error {
		va = a.Load(d)
		vb = b.Load(d)
		return nil
	})
	require.False(t, va == 42 && vb == 666, "both conditional writes landing together would be a write skew")
}
