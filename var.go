package etstm

// IntVar is a convenience transactional cell holding a single int, adapting
// the ergonomic Load/Store surface the teacher's own Var type exposed on
// top of this package's barrier functions. A host storing a different
// payload, or several fields per object, embeds Header directly instead (as
// this package's own tests do); IntVar exists for the common case of many
// independent scalar cells, e.g. the bank-account style stress test in
// var_test.go.
type IntVar struct {
	hdr   Header
	value int
}

const intVarTypeID = 0xff

// NewIntVar allocates a prebuilt global IntVar visible from the start of
// the process, mirroring how the teacher's zero-value Var became usable
// the moment it was declared.
func NewIntVar(initial int) *IntVar {
	v := &IntVar{value: initial}
	InitGlobal(v, intVarTypeID)
	return v
}

func (v *IntVar) Header() *Header { return &v.hdr }

// IntVarGC is the GC collaborator for any Descriptor whose transactions
// only ever touch IntVars.
type IntVarGC struct{}

func (IntVarGC) Duplicate(g Object) Object {
	orig := g.(*IntVar)
	local := &IntVar{value: orig.value}
	local.hdr.SetFlags(FlagLocalCopy | FlagNotWritten)
	return local
}

// Load returns v's value as observed by d's current transaction. Mirrors
// the teacher's Var.Load, minus the (value, error) signature: a barrier
// call here never itself fails, since a stale read is resolved by
// aborting the whole transaction rather than by returning an error to the
// caller.
func (v *IntVar) Load(d *Descriptor) int {
	return ReadBarrier(d, v).(*IntVar).value
}

// Store overwrites v's value within d's current transaction. Mirrors the
// teacher's Var.Store.
func (v *IntVar) Store(d *Descriptor, val int) {
	WriteBarrier(d, v).(*IntVar).value = val
}
