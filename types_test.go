package etstm

// cell is the smallest possible transactional object used across this
// package's tests: a Header plus one integer payload.
type cell struct {
	hdr   Header
	value int
}

func (c *cell) Header() *Header { return &c.hdr }

const cellTypeID = 1

func newCell(value int) *cell {
	c := &cell{value: value}
	InitGlobal(c, cellTypeID)
	return c
}

// cellGC is the GC collaborator every test installs: Duplicate allocates a
// field-for-field copy and marks it local, leaving the write barrier to
// clear FlagNotWritten.
type cellGC struct{}

func (cellGC) Duplicate(g Object) Object {
	orig := g.(*cell)
	local := &cell{value: orig.value}
	local.hdr.SetFlags(FlagLocalCopy | FlagNotWritten)
	return local
}

func readCell(d *Descriptor, root *cell) int {
	obj := ReadBarrier(d, root)
	return obj.(*cell).value
}

func writeCell(d *Descriptor, root *cell, v int) {
	obj := WriteBarrier(d, root)
	obj.(*cell).value = v
}
