package etstm

import "sync/atomic"

// tidFlagShift is where flag bits begin within the 64-bit tid word, mirroring
// the original's "flags occupy the high half of a machine word, starting at
// bit machine_bits/2".
const tidFlagShift = 32

// REV_INITIAL: a freshly prebuilt global object's revision is 1.
const RevInitial uint64 = 1

// Header is the intrusive two-word header every transactionally managed
// object embeds, mirroring h_tid/h_revision in the original implementation.
type Header struct {
	tid      atomic.Uint64
	revision revisionWord

	// owner lets the core recover the Object an arbitrary *Header belongs
	// to (e.g. the head of a chain a read barrier just walked to, with no
	// local copy yet in any G2L). The original has no equivalent field:
	// there, the header *is* the object pointer, so no type-erasure gap
	// exists. Set once by InitGlobal (for prebuilt objects) or by the
	// write barrier's Localize step (for freshly duplicated local
	// copies); never mutated afterwards.
	owner Object
}

// InitGlobal initializes obj's embedded Header in place, for an object
// visible from the start of the process: FlagPrebuilt set, revision 1.
// obj.Header() must be the zero Header embedded as a field of obj.
func InitGlobal(obj Object, typeID uint32) {
	h := obj.Header()
	h.tid.Store(packTID(FlagPrebuilt, typeID))
	h.revision.storeTimestamp(RevInitial)
	h.owner = obj
}

func packTID(flags Flag, typeID uint32) uint64 {
	return uint64(flags)<<tidFlagShift | uint64(typeID)
}

func unpackFlags(tid uint64) Flag    { return Flag(tid >> tidFlagShift) }
func unpackTypeID(tid uint64) uint32 { return uint32(tid) }

// Flags returns the current flag bits.
func (h *Header) Flags() Flag { return unpackFlags(h.tid.Load()) }

// TypeID returns the caller-defined type tag.
func (h *Header) TypeID() uint32 { return unpackTypeID(h.tid.Load()) }

// HasFlag reports whether all bits in want are set.
func (h *Header) HasFlag(want Flag) bool { return h.Flags().has(want) }

// SetFlags atomically ORs bits into the flag half of the tid word.
func (h *Header) SetFlags(bits Flag) {
	for {
		old := h.tid.Load()
		next := old | uint64(bits)<<tidFlagShift
		if h.tid.CompareAndSwap(old, next) {
			return
		}
	}
}

// ClearFlags atomically clears bits from the flag half of the tid word.
func (h *Header) ClearFlags(bits Flag) {
	for {
		old := h.tid.Load()
		next := old &^ (uint64(bits) << tidFlagShift)
		if h.tid.CompareAndSwap(old, next) {
			return
		}
	}
}

// revisionRaw returns the raw, still-tagged revision word.
func (h *Header) revisionRaw() uint64 { return h.revision.load() }

// resolvedLink returns the Header this header's revision word links to,
// assuming revisionRaw() is known to be an even (pointer) value.
func (h *Header) resolvedLink() *Header { return resolveLink(h.revisionRaw()) }
