package etstm

// Flag is one of the header bits tracked in the high half of a Header's tid
// word (the low half carries the caller's type id).
type Flag uint32

const (
	// FlagGlobal marks an object as shared and immutable in place; writers
	// must go through the write barrier to obtain a local copy.
	FlagGlobal Flag = 1 << iota

	// FlagPossiblyOutdated marks a global object whose revision chain may
	// have a newer head than the one currently referenced.
	FlagPossiblyOutdated

	// FlagNotWritten marks a global object not yet superseded, or a local
	// copy not yet mutated. Only the write barrier clears this flag.
	FlagNotWritten

	// FlagLocalCopy marks a private, writable duplicate owned by exactly
	// one transaction.
	FlagLocalCopy
)

// FlagPrebuilt is the flag set a host should use for objects that exist
// before any transaction runs.
const FlagPrebuilt = FlagGlobal | FlagNotWritten

func (f Flag) has(bits Flag) bool { return f&bits == bits }

func (f Flag) String() string {
	if f == 0 {
		return "none"
	}
	s := ""
	add := func(bit Flag, name string) {
		if f&bit != 0 {
			if s != "" {
				s += "|"
			}
			s += name
		}
	}
	add(FlagGlobal, "GLOBAL")
	add(FlagPossiblyOutdated, "POSSIBLY_OUTDATED")
	add(FlagNotWritten, "NOT_WRITTEN")
	add(FlagLocalCopy, "LOCAL_COPY")
	return s
}
