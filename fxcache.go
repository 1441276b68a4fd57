package etstm

import "unsafe"

// fxOutcome is the result of probing the recent-reads cache.
type fxOutcome int

const (
	// fxNew means the object was not found in the cache (nor, to the
	// cache's approximate knowledge, ever added): the caller should
	// append it to the read set.
	fxNew fxOutcome = iota
	// fxPresent means the object has been seen recently, below the hot
	// threshold: no read-set insertion needed.
	fxPresent
	// fxPresentHot means the object has been read repeatedly enough,
	// recently, that it is worth eagerly promoting to a local copy.
	fxPresentHot
)

// fxCacheSize is the number of direct-mapped slots. Any power of two works;
// this one matches the scale of the original's FX_THRESHOLD-driven cache.
const fxCacheSize = 64

// fxHotThreshold is how many times (within one transaction, ignoring
// evictions) an object must be observed, counting the first read, before it
// is "hot": with 2, the second read already returns fxPresentHot.
const fxHotThreshold = 2

// fxCache is a bounded, approximate, direct-mapped membership filter used to
// deduplicate read-set insertions, mirroring the original's FXCache. It is
// private to one descriptor and reset every transaction; false negatives
// (an object evicted by a hash collision looking "new" again) are harmless,
// since the read set itself tolerates duplicates.
type fxCache struct {
	key   [fxCacheSize]uintptr
	count [fxCacheSize]uint8
}

func fxIndex(h *Header) uintptr {
	p := uintptr(unsafe.Pointer(h))
	// Fibonacci-style multiplicative hash, spreading allocator-adjacent
	// addresses across the table.
	return (p * 0x9E3779B97F4A7C15) >> (64 - 6) & (fxCacheSize - 1)
}

func (c *fxCache) add(h *Header) fxOutcome {
	p := uintptr(unsafe.Pointer(h))
	idx := fxIndex(h)
	if c.key[idx] == p && c.count[idx] > 0 {
		c.count[idx]++
		if c.count[idx] >= fxHotThreshold {
			return fxPresentHot
		}
		return fxPresent
	}
	c.key[idx] = p
	c.count[idx] = 1
	return fxNew
}

func (c *fxCache) clear() {
	for i := range c.count {
		c.count[i] = 0
	}
}
