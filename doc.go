// Package etstm implements a software transactional memory runtime based on
// the Extendable Timestamps (ET) algorithm: object versioning, read/write
// barriers, a global clock, two-phase commit with per-object locking, and an
// inevitable (irrevocable) transaction mode.
//
// The package does not allocate application objects itself; a host supplies
// a GC implementation (Duplicate) and embeds Header in every object it wants
// to manage transactionally. EnumerateRoots is provided by this package for
// a host GC that needs to visit transactional roots.
package etstm
