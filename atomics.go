package etstm

import "runtime"

// cpuPause is the CPU pause hint a spin loop issues between retries. Go
// exposes no portable PAUSE intrinsic without assembly; runtime.Gosched is
// the standard higher-level substitute used throughout the Go concurrency
// ecosystem (it's what sync.Mutex's own internal spin eventually falls back
// to), so a bounded spin here yields to the scheduler rather than busy-spin
// burning a core indefinitely.
func cpuPause() {
	runtime.Gosched()
}
