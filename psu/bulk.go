package psu

import "sync"

// bulkApply runs fn(i) for every i in [0,n) using up to workers goroutines,
// the bulk-apply primitive spec.md §9's design notes call for in place of
// the reference's OpenMP pragmas: "a bulk-apply primitive over an index
// range with a per-index closure; require the closure to use only
// thread-safe curve and hash variants." The batched mode passes its
// caller's workers through, and the parallel-pipelined mode always passes
// more than one; the closures they pass use curve.ThreadSafeBlockToECPoint,
// curve.Apply (read-only scalar multiplication) and read-only membership
// lookups, each writing only its own index, never a shared mutable
// accumulator.
func bulkApply(n, workers int, fn func(i int)) {
	if workers <= 1 || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
}
