package psu

import (
	"runtime"

	"github.com/dedis/psu/block"
	"github.com/dedis/psu/netio"
)

// ParallelSender runs the Sender side in parallel-pipelined mode: the same
// vectorised exchange as batched mode (spec.md §4.E.2's table: "vector /
// vector / vector"), but with the bulk-apply thread pool mandatory rather
// than optional, as the OpenMP-pragma'd loops in
// _examples/original_source/psu/dh-psu.hpp's ParallelSender/
// ParallelReceiver always are. A caller-supplied workers <= 1 is bumped to
// runtime.NumCPU() (at least 2) so the mode never silently degrades to
// single-threaded.
func ParallelSender(ch *netio.Channel, pp PP, X []block.Block, workers int, rnd func() block.Block) error {
	return Sender(ch, pp, X, effectiveParallelism(workers), rnd)
}

// ParallelReceiver runs the Receiver side in parallel-pipelined mode.
func ParallelReceiver(ch *netio.Channel, pp PP, Y []block.Block, workers int, rnd func() block.Block) (Union, error) {
	return Receiver(ch, pp, Y, effectiveParallelism(workers), rnd)
}

func effectiveParallelism(workers int) int {
	if workers > 1 {
		return workers
	}
	if n := runtime.NumCPU(); n > 1 {
		return n
	}
	return 2
}
