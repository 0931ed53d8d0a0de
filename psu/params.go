// Package psu implements the wcPRF-based two-party Private Set Union
// protocol (spec.md §4.E), the core this module exists to build: it
// orchestrates the curve, filter, and ot packages across three execution
// modes (batched, pipelined, parallel-pipelined). It is grounded on
// _examples/original_source/psu/dh-psu.hpp (the Kunlun C++ this core was
// distilled from) for the message schedule, and on the teacher's
// protocol/consensus_structured.go for how a multi-step cryptographic
// protocol logs its phases and accumulates/propagates errors in Go.
package psu

import (
	"math"

	"github.com/dedis/psu/config"
	"github.com/dedis/psu/curve"
	"github.com/dedis/psu/errs"
)

// PP is the PSU session's public parameters (spec.md §3).
type PP struct {
	G          curve.Point
	Lambda     int
	P          float64 // desired filter false-positive probability, 2^-lambda/2
	FilterType config.FilterMode
}

// Setup initialises public parameters from a filter mode and statistical
// security parameter (spec.md §4.E.1).
func Setup(filterType config.FilterMode, lambda int) (PP, error) {
	if !filterType.Valid() {
		return PP{}, errs.New(errs.ConfigError, "psu.Setup", "filter_type not in {shuffle, bloom, cuckoo}")
	}
	if lambda <= 0 {
		lambda = 40
	}
	return PP{
		G:          curve.Generator(),
		Lambda:     lambda,
		P:          math.Pow(2, -float64(lambda)/2),
		FilterType: filterType,
	}, nil
}
