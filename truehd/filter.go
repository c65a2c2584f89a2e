/*
NAME
  filter.go

DESCRIPTION
  filter.go defines the FIR/IIR filter parameter structure of spec §3,
  §4.6: per-channel, per-filter-kind order, coefficient precision and
  signed coefficients, plus the coeff_q constants the channel decoder DSP
  applies when folding filter output back to integer sample precision.

LICENSE
  No upstream license header: filter.go is original to this module.
*/

package truehd

import "github.com/pkg/errors"

// FilterKind distinguishes the two filter stages applied per channel
// (spec §3, §4.6).
type FilterKind int

const (
	FilterFIR FilterKind = iota
	FilterIIR
)

// MaxFilterOrder is the maximum order a single filter (FIR or IIR) may
// declare.
const MaxFilterOrder = 8

// CoeffQ gives the fixed per-filter-kind coefficient-precision shift
// (spec §4.6, §9): the combined FIR+IIR accumulator is shifted right by
// this amount before being added to the residual. The value for Filter A
// (FIR) was corrected at version 0.2.0 of the reference implementation
// (spec §9, "possibly-buggy source behavior"); this module uses 14 for
// Filter A rather than the pre-0.2.0 value of 13. This choice has not
// been checked against reference bitstreams. Filter B (IIR) uses 14 as
// well.
var CoeffQ = map[FilterKind]int{
	FilterFIR: 14,
	FilterIIR: 14,
}

// FilterParams holds one channel's filter coefficients for one filter
// kind (spec §3).
type FilterParams struct {
	Kind FilterKind

	// Order is in [0, MaxFilterOrder]; FIR+IIR combined order must not
	// exceed MaxFilterOrder (spec §3 invariant).
	Order int

	// CoeffQ is this filter's coefficient-precision shift, copied from
	// the package-level CoeffQ table at parse time so later pipeline
	// stages need not look it up again.
	CoeffQ int

	// Coeffs holds Order signed coefficients.
	Coeffs []int64

	// InitialState holds declared initial ring contents for the filter.
	// The substream parser never sets it and reconstructBlock never reads
	// it: after a restart the filter rings always start from zero.
	InitialState []int64
}

// ErrFilterOrderExceeded is returned when an updated filter's order would
// push the combined FIR+IIR order above MaxFilterOrder.
var ErrFilterOrderExceeded = errors.New("truehd: combined filter order exceeds 8")

// validateCombinedOrder enforces spec §3's "FIR+IIR combined order <= 8"
// invariant.
func validateCombinedOrder(fir, iir int) error {
	if fir+iir > MaxFilterOrder {
		return ErrFilterOrderExceeded
	}
	return nil
}
