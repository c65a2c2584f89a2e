/*
NAME
  quant.go

DESCRIPTION
  quant.go defines the per-output-channel quantizer step size of spec §3,
  §4.6: the final shift applied to each output channel's samples to
  obtain 24-bit linear PCM.

LICENSE
  No upstream license header: quant.go is original to this module.
*/

package truehd

import "github.com/pkg/errors"

// MaxQuantStep bounds the per-channel shift; TrueHD's 24-bit PCM output
// cannot meaningfully shift by more than this.
const MaxQuantStep = 24

// QuantStepSize holds the per-output-channel shift applied to scale
// decoded residuals to output sample precision (spec §3).
type QuantStepSize struct {
	// Shift is applied right (positive) or left (negative, sign
	// preserving) depending on sign, per spec §4.6.
	Shift [MaxChannels]int8
}

// ErrQuantStepOutOfRange is returned when a parsed shift value falls
// outside [-MaxQuantStep, MaxQuantStep].
var ErrQuantStepOutOfRange = errors.New("truehd: quantizer step size out of range")

func validateQuantStep(shift int8) error {
	if int(shift) > MaxQuantStep || int(shift) < -MaxQuantStep {
		return ErrQuantStepOutOfRange
	}
	return nil
}

// applyQuantStep scales sample by this channel's shift: positive shifts right
// (arithmetic, sign-preserving), negative shifts left.
func applyQuantStep(sample int64, shift int8) int64 {
	if shift >= 0 {
		return sample >> uint(shift)
	}
	return sample << uint(-shift)
}
