/*
NAME
  matrix.go

DESCRIPTION
  matrix.go defines the matrix mixing-stage parameters of spec §3, §4.6:
  a list of rows, each an LSB-bypass flag, a noise-shift, and signed
  fractional coefficients, applied in declared order over a variable
  channel set. Rows are represented as plain arrays indexed by channel
  number, not by reference, per spec §9's "graph of filter/matrix
  parameters" design note: the references are transient and scope-local
  to one block, so there is no benefit to a graph structure.

LICENSE
  No upstream license header: matrix.go is original to this module.
*/

package truehd

import "github.com/pkg/errors"

// MaxMatrixRows is the fixed row-count bound the Decoder passes to the
// matrix parser for every substream. It is not derived from the latched
// MajorSync or from the restart header.
const MaxMatrixRows = 16

// MatrixRow is one row of the matrix mixing stage (spec §3, §4.6):
// out[Dest] += sum(Coeffs[j] * samples[Src[j]]).
type MatrixRow struct {
	// Dest is the output channel index this row accumulates into.
	Dest int

	// Src lists the source channel indices read by this row. Later rows
	// may reference channels written by earlier rows within the same
	// block (spec §4.6).
	Src []int

	// Coeffs holds one signed fractional coefficient per entry in Src,
	// in CoeffQ fractional bits.
	Coeffs []int64

	// CoeffQ is the fractional-bit precision of Coeffs.
	CoeffQ int

	// LSBBypass, when true, skips dithering the row's least-significant
	// bits with the noise generator.
	LSBBypass bool

	// NoiseShift configures the LFSR-derived dither amplitude applied to
	// this row's output when LSBBypass is false.
	NoiseShift uint8
}

// MatrixParams is the ordered list of rows applied after FIR/IIR
// reconstruction, for one substream's block (spec §3).
type MatrixParams struct {
	Rows []MatrixRow
}

// ErrMatrixRowCountExceeded is returned when a parsed MatrixParams
// declares more rows than the maxRows bound the parser was given.
var ErrMatrixRowCountExceeded = errors.New("truehd: matrix row count exceeds declared maximum")

// validateRowCount rejects a row list longer than maxRows. The restart
// header's MatrixChannelCount is not consulted.
func validateRowCount(rows []MatrixRow, maxRows int) error {
	if len(rows) > maxRows {
		return ErrMatrixRowCountExceeded
	}
	return nil
}
