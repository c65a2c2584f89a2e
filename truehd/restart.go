/*
NAME
  restart.go

DESCRIPTION
  restart.go parses the per-substream restart header of spec §3, §4.5:
  the syntax structure that re-establishes a substream's DSP state at
  stream start, at seamless branches, and whenever substream geometry
  changes.

LICENSE
  No upstream license header: restart.go is original to this module.
*/

package truehd

import (
	"github.com/pkg/errors"

	"github.com/truehd-go/truehd/bits"
	"github.com/truehd-go/truehd/crc8"
)

// RestartSignature is the expected 16-bit restart-header signature.
const RestartSignature = 0x31EA

// MaxChannels is the largest channel count a single substream can carry
// (object substreams may describe up to 16 channel positions).
const MaxChannels = 16

// RestartHeader carries a substream's state-reset descriptor (spec §3).
type RestartHeader struct {
	// Signature must equal RestartSignature for the header to be valid.
	Signature uint16

	// OutputTiming is the 16-bit output timing counter.
	OutputTiming uint16

	// MinChan and MaxChan bound the substream's active channel indices.
	MinChan, MaxChan uint8

	// MatrixChannelCount is the number of matrix rows that will be
	// applied after FIR/IIR reconstruction for this substream.
	MatrixChannelCount uint8

	// NoiseShift and NoiseGenSeed seed the LFSR-based dither generator
	// used by matrix rows that declare noise shaping.
	NoiseShift   uint8
	NoiseGenSeed uint32

	// ChannelAssignment describes which physical channel each coded
	// channel index maps to.
	ChannelAssignment uint8

	// ContentValid is the "content-is-valid" bit: set together with a
	// resynchronizing block-header flag, it marks a valid branch point
	// (spec §4.8).
	ContentValid bool

	// LSBShift gives, per channel, the number of bits the Huffman-decoded
	// residual is left-shifted before being ORed with uncoded LSBs (spec
	// §4.6 step 2).
	LSBShift [MaxChannels]uint8

	// Checksum is the 8-bit parity byte terminating the header.
	Checksum uint8
}

// ParseRestartHeader reads a restart header from r. raw must be the exact
// byte range of the header (including the checksum byte) so its parity
// can be verified; pass nil to skip parity verification (e.g. when the
// caller has already byte-aligned but cannot slice the source, such as in
// unit tests exercising only field decoding).
func ParseRestartHeader(r *bits.Reader, raw []byte, auOffset, substream int) (*RestartHeader, *Anomaly, error) {
	fr := bits.NewFieldReader(r)
	rh := &RestartHeader{}

	rh.Signature = uint16(fr.U(16))
	rh.OutputTiming = uint16(fr.U(16))
	rh.MinChan = uint8(fr.U(4))
	rh.MaxChan = uint8(fr.U(4))
	rh.MatrixChannelCount = uint8(fr.U(4))
	rh.NoiseShift = uint8(fr.U(4))
	rh.NoiseGenSeed = uint32(fr.U(23))
	rh.ChannelAssignment = uint8(fr.U(8))
	rh.ContentValid = fr.Bool()
	_ = fr.U(1) // reserved.

	nChan := int(rh.MaxChan) - int(rh.MinChan) + 1
	if nChan < 0 {
		nChan = 0
	}
	if nChan > MaxChannels {
		return nil, nil, errors.Errorf("truehd: restart header channel range too wide: %d", nChan)
	}
	for i := 0; i < nChan; i++ {
		rh.LSBShift[i] = uint8(fr.U(4))
	}

	rh.Checksum = uint8(fr.U(8))

	if fr.Err() != nil {
		return nil, nil, errors.Wrap(fr.Err(), "truehd: parsing restart header")
	}

	var anomaly *Anomaly
	if rh.Signature != RestartSignature {
		anomaly = newAnomaly(KindRestartParityMismatch, auOffset, substream, -1,
			"restart header signature mismatch")
	} else if raw != nil && crc8.Parity(raw) != 0 {
		anomaly = newAnomaly(KindRestartParityMismatch, auOffset, substream, -1,
			"restart header parity mismatch")
	}

	return rh, anomaly, nil
}
