/*
NAME
  blockheader.go

DESCRIPTION
  blockheader.go parses the per-substream per-block flags of spec §3,
  §4.5 step 2: a set of presence bits selecting which parameter groups
  are re-sent for this block versus carried forward from the previous
  one.

LICENSE
  No upstream license header: blockheader.go is original to this module.
*/

package truehd

import (
	"github.com/pkg/errors"

	"github.com/truehd-go/truehd/bits"
)

// DefaultBlockSize is the block size in samples assumed for a
// substream's first block, before any block size has been carried
// forward (spec §3).
const DefaultBlockSize = 8

// MaxBlockSamplesPerAU bounds the aggregate sample count across all of a
// substream's blocks within one AU (spec §3).
const MaxBlockSamplesPerAU = 2560

// BlockHeader carries the per-block presence flags and the block size
// when re-sent (spec §3).
type BlockHeader struct {
	RestartHeaderPresent  bool
	BlockSizePresent      bool
	BlockSize             int
	MatrixParamsPresent   bool
	OutputShiftPresent    bool
	QuantStepSizePresent  bool
	ChannelParamsPresent  bool
	HuffmanOffsetsPresent bool

	// Terminator is true when this is the last block in the substream's
	// portion of the current AU (spec §4.5 step 4).
	Terminator bool
}

// ParseBlockHeader reads one block header from r (spec §4.5 step 2).
// fallbackSize is used as BlockSize when this block does not re-send
// one; the caller carries the substream's last parsed block size
// forward for this (spec §3 "last block size"), falling back to
// DefaultBlockSize only for a substream's first block since restart.
func ParseBlockHeader(r *bits.Reader, fallbackSize int) (*BlockHeader, error) {
	fr := bits.NewFieldReader(r)
	bh := &BlockHeader{}

	bh.RestartHeaderPresent = fr.Bool()
	bh.BlockSizePresent = fr.Bool()
	bh.MatrixParamsPresent = fr.Bool()
	bh.OutputShiftPresent = fr.Bool()
	bh.QuantStepSizePresent = fr.Bool()
	bh.ChannelParamsPresent = fr.Bool()
	bh.HuffmanOffsetsPresent = fr.Bool()
	bh.Terminator = fr.Bool()

	if bh.BlockSizePresent {
		bh.BlockSize = int(fr.U(9))
	} else {
		bh.BlockSize = fallbackSize
	}

	if fr.Err() != nil {
		return nil, errors.Wrap(fr.Err(), "truehd: parsing block header")
	}
	if bh.BlockSize <= 0 || bh.BlockSize > MaxBlockSamplesPerAU {
		return nil, errors.Errorf("truehd: block size %d out of range", bh.BlockSize)
	}
	return bh, nil
}
