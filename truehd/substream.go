/*
NAME
  substream.go

DESCRIPTION
  substream.go implements the substream parser of spec §4.5: per AU, per
  substream, parses the (optional) restart header, then loops over one or
  more blocks, each refreshing only the parameter groups its block header
  flags select, reading Huffman-coded residuals, and handing the result
  to the channel decoder DSP (dsp.go). The terminator block additionally
  carries the substream's 8-bit lossless check word, compared against
  the running XOR fold accumulated over every block decoded this AU
  (spec §4.2, §4.6, §4.8).

LICENSE
  No upstream license header: substream.go is original to this module.
*/

package truehd

import (
	"github.com/pkg/errors"

	"github.com/truehd-go/truehd/bits"
	"github.com/truehd-go/truehd/crc16"
	"github.com/truehd-go/truehd/crc8"
	"github.com/truehd-go/truehd/huffman"
)

// substreamLatched holds the parameter groups that persist across blocks
// within a substream's portion of one AU, refreshed only when a block
// header's corresponding presence flag is set (spec §4.5 step 2).
type substreamLatched struct {
	nChannels  int
	fir        [MaxChannels]*FilterParams
	iir        [MaxChannels]*FilterParams
	matrix     MatrixParams
	quant      QuantStepSize
	huffTable  [MaxChannels]int // 0 = no coding, 1 or 2 = coded table.
	huffOffset [MaxChannels]int64
	lsbBits    [MaxChannels]uint8 // uncoded LSBs appended below the Huffman value.
}

// DecodedBlock is one substream's fully reconstructed block of PCM, with
// the block's matrix rows and quantizer shifts already applied.
type DecodedBlock struct {
	PCM       [][]int32 // indexed [channel][sample]
	CheckWord uint8
	Mismatch  bool
}

// ParseAndDecodeSubstream runs spec §4.5 end to end for one substream's
// payload within one AU: restart header (if present), the block loop,
// Huffman residual decode, DSP reconstruction, and the trailing CRC
// check. st is the substream's carried decoder state (spec §9), updated
// in place.
//
// It additionally returns the restart header parsed this AU (nil if none
// was present) and whether the substream's first block carried the
// resync flag, since the caller's branch/restart FSM needs both to
// classify this AU as a valid seamless-branch point (spec §4.8).
func ParseAndDecodeSubstream(
	r *bits.Reader,
	raw []byte,
	seg SubstreamSegment,
	latched *substreamLatched,
	st *substreamState,
	maxMatrixRows int,
	auOffset int,
) ([]DecodedBlock, *RestartHeader, bool, []*Anomaly, error) {
	var anomalies []*Anomaly
	var blocks []DecodedBlock
	var restartHeader *RestartHeader
	firstBlockResync := false

	if seg.RestartHeaderHere {
		rhStart := r.BytePosition()
		rh, anomaly, err := ParseRestartHeader(r, nil, auOffset, seg.Index)
		if err != nil {
			return nil, nil, false, anomalies, errors.Wrap(err, "truehd: restart header")
		}
		restartHeader = rh
		if anomaly != nil {
			anomalies = append(anomalies, anomaly)
		}
		r.AlignToByte()
		rhEnd := r.BytePosition()
		if raw != nil && rhEnd <= len(raw) && rhStart <= rhEnd && anomaly == nil {
			if crc8.Parity(raw[rhStart:rhEnd]) != 0 {
				anomalies = append(anomalies, newAnomaly(KindRestartParityMismatch, auOffset, seg.Index, -1,
					"restart header byte-range parity mismatch"))
			}
		}

		st.reset(rh.NoiseGenSeed)
		latched.nChannels = int(rh.MaxChan) - int(rh.MinChan) + 1
		st.quantStep = QuantStepSize{}
		for i := 0; i < latched.nChannels && i < MaxChannels; i++ {
			latched.lsbBits[i] = rh.LSBShift[i]
		}
	}

	if !st.restartSeen {
		return nil, nil, false, anomalies, errors.New("truehd: substream block data with no prior restart header")
	}

	blockIdx := 0
	totalSamples := 0
	for {
		fallbackSize := st.lastBlockSize
		if fallbackSize <= 0 {
			fallbackSize = DefaultBlockSize
		}
		bh, err := ParseBlockHeader(r, fallbackSize)
		if err != nil {
			return blocks, restartHeader, firstBlockResync, anomalies, errors.Wrap(err, "truehd: block header")
		}
		st.lastBlockSize = bh.BlockSize
		if blockIdx == 0 {
			firstBlockResync = bh.RestartHeaderPresent
		}

		if bh.MatrixParamsPresent {
			mp, err := parseMatrixParams(r, latched.nChannels, maxMatrixRows)
			if err != nil {
				return blocks, restartHeader, firstBlockResync, anomalies, err
			}
			latched.matrix = *mp
		}
		if bh.ChannelParamsPresent {
			if err := parseChannelFilterParams(r, latched); err != nil {
				return blocks, restartHeader, firstBlockResync, anomalies, err
			}
		}
		if bh.OutputShiftPresent {
			for c := 0; c < latched.nChannels; c++ {
				v, err := r.ReadSigned(5)
				if err != nil {
					return blocks, restartHeader, firstBlockResync, anomalies, errors.Wrap(err, "truehd: output shift")
				}
				latched.quant.Shift[c] = int8(v)
				if err := validateQuantStep(int8(v)); err != nil {
					anomalies = append(anomalies, newAnomaly(KindQuantStepOutOfRange, auOffset, seg.Index, blockIdx, err.Error()))
				}
			}
		}
		if bh.QuantStepSizePresent {
			st.quantStep = latched.quant
		}
		if bh.HuffmanOffsetsPresent {
			for c := 0; c < latched.nChannels; c++ {
				v, err := r.ReadSigned(16)
				if err != nil {
					return blocks, restartHeader, firstBlockResync, anomalies, errors.Wrap(err, "truehd: huffman offset")
				}
				latched.huffOffset[c] = v
				tbl, err := r.ReadBits(2)
				if err != nil {
					return blocks, restartHeader, firstBlockResync, anomalies, errors.Wrap(err, "truehd: huffman table index")
				}
				latched.huffTable[c] = int(tbl)
			}
		}

		residual, err := readResidualBlock(r, latched, bh.BlockSize)
		if err != nil {
			return blocks, restartHeader, firstBlockResync, anomalies, errors.Wrap(err, "truehd: residual block")
		}

		params := &blockChannelParams{nChannels: latched.nChannels, matrix: latched.matrix, quant: latched.quant}
		for c := 0; c < latched.nChannels; c++ {
			params.fir[c] = latched.fir[c]
			params.iir[c] = latched.iir[c]
		}

		pre := reconstructBlock(st, params, residual, bh.BlockSize)
		applyMatrix(st, latched.matrix, pre, bh.BlockSize)
		pcm := quantize(pre, latched.quant)
		check := losslessCheck(pcm)
		st.checkAccum ^= check

		blocks = append(blocks, DecodedBlock{PCM: pcm, CheckWord: check})

		totalSamples += bh.BlockSize
		blockIdx++
		if bh.Terminator {
			declared, err := r.ReadBits(8)
			if err != nil {
				return blocks, restartHeader, firstBlockResync, anomalies, errors.Wrap(err, "truehd: lossless check word")
			}
			if uint8(declared) != st.checkAccum {
				blocks[len(blocks)-1].Mismatch = true
				anomalies = append(anomalies, newAnomaly(KindLosslessCheckMismatch, auOffset, seg.Index, blockIdx-1,
					"lossless check mismatch"))
			}
			st.checkAccum = 0
			break
		}
		if totalSamples >= MaxBlockSamplesPerAU {
			return blocks, restartHeader, firstBlockResync, anomalies, errors.New("truehd: block loop exceeded max samples without terminator")
		}
	}

	r.AlignToByte()
	if seg.CRCPresent && raw != nil {
		// The CRC occupies the last two bytes of the payload range (see
		// Framer.Next) and covers every payload byte before it.
		start, end := seg.PayloadStartByte, seg.PayloadEndByte
		if end >= 2 && end <= len(raw) && start <= end-2 {
			computed := crc16.Checksum(raw[start : end-2])
			if computed != seg.CRC {
				anomalies = append(anomalies, newAnomaly(KindSubstreamCRCMismatch, auOffset, seg.Index, -1,
					"substream CRC mismatch"))
			}
		}
	}

	return blocks, restartHeader, firstBlockResync, anomalies, nil
}

// parseMatrixParams reads MatrixParams for one block (spec §3, §4.5).
func parseMatrixParams(r *bits.Reader, nChannels, maxRows int) (*MatrixParams, error) {
	fr := bits.NewFieldReader(r)
	count := int(fr.U(4))
	if fr.Err() != nil {
		return nil, errors.Wrap(fr.Err(), "truehd: matrix row count")
	}
	if err := validateRowCount(make([]MatrixRow, count), maxRows); err != nil {
		return nil, err
	}

	mp := &MatrixParams{Rows: make([]MatrixRow, count)}
	for i := 0; i < count; i++ {
		row := &mp.Rows[i]
		row.Dest = int(fr.U(4))
		nSrc := int(fr.U(4))
		row.CoeffQ = int(fr.U(4))
		row.LSBBypass = fr.Bool()
		row.NoiseShift = uint8(fr.U(4))
		row.Src = make([]int, nSrc)
		row.Coeffs = make([]int64, nSrc)
		for j := 0; j < nSrc; j++ {
			row.Src[j] = int(fr.U(4))
			row.Coeffs[j] = fr.S(16)
		}
	}
	if fr.Err() != nil {
		return nil, errors.Wrap(fr.Err(), "truehd: matrix row fields")
	}
	_ = nChannels
	return mp, nil
}

// parseChannelFilterParams reads FIR then IIR FilterParams for every
// active channel (spec §4.5 step 2: "matrix params, filter params (FIR
// then IIR)").
func parseChannelFilterParams(r *bits.Reader, latched *substreamLatched) error {
	for c := 0; c < latched.nChannels; c++ {
		fir, err := parseOneFilter(r, FilterFIR)
		if err != nil {
			return errors.Wrap(err, "truehd: FIR filter params")
		}
		iir, err := parseOneFilter(r, FilterIIR)
		if err != nil {
			return errors.Wrap(err, "truehd: IIR filter params")
		}
		if err := validateCombinedOrder(fir.Order, iir.Order); err != nil {
			return err
		}
		latched.fir[c] = fir
		latched.iir[c] = iir
	}
	return nil
}

func parseOneFilter(r *bits.Reader, kind FilterKind) (*FilterParams, error) {
	fr := bits.NewFieldReader(r)
	order := int(fr.U(4))
	if fr.Err() != nil {
		return nil, fr.Err()
	}
	fp := &FilterParams{Kind: kind, Order: order, CoeffQ: CoeffQ[kind]}
	if order == 0 {
		return fp, nil
	}
	fp.Coeffs = make([]int64, order)
	for i := 0; i < order; i++ {
		fp.Coeffs[i] = fr.S(16)
	}
	if fr.Err() != nil {
		return nil, fr.Err()
	}
	return fp, nil
}

// readResidualBlock reads blockSize Huffman-coded residuals (plus any
// uncoded LSBs) for every active channel (spec §4.5 step 3, §4.6 step 2).
func readResidualBlock(r *bits.Reader, latched *substreamLatched, blockSize int) ([][]int64, error) {
	out := make([][]int64, latched.nChannels)
	for c := 0; c < latched.nChannels; c++ {
		out[c] = make([]int64, blockSize)
		tblIdx := latched.huffTable[c]
		var tbl *huffman.Table
		if tblIdx != 0 {
			var err error
			tbl, err = huffman.ForIndex(tblIdx)
			if err != nil {
				return nil, err
			}
		}
		lsb := latched.lsbBits[c]
		for n := 0; n < blockSize; n++ {
			var coded int64
			if tbl != nil {
				v, err := tbl.Decode(r)
				if err != nil {
					return nil, err
				}
				coded = int64(v)
			}
			var uncoded int64
			if lsb > 0 {
				u, err := r.ReadBits(int(lsb))
				if err != nil {
					return nil, err
				}
				uncoded = int64(u)
			}
			out[c][n] = ((coded << uint(lsb)) | uncoded) + latched.huffOffset[c]
		}
	}
	return out, nil
}
