/*
NAME
  dsp.go

DESCRIPTION
  dsp.go implements the channel decoder DSP pipeline of spec §4.6:
  Huffman-residual reconstruction through a per-channel IIR/FIR filter,
  matrix mixdown across the declared channel set, per-channel output
  shift, and the lossless-check parity fold.

LICENSE
  No upstream license header: dsp.go is original to this module.
*/

package truehd

// blockChannelParams bundles the parameters that govern reconstruction
// for one substream's block: per-channel filters and the matrix/quant
// stages applied afterward. Held as plain arrays indexed by channel
// number, per spec §9's "graph of filter/matrix parameters" note.
type blockChannelParams struct {
	nChannels int
	fir       [MaxChannels]*FilterParams
	iir       [MaxChannels]*FilterParams
	matrix    MatrixParams
	quant     QuantStepSize
	lsbShift  [MaxChannels]uint8
}

// reconstructBlock runs spec §4.6 steps 1-3 for every sample of one
// block: FIR/IIR filter prediction, residual addition, and filter-state
// update, producing pre-matrix samples per channel.
//
// residual[c][n] must already include the per-channel LSB shift and
// uncoded-LSB OR described in spec §4.6 step 2; the caller (substream
// parser) is responsible for combining the Huffman-decoded value with any
// uncoded LSBs before calling reconstructBlock, since that combination
// depends on bitstream layout, not DSP.
func reconstructBlock(st *substreamState, p *blockChannelParams, residual [][]int64, blockSize int) [][]int64 {
	out := make([][]int64, p.nChannels)
	for c := 0; c < p.nChannels; c++ {
		out[c] = make([]int64, blockSize)
		cs := &st.channels[c]
		fir := p.fir[c]
		iir := p.iir[c]

		for n := 0; n < blockSize; n++ {
			var yFIR, yIIR int64
			if fir != nil {
				for k := 0; k < fir.Order && k < len(cs.fir); k++ {
					yFIR += fir.Coeffs[k] * cs.fir[k]
				}
			}
			if iir != nil {
				for k := 0; k < iir.Order && k < len(cs.iir); k++ {
					yIIR += iir.Coeffs[k] * cs.iir[k]
				}
			}

			shift := CoeffQ[FilterFIR]
			if fir == nil && iir != nil {
				shift = iir.CoeffQ
			} else if fir != nil {
				shift = fir.CoeffQ
			}
			y := (yFIR + yIIR) >> uint(shift)

			x := y + residual[c][n]
			out[c][n] = x

			cs.pushFIR(x)
			cs.pushIIR(y)
		}
	}
	return out
}

// applyMatrix runs spec §4.6's matrix mixdown stage: for each declared
// row, in order, accumulate coefficient-weighted source samples into the
// destination channel, optionally dithered by the LFSR noise generator.
// Later rows may read channels written by earlier rows within the same
// block, matching the declared-order semantics of spec §4.6 and the
// "graph of filter/matrix parameters" design note in spec §9 (rows
// reference channels by plain array index, not by pointer/reference).
//
// A row's source or destination channel index may exceed this
// substream's active channel count (matrix rows commonly reference a
// channel assigned only in a wider presentation). Such a channel has no
// sample slice this block, so applyMatrix falls back to st's carried
// matrixIntermediate — the last value that channel held the last time a
// row actually wrote it — and a row that targets one updates
// matrixIntermediate in turn rather than writing into samples.
func applyMatrix(st *substreamState, m MatrixParams, samples [][]int64, blockSize int) {
	srcVal := func(ch, n int) int64 {
		if ch < len(samples) {
			return samples[ch][n]
		}
		return st.matrixIntermediate[ch]
	}

	for _, row := range m.Rows {
		if row.Dest >= len(samples) {
			if blockSize == 0 {
				continue
			}
			var acc int64
			for j, src := range row.Src {
				acc += row.Coeffs[j] * srcVal(src, blockSize-1)
			}
			acc >>= uint(row.CoeffQ)
			st.matrixIntermediate[row.Dest] = acc
			continue
		}
		for n := 0; n < blockSize; n++ {
			var acc int64
			for j, src := range row.Src {
				acc += row.Coeffs[j] * srcVal(src, n)
			}
			acc >>= uint(row.CoeffQ)
			if !row.LSBBypass && st.noise != nil {
				noise := int64(st.noise.next()) >> uint(23-row.NoiseShift)
				acc += noise
			}
			samples[row.Dest][n] += acc
		}
		if blockSize > 0 {
			st.matrixIntermediate[row.Dest] = samples[row.Dest][blockSize-1]
		}
	}
}

// quantize applies spec §4.6's final per-output-channel shift, producing
// 24-bit linear PCM values.
func quantize(samples [][]int64, q QuantStepSize) [][]int32 {
	out := make([][]int32, len(samples))
	for c, chSamples := range samples {
		out[c] = make([]int32, len(chSamples))
		for n, s := range chSamples {
			shifted := applyQuantStep(s, q.Shift[c])
			out[c][n] = int32(shifted)
		}
	}
	return out
}

// losslessCheck folds the output block into an 8-bit check word, XORing
// the high 8 bits of every sample across every channel with a running
// parity and folding in the low bits, per spec §4.2/§4.6.
func losslessCheck(pcm [][]int32) uint8 {
	var check uint8
	for _, ch := range pcm {
		for _, s := range ch {
			u := uint32(s)
			high := byte(u >> 16)
			low := byte(u) ^ byte(u>>8)
			check ^= high ^ low
		}
	}
	return check
}
