package truehd

import (
	"testing"

	"github.com/truehd-go/truehd/bits"
)

func TestParseOneFilterZeroOrder(t *testing.T) {
	w := &testBitWriter{}
	w.writeBits(0, 4) // order.
	w.alignToByte()

	r := bits.NewReader(w.buf)
	fp, err := parseOneFilter(r, FilterFIR)
	if err != nil {
		t.Fatalf("parseOneFilter error: %v", err)
	}
	if fp.Order != 0 || fp.Coeffs != nil {
		t.Errorf("zero-order filter should have no coefficients: %+v", fp)
	}
	if fp.CoeffQ != CoeffQ[FilterFIR] {
		t.Errorf("CoeffQ = %d, want %d", fp.CoeffQ, CoeffQ[FilterFIR])
	}
}

func TestParseOneFilterWithCoeffs(t *testing.T) {
	w := &testBitWriter{}
	w.writeBits(2, 4)                  // order.
	w.writeBits(uint64(int16(100)), 16) // coeff 0.
	w.writeBits(uint64(uint16(int16(-50))), 16) // coeff 1.
	w.alignToByte()

	r := bits.NewReader(w.buf)
	fp, err := parseOneFilter(r, FilterIIR)
	if err != nil {
		t.Fatalf("parseOneFilter error: %v", err)
	}
	if fp.Order != 2 {
		t.Fatalf("Order = %d, want 2", fp.Order)
	}
	if fp.Coeffs[0] != 100 || fp.Coeffs[1] != -50 {
		t.Errorf("Coeffs = %v, want [100 -50]", fp.Coeffs)
	}
}

func TestParseMatrixParamsEmpty(t *testing.T) {
	w := &testBitWriter{}
	w.writeBits(0, 4) // row count 0.
	w.alignToByte()

	r := bits.NewReader(w.buf)
	mp, err := parseMatrixParams(r, 2, MaxMatrixRows)
	if err != nil {
		t.Fatalf("parseMatrixParams error: %v", err)
	}
	if len(mp.Rows) != 0 {
		t.Errorf("Rows = %v, want empty", mp.Rows)
	}
}

func TestParseMatrixParamsRowCountExceeded(t *testing.T) {
	w := &testBitWriter{}
	w.writeBits(15, 4) // row count 15, exceeds a maxRows of 4.
	w.alignToByte()

	r := bits.NewReader(w.buf)
	if _, err := parseMatrixParams(r, 2, 4); err != ErrMatrixRowCountExceeded {
		t.Errorf("err = %v, want ErrMatrixRowCountExceeded", err)
	}
}

func TestParseAndDecodeSubstreamRestartAndSingleBlock(t *testing.T) {
	const nChan = 2

	w := &testBitWriter{}
	w.writeBits(RestartSignature, 16)
	w.writeBits(0, 16)         // OutputTiming.
	w.writeBits(0, 4)          // MinChan.
	w.writeBits(nChan-1, 4)    // MaxChan.
	w.writeBits(0, 4)          // MatrixChannelCount.
	w.writeBits(0, 4)          // NoiseShift.
	w.writeBits(1, 23)         // NoiseGenSeed.
	w.writeBits(0, 8)          // ChannelAssignment.
	w.writeBits(1, 1)          // ContentValid.
	w.writeBits(0, 1)          // reserved.
	for i := 0; i < nChan; i++ {
		w.writeBits(0, 4) // LSBShift[i] = 0.
	}
	w.writeBits(0, 8) // Checksum (unverified: raw is nil below).
	w.alignToByte()   // ParseAndDecodeSubstream re-aligns after the restart header.

	// Block header: no presence flags except an explicit block size and
	// the terminator bit, so the block loop runs exactly once and needs
	// no filter, matrix, quant, or huffman-offset bits.
	w.writeBits(0, 1) // RestartHeaderPresent.
	w.writeBits(1, 1) // BlockSizePresent.
	w.writeBits(0, 1) // MatrixParamsPresent.
	w.writeBits(0, 1) // OutputShiftPresent.
	w.writeBits(0, 1) // QuantStepSizePresent.
	w.writeBits(0, 1) // ChannelParamsPresent.
	w.writeBits(0, 1) // HuffmanOffsetsPresent.
	w.writeBits(1, 1) // Terminator.
	w.writeBits(2, 9) // BlockSize = 2 samples.
	w.writeBits(0, 8) // lossless check word: matches the all-zero PCM this block decodes to.
	w.alignToByte()

	r := bits.NewReader(w.buf)
	seg := SubstreamSegment{Index: 0, RestartHeaderHere: true}
	var latched substreamLatched
	var st substreamState

	blocks, rh, firstBlockResync, anomalies, err := ParseAndDecodeSubstream(r, nil, seg, &latched, &st, MaxMatrixRows, 0)
	if err != nil {
		t.Fatalf("ParseAndDecodeSubstream error: %v", err)
	}
	if len(anomalies) != 0 {
		t.Fatalf("unexpected anomalies: %v", anomalies)
	}
	if rh == nil || rh.Signature != RestartSignature {
		t.Fatalf("expected a parsed restart header, got %v", rh)
	}
	if firstBlockResync {
		t.Error("first block did not carry RestartHeaderPresent, expected firstBlockResync false")
	}
	if len(blocks) != 1 {
		t.Fatalf("len(blocks) = %d, want 1", len(blocks))
	}
	if len(blocks[0].PCM) != nChan || len(blocks[0].PCM[0]) != 2 {
		t.Fatalf("unexpected PCM shape: %+v", blocks[0].PCM)
	}
	for c, ch := range blocks[0].PCM {
		for n, s := range ch {
			if s != 0 {
				t.Errorf("PCM[%d][%d] = %d, want 0 (no filters, no residual bits)", c, n, s)
			}
		}
	}
	if !st.restartSeen {
		t.Error("expected restartSeen true after a restart header")
	}
	if st.checkAccum != 0 {
		t.Errorf("checkAccum = %d, want 0 (reset after the terminator block)", st.checkAccum)
	}
	if blocks[0].Mismatch {
		t.Error("Mismatch = true, want false: declared check word matches")
	}
}

func TestParseAndDecodeSubstreamLosslessCheckMismatch(t *testing.T) {
	const nChan = 2

	w := &testBitWriter{}
	w.writeBits(RestartSignature, 16)
	w.writeBits(0, 16)      // OutputTiming.
	w.writeBits(0, 4)       // MinChan.
	w.writeBits(nChan-1, 4) // MaxChan.
	w.writeBits(0, 4)       // MatrixChannelCount.
	w.writeBits(0, 4)       // NoiseShift.
	w.writeBits(1, 23)      // NoiseGenSeed.
	w.writeBits(0, 8)       // ChannelAssignment.
	w.writeBits(1, 1)       // ContentValid.
	w.writeBits(0, 1)       // reserved.
	for i := 0; i < nChan; i++ {
		w.writeBits(0, 4) // LSBShift[i] = 0.
	}
	w.writeBits(0, 8) // Checksum (unverified: raw is nil below).
	w.alignToByte()

	w.writeBits(0, 1) // RestartHeaderPresent.
	w.writeBits(1, 1) // BlockSizePresent.
	w.writeBits(0, 1) // MatrixParamsPresent.
	w.writeBits(0, 1) // OutputShiftPresent.
	w.writeBits(0, 1) // QuantStepSizePresent.
	w.writeBits(0, 1) // ChannelParamsPresent.
	w.writeBits(0, 1) // HuffmanOffsetsPresent.
	w.writeBits(1, 1) // Terminator.
	w.writeBits(2, 9) // BlockSize = 2 samples.
	w.writeBits(1, 8) // lossless check word: wrong, the decoded PCM is all zero (check 0).
	w.alignToByte()

	r := bits.NewReader(w.buf)
	seg := SubstreamSegment{Index: 0, RestartHeaderHere: true}
	var latched substreamLatched
	var st substreamState

	blocks, _, _, anomalies, err := ParseAndDecodeSubstream(r, nil, seg, &latched, &st, MaxMatrixRows, 0)
	if err != nil {
		t.Fatalf("ParseAndDecodeSubstream error: %v", err)
	}
	if len(anomalies) != 1 || anomalies[0].Kind != KindLosslessCheckMismatch {
		t.Fatalf("anomalies = %v, want a single KindLosslessCheckMismatch", anomalies)
	}
	if !blocks[len(blocks)-1].Mismatch {
		t.Error("Mismatch = false, want true: declared check word does not match")
	}
	if st.checkAccum != 0 {
		t.Errorf("checkAccum = %d, want 0 (reset regardless of mismatch)", st.checkAccum)
	}
}
