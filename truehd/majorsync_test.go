package truehd

import (
	"testing"

	"github.com/truehd-go/truehd/bits"
	"github.com/truehd-go/truehd/crc16"
)

// testBitWriter is a minimal MSB-first bit packer used only by tests that
// need to hand-construct a syntax-exact byte sequence.
type testBitWriter struct {
	buf  []byte
	bit  int // number of bits written into the final (possibly partial) byte.
}

func (w *testBitWriter) writeBits(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		b := byte((v >> uint(i)) & 1)
		if w.bit == 0 {
			w.buf = append(w.buf, 0)
		}
		if b == 1 {
			w.buf[len(w.buf)-1] |= 1 << uint(7-w.bit)
		}
		w.bit = (w.bit + 1) % 8
	}
}

func (w *testBitWriter) alignToByte() {
	for w.bit != 0 {
		w.writeBits(0, 1)
	}
}

func buildMajorSyncBody() []byte {
	w := &testBitWriter{}
	w.writeBits(0, 4)    // SampleRateCode = 0 (48kHz).
	w.writeBits(0, 4)    // reserved.
	w.writeBits(3, 5)    // ChannelAssignment6ch.
	w.writeBits(7, 13)   // ChannelAssignment8ch.
	w.writeBits(1, 1)    // VariableRate.
	w.writeBits(100, 15) // PeakDataRate.
	w.writeBits(1, 4)    // NumSubstreams raw (decoded as +1 = 2).
	w.writeBits(0, 2)    // ExtendedSubstreamInfo.
	w.writeBits(0, 2)    // reserved.
	w.writeBits(1, 4)    // Downmix2ch.
	w.writeBits(2, 4)    // Downmix6ch.
	w.writeBits(0xABCD, 16) // Flags.
	w.writeBits(0, 16)      // reserved.
	w.writeBits(0x00FF, 16) // ChannelAssignment16ch.
	w.alignToByte()
	return w.buf
}

func TestParseMajorSyncRoundTrip(t *testing.T) {
	body := buildMajorSyncBody()
	crc := crc16.Checksum(body)

	full := make([]byte, 0, 4+len(body)+2)
	full = append(full, 0xF8, 0x72, 0x6F, 0xBA) // MajorSyncSignature.
	full = append(full, body...)
	full = append(full, byte(crc>>8), byte(crc))

	r := bits.NewReader(full)
	ms, anomaly, err := ParseMajorSync(r, 0)
	if err != nil {
		t.Fatalf("ParseMajorSync error: %v", err)
	}
	if anomaly != nil {
		t.Fatalf("unexpected anomaly: %v", anomaly)
	}
	if ms.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", ms.SampleRate)
	}
	if ms.NumSubstreams != 2 {
		t.Errorf("NumSubstreams = %d, want 2", ms.NumSubstreams)
	}
	if ms.ChannelAssignment6ch != 3 {
		t.Errorf("ChannelAssignment6ch = %d, want 3", ms.ChannelAssignment6ch)
	}
	if ms.Flags != 0xABCD {
		t.Errorf("Flags = %#x, want 0xABCD", ms.Flags)
	}
	if !ms.VerifyCRC(body) {
		t.Error("VerifyCRC failed against the body it was computed from")
	}
	if ms.VerifyCRC(append([]byte{}, body[:len(body)-1]...)) {
		t.Error("VerifyCRC must not match a truncated body")
	}
}

func TestParseMajorSyncUnknownSampleRate(t *testing.T) {
	w := &testBitWriter{}
	w.writeBits(3, 4) // SampleRateCode 3: no defined rate.
	w.writeBits(0, 4)
	w.writeBits(0, 5)
	w.writeBits(0, 13)
	w.writeBits(0, 1)
	w.writeBits(0, 15)
	w.writeBits(0, 4)
	w.writeBits(0, 2)
	w.writeBits(0, 2)
	w.writeBits(0, 4)
	w.writeBits(0, 4)
	w.writeBits(0, 16)
	w.writeBits(0, 16)
	w.writeBits(0, 16)
	w.alignToByte()
	body := w.buf
	crc := crc16.Checksum(body)

	full := append([]byte{0xF8, 0x72, 0x6F, 0xBA}, body...)
	full = append(full, byte(crc>>8), byte(crc))

	r := bits.NewReader(full)
	ms, anomaly, err := ParseMajorSync(r, 7)
	if err != nil {
		t.Fatalf("ParseMajorSync error: %v", err)
	}
	if anomaly == nil || anomaly.Kind != KindUnknownSampleRate {
		t.Fatalf("expected KindUnknownSampleRate anomaly, got %v", anomaly)
	}
	if ms.SampleRate != 0 {
		t.Errorf("SampleRate = %d, want 0", ms.SampleRate)
	}
}

func TestParseMajorSyncBadSignature(t *testing.T) {
	full := []byte{0x00, 0x00, 0x00, 0x00}
	r := bits.NewReader(full)
	if _, _, err := ParseMajorSync(r, 0); err == nil {
		t.Fatal("expected an error for a bad major sync signature")
	}
}
