package truehd

import (
	"bytes"
	"io"
	"testing"
)

func TestFramerNextNoMajorSync(t *testing.T) {
	// Directory: one substream entry, no extra word/restart/CRC, end offset
	// 3 words (6 bytes: 2-byte directory + 4-byte payload).
	body := []byte{
		0x00, 0x03, // directory entry
		0xAA, 0xBB, 0xCC, 0xDD, // payload
		0x11, 0x22, // extra data
	}
	byteLength := 2 + len(body)
	prefix := []byte{byte(byteLength >> 9), byte((byteLength >> 1) & 0xff)}
	// lengthWords = byteLength/2; encode directly to avoid shift-order bugs.
	lengthWords := uint16(byteLength / 2)
	prefix[0] = byte(lengthWords >> 8 & 0x0f)
	prefix[1] = byte(lengthWords & 0xff)

	full := append(append([]byte{}, prefix...), body...)
	f := NewFramer(bytes.NewReader(full))

	au, anomalies, err := f.Next()
	if err != nil {
		t.Fatalf("Next() error: %v", err)
	}
	if au.ByteLength != byteLength {
		t.Errorf("ByteLength = %d, want %d", au.ByteLength, byteLength)
	}
	if au.MajorSync != nil {
		t.Error("expected no major sync")
	}
	foundMissing := false
	for _, a := range anomalies {
		if a.Kind == KindMissingMajorSync {
			foundMissing = true
		}
	}
	if !foundMissing {
		t.Error("expected KindMissingMajorSync anomaly with no latched major sync")
	}
	if len(au.Substreams) != 1 {
		t.Fatalf("len(Substreams) = %d, want 1", len(au.Substreams))
	}
	seg := au.Substreams[0]
	if seg.PayloadStartByte != 2 || seg.PayloadEndByte != 6 {
		t.Errorf("segment byte range = [%d,%d), want [2,6)", seg.PayloadStartByte, seg.PayloadEndByte)
	}
	if !bytes.Equal(au.ExtraData, []byte{0x11, 0x22}) {
		t.Errorf("ExtraData = %x, want 1122", au.ExtraData)
	}
}

func TestFramerNextInvalidLength(t *testing.T) {
	f := NewFramer(bytes.NewReader([]byte{0x00, 0x00}))
	_, anomalies, err := f.Next()
	if err == nil {
		t.Fatal("expected error for zero-length AU")
	}
	if len(anomalies) != 1 || anomalies[0].Kind != KindAULengthUnderflow {
		t.Errorf("anomalies = %v, want a single KindAULengthUnderflow", anomalies)
	}
}

func TestFramerNextEOF(t *testing.T) {
	f := NewFramer(bytes.NewReader(nil))
	_, _, err := f.Next()
	if err != io.EOF {
		t.Errorf("err = %v, want io.EOF", err)
	}
}

func TestFramerNextUnderflow(t *testing.T) {
	// Declares a 10-byte AU but only 4 bytes follow the prefix.
	f := NewFramer(bytes.NewReader([]byte{0x00, 0x05, 0xAA, 0xBB, 0xCC, 0xDD}))
	_, _, err := f.Next()
	if err != ErrAUUnderflow {
		t.Errorf("err = %v, want ErrAUUnderflow", err)
	}
}

func TestFramerReset(t *testing.T) {
	f := NewFramer(bytes.NewReader(nil))
	f.ms = &MajorSync{SampleRate: 48000}
	f.offset = 42
	f.Reset(bytes.NewReader(nil))
	if f.ms != nil || f.offset != 0 {
		t.Error("Reset did not clear latched major sync and offset")
	}
}
