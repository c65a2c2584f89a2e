package oamd

import (
	"testing"

	"github.com/truehd-go/truehd/bits"
)

func buildTimestampBytes(ts Timestamp) []byte {
	var v uint32
	v |= uint32(ts.Hours&0x1f) << 27
	v |= uint32(ts.Minutes&0x3f) << 21
	v |= uint32(ts.Seconds&0x3f) << 15
	v |= uint32(ts.Frames&0x1f) << 10
	if ts.DropFrame {
		v |= 1 << 9
	}
	v |= uint32(ts.FrameRateCode&0xf) << 5
	return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
}

func TestParseTimestamp(t *testing.T) {
	want := Timestamp{Hours: 12, Minutes: 34, Seconds: 56, Frames: 20, DropFrame: true, FrameRateCode: 5}
	buf := buildTimestampBytes(want)
	r := bits.NewReader(buf)
	got, err := ParseTimestamp(r)
	if err != nil {
		t.Fatalf("ParseTimestamp error: %v", err)
	}
	if *got != want {
		t.Errorf("got %+v, want %+v", *got, want)
	}
}

func TestParseBlockLengthMismatch(t *testing.T) {
	data := []byte{0x00, 0xFF, 0x00, 0x00, 0x00, 0x00}
	_, err := ParseBlock(data, WarpNormal, false)
	if err == nil {
		t.Fatal("expected a length-mismatch error")
	}
}

func TestParseBlockNoObjects(t *testing.T) {
	ts := buildTimestampBytes(Timestamp{})
	// Timestamp (4 bytes) + object count 0 (1 byte, top bit of a byte
	// holding the 7-bit count) + no warp-present bit + padding.
	body := append(append([]byte{}, ts...), 0x00)
	data := append([]byte{byte(len(body) >> 8), byte(len(body))}, body...)

	blk, err := ParseBlock(data, WarpWarping, false)
	if err != nil {
		t.Fatalf("ParseBlock error: %v", err)
	}
	if len(blk.Objects) != 0 {
		t.Errorf("len(Objects) = %d, want 0", len(blk.Objects))
	}
	if blk.WarpMode != WarpWarping {
		t.Errorf("WarpMode = %v, want default WarpWarping when block omits one", blk.WarpMode)
	}
}

func TestParseBlockObjectCountExceeded(t *testing.T) {
	ts := buildTimestampBytes(Timestamp{})
	body := append(append([]byte{}, ts...), 0x7F<<1) // 127 > MaxObjects.
	data := append([]byte{byte(len(body) >> 8), byte(len(body))}, body...)

	_, err := ParseBlock(data, WarpNormal, false)
	if err == nil {
		t.Fatal("expected an object-count-exceeded error")
	}
}
