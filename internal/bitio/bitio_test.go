package bitio

import (
	"bytes"
	"testing"
)

func TestReadRegion(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	src := append([]byte{0x00, byte(len(payload))}, payload...)

	r := NewExtraDataReader(bytes.NewReader(src))
	got, err := r.ReadRegion()
	if err != nil {
		t.Fatalf("ReadRegion error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %x, want %x", got, payload)
	}
}

func TestReadRegionShort(t *testing.T) {
	src := []byte{0x00, 0x04, 0x01} // declares 4 bytes, only 1 follows.
	r := NewExtraDataReader(bytes.NewReader(src))
	if _, err := r.ReadRegion(); err == nil {
		t.Fatal("expected an error reading a truncated region")
	}
}
