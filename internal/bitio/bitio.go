/*
NAME
  bitio.go

DESCRIPTION
  Package bitio adapts github.com/icza/bitio for the one place in this
  module that benefits from a streaming, io.Reader-backed bit reader
  rather than the byte-slice-backed truehd/bits.Reader: bulk,
  byte-aligned reads of Extra Data lifted straight off a container
  demuxer's stream without first copying it into an access unit buffer.

LICENSE
  No upstream license header: bitio.go is original to this module.
*/
package bitio

import (
	"io"

	"github.com/icza/bitio"
	"github.com/pkg/errors"
)

// ExtraDataReader wraps an icza/bitio.Reader to pull a length-prefixed
// Extra Data region directly from a byte stream, for front ends that
// demux TrueHD out of a container format and want to avoid buffering
// Extra Data twice.
type ExtraDataReader struct {
	r *bitio.Reader
}

// NewExtraDataReader returns an ExtraDataReader over src.
func NewExtraDataReader(src io.Reader) *ExtraDataReader {
	return &ExtraDataReader{r: bitio.NewReader(src)}
}

// ReadRegion reads a 16-bit big-endian length prefix followed by that
// many bytes, returning the region's raw bytes (prefix excluded) ready
// to hand to oamd.ParseBlock.
func (e *ExtraDataReader) ReadRegion() ([]byte, error) {
	length, err := e.r.ReadBits(16)
	if err != nil {
		return nil, errors.Wrap(err, "bitio: reading extra data length prefix")
	}
	buf := make([]byte, length)
	for i := range buf {
		b, err := e.r.ReadByte()
		if err != nil {
			return nil, errors.Wrap(err, "bitio: reading extra data body")
		}
		buf[i] = b
	}
	return buf, nil
}

// Align discards any remaining bits in the current byte, positioning
// the underlying stream at the next byte boundary.
func (e *ExtraDataReader) Align() {
	e.r.Align()
}
