/*
NAME
  reader.go

DESCRIPTION
  reader.go provides a big-endian, bit-granular reader over an in-memory
  byte slice, used throughout the TrueHD parser for reading syntax elements
  that do not fall on byte boundaries.

AUTHOR
  Adapted from codec/h264/h264dec/bits.BitReader (AusOcean).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package bits provides a big-endian, bit-granular reader over a byte slice.
//
// Unlike codec/h264/h264dec/bits, which streams from an io.Reader, this
// reader is backed directly by a []byte: an access unit is always fully
// buffered by the framer before substream parsing begins (TrueHD AUs never
// exceed 65,535 bytes), so there is no benefit to streaming and a direct
// slice lets callers query absolute bit position, something the framer and
// CRC unit both need.
package bits

import "github.com/pkg/errors"

// ErrUnderflow is returned when a read would consume more bits than remain
// in the buffer.
var ErrUnderflow = errors.New("bits: underflow")

// Reader reads big-endian, MSB-first bits from a byte slice.
type Reader struct {
	buf []byte
	pos int // absolute bit position from the start of buf.
}

// NewReader returns a Reader over buf, positioned at bit 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the total number of bits in the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) * 8 }

// PositionBits returns the current absolute read position, in bits, from
// the start of the buffer.
func (r *Reader) PositionBits() int { return r.pos }

// Remaining returns the number of unread bits.
func (r *Reader) Remaining() int { return r.Len() - r.pos }

// ReadBits reads n bits (0 <= n <= 64) and returns them right-justified in
// a uint64. It returns ErrUnderflow if fewer than n bits remain.
func (r *Reader) ReadBits(n int) (uint64, error) {
	if n < 0 || n > 64 {
		return 0, errors.Errorf("bits: invalid read width %d", n)
	}
	if n == 0 {
		return 0, nil
	}
	if r.Remaining() < n {
		return 0, ErrUnderflow
	}

	var v uint64
	remaining := n
	for remaining > 0 {
		byteIdx := r.pos / 8
		bitOff := r.pos % 8
		avail := 8 - bitOff
		take := avail
		if take > remaining {
			take = remaining
		}
		shift := avail - take
		mask := byte((1 << uint(take)) - 1)
		bitsHere := (r.buf[byteIdx] >> uint(shift)) & mask
		v = (v << uint(take)) | uint64(bitsHere)
		r.pos += take
		remaining -= take
	}
	return v, nil
}

// ReadSigned reads n bits and sign-extends the result from bit n-1 (MSB).
func (r *Reader) ReadSigned(n int) (int64, error) {
	u, err := r.ReadBits(n)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	signBit := uint64(1) << uint(n-1)
	if u&signBit != 0 {
		return int64(u) - int64(signBit<<1), nil
	}
	return int64(u), nil
}

// PeekBits returns the next n bits without advancing the reader.
func (r *Reader) PeekBits(n int) (uint64, error) {
	save := r.pos
	v, err := r.ReadBits(n)
	r.pos = save
	return v, err
}

// Skip advances the reader by n bits without decoding them.
func (r *Reader) Skip(n int) error {
	if n < 0 {
		return errors.Errorf("bits: invalid skip %d", n)
	}
	if r.Remaining() < n {
		return ErrUnderflow
	}
	r.pos += n
	return nil
}

// AlignToByte advances the reader to the next byte boundary, if not already
// aligned.
func (r *Reader) AlignToByte() {
	if off := r.pos % 8; off != 0 {
		r.pos += 8 - off
	}
}

// ByteAligned reports whether the reader is currently positioned at the
// start of a byte.
func (r *Reader) ByteAligned() bool { return r.pos%8 == 0 }

// BytePosition returns the current byte offset, valid only when
// ByteAligned reports true.
func (r *Reader) BytePosition() int { return r.pos / 8 }

// ReadBytes reads n whole bytes; the reader must be byte-aligned.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if !r.ByteAligned() {
		return nil, errors.New("bits: ReadBytes called off byte boundary")
	}
	if r.Remaining() < n*8 {
		return nil, ErrUnderflow
	}
	start := r.pos / 8
	out := make([]byte, n)
	copy(out, r.buf[start:start+n])
	r.pos += n * 8
	return out, nil
}

// FieldReader wraps a Reader with a sticky error: once a read fails, all
// subsequent reads become no-ops returning the zero value, so a chain of
// syntax-element reads can be written without checking every error, with a
// single Err() check at the end. Mirrors the fieldReader pattern in
// codec/h264/h264dec/parse.go.
type FieldReader struct {
	R   *Reader
	err error
}

// NewFieldReader returns a FieldReader wrapping r.
func NewFieldReader(r *Reader) *FieldReader {
	return &FieldReader{R: r}
}

// U reads n bits as an unsigned value.
func (f *FieldReader) U(n int) uint64 {
	if f.err != nil {
		return 0
	}
	var v uint64
	v, f.err = f.R.ReadBits(n)
	return v
}

// Bool reads a single bit as a boolean.
func (f *FieldReader) Bool() bool {
	return f.U(1) == 1
}

// S reads n bits as a sign-extended signed value.
func (f *FieldReader) S(n int) int64 {
	if f.err != nil {
		return 0
	}
	var v int64
	v, f.err = f.R.ReadSigned(n)
	return v
}

// Err returns the first error encountered by this FieldReader, if any.
func (f *FieldReader) Err() error {
	return f.err
}
