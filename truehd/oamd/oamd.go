/*
NAME
  oamd.go

DESCRIPTION
  Package oamd decodes the object-audio metadata carried in a TrueHD
  access unit's trailing Extra Data region (spec §4.9): a SMPTE
  timestamp descriptor followed by an object-audio metadata block
  describing bed conforming, per-object descriptors, and per-block
  dynamic 3D position/gain records.

  This package has no dependency on the parent truehd package, by
  design: Extra Data decoding is self-contained and independently
  testable, the same separation codec/h264/h264dec keeps between NAL
  unit framing and SPS/PPS field decoding.

LICENSE
  No upstream license header: oamd.go is original to this module.
*/
package oamd

import (
	"github.com/pkg/errors"

	"github.com/truehd-go/truehd/bits"
)

// MaxObjects bounds the number of audio objects an OAMD block may
// describe (spec §4.9).
const MaxObjects = 118

// WarpMode mirrors truehd.WarpMode without importing the parent
// package; ParseBlock's caller is responsible for converting between
// the two where a default substitution is needed.
type WarpMode int

const (
	WarpNormal WarpMode = iota
	WarpWarping
	WarpProLogicIIx
	WarpLoRo
)

// Timestamp is the SMPTE-style frame timestamp descriptor that opens
// the Extra Data region (spec §4.9).
type Timestamp struct {
	Hours, Minutes, Seconds, Frames uint8
	DropFrame                      bool
	FrameRateCode                  uint8
}

// ParseTimestamp reads a Timestamp from r.
func ParseTimestamp(r *bits.Reader) (*Timestamp, error) {
	fr := bits.NewFieldReader(r)
	ts := &Timestamp{}
	ts.Hours = uint8(fr.U(5))
	ts.Minutes = uint8(fr.U(6))
	ts.Seconds = uint8(fr.U(6))
	ts.Frames = uint8(fr.U(5))
	ts.DropFrame = fr.Bool()
	ts.FrameRateCode = uint8(fr.U(4))
	if fr.Err() != nil {
		return nil, errors.Wrap(fr.Err(), "oamd: parsing timestamp")
	}
	return ts, nil
}

// ObjectDescriptor describes one audio object's static assignment
// within the presentation (spec §4.9).
type ObjectDescriptor struct {
	// BedAssigned is true when this object carries a fixed bed channel
	// rather than a freely positioned object.
	BedAssigned bool

	// Conforming is true when the object's bed assignment has been
	// remapped to the 7.1.2 conforming layout (spec §4.9, §6.3
	// Config.BedConform).
	Conforming bool
}

// PositionGain is one object's dynamic 3D position and gain for a
// single metadata update (spec §4.9).
type PositionGain struct {
	X, Y, Z int16 // 13-bit signed, Q12 fractional position, range [-1, 1).
	Gain    int16 // 13-bit signed, Q12 fractional gain.
}

// Block is one access unit's decoded object-audio metadata (spec §4.9).
type Block struct {
	Timestamp *Timestamp
	Objects   []ObjectDescriptor
	// Positions holds one PositionGain slice per object, indexed the
	// same as Objects.
	Positions [][]PositionGain
	// WarpMode is the mode declared by this block, or the caller's
	// configured default when the block omits one (spec §4.9, §6.3).
	WarpMode WarpMode
}

// ErrLengthMismatch is returned when the Extra Data region's declared
// length does not match the bytes actually consumed.
var ErrLengthMismatch = errors.New("oamd: extra data length mismatch")

// ErrObjectCountExceeded is returned when a declared object count
// exceeds MaxObjects.
var ErrObjectCountExceeded = errors.New("oamd: object count exceeds maximum")

// ParseBlock decodes one Extra Data region. defaultWarp substitutes for
// a block that omits its own warp mode. It returns ErrLengthMismatch,
// wrapped with context, if the declared length field does not match
// len(data). The parent package's decoder façade records any error from
// ParseBlock as a KindOAMDLengthMismatch anomaly, which aborts the pull
// when its severity meets the configured fail level.
func ParseBlock(data []byte, defaultWarp WarpMode, conform bool) (*Block, error) {
	if len(data) < 2 {
		return nil, errors.New("oamd: extra data too short for length prefix")
	}
	declaredLen := int(data[0])<<8 | int(data[1])
	if declaredLen != len(data)-2 {
		return nil, errors.Wrapf(ErrLengthMismatch, "declared %d, actual %d", declaredLen, len(data)-2)
	}

	r := bits.NewReader(data[2:])
	ts, err := ParseTimestamp(r)
	if err != nil {
		return nil, err
	}
	// The timestamp occupies a whole 4-byte field; its low bits are padding.
	r.AlignToByte()

	fr := bits.NewFieldReader(r)
	numObjects := int(fr.U(7))
	if fr.Err() != nil {
		return nil, errors.Wrap(fr.Err(), "oamd: parsing object count")
	}
	if numObjects > MaxObjects {
		return nil, ErrObjectCountExceeded
	}

	blk := &Block{Timestamp: ts, WarpMode: defaultWarp}
	blk.Objects = make([]ObjectDescriptor, numObjects)
	blk.Positions = make([][]PositionGain, numObjects)

	for i := 0; i < numObjects; i++ {
		obj := ObjectDescriptor{BedAssigned: fr.Bool()}
		if obj.BedAssigned && conform {
			obj.Conforming = true
		}
		blk.Objects[i] = obj
	}

	warpPresent := fr.Bool()
	if warpPresent {
		blk.WarpMode = WarpMode(fr.U(2))
	}

	for i := 0; i < numObjects; i++ {
		if blk.Objects[i].BedAssigned {
			continue
		}
		pg := PositionGain{
			X:    int16(fr.S(13)),
			Y:    int16(fr.S(13)),
			Z:    int16(fr.S(13)),
			Gain: int16(fr.S(13)),
		}
		blk.Positions[i] = []PositionGain{pg}
	}

	if fr.Err() != nil {
		return nil, errors.Wrap(fr.Err(), "oamd: parsing object metadata")
	}
	return blk, nil
}
