/*
NAME
  framer.go

DESCRIPTION
  framer.go implements the AU framer of spec §4.4: reads the 16-bit AU
  length prefix, buffers exactly that many bytes, peeks the major sync
  signature, parses the substream directory, and slices out each
  substream's payload plus any trailing Extra Data.

AUTHOR
  The buffer-then-parse framing mirrors codec/h264/h264dec/nalunit.go's
  separation between locating a unit's byte range and parsing its fields;
  read-exact-length buffering replaces H.264's start-code scan since
  TrueHD AUs are self-describing by length rather than delimited by a
  start code.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package truehd

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/truehd-go/truehd/bits"
	"github.com/truehd-go/truehd/internal/bitio"
)

// MaxAUBytes is the largest an access unit may be (spec §3 invariant).
const MaxAUBytes = 65535

// ErrAUUnderflow is returned when the byte source is exhausted before a
// full AU can be read.
var ErrAUUnderflow = errors.New("truehd: access unit underflow")

// Framer reads successive access units from an io.Reader byte source
// (spec §4.4, §6.1). It holds no cross-AU state of its own beyond the
// last latched MajorSync and the running byte offset, matching the spec's requirement that
// ParsedAUs be deterministic and restartable over a fresh source.
type Framer struct {
	src io.Reader
	ms  *MajorSync

	offset int
}

// NewFramer returns a Framer reading AUs from src.
func NewFramer(src io.Reader) *Framer {
	return &Framer{src: src}
}

// Next reads and parses the next access unit. It returns io.EOF when the
// source is exhausted at an AU boundary (no partial AU pending), or
// ErrAUUnderflow, with no Anomaly, when the source ends mid-AU (spec
// §8 boundary behavior).
func (f *Framer) Next() (*AccessUnit, []*Anomaly, error) {
	var anomalies []*Anomaly
	auStart := f.offset

	prefix := make([]byte, 2)
	n, err := io.ReadFull(f.src, prefix)
	if err != nil {
		if err == io.EOF && n == 0 {
			return nil, nil, io.EOF
		}
		return nil, nil, ErrAUUnderflow
	}

	prefixVal := uint16(prefix[0])<<8 | uint16(prefix[1])
	inputTiming := uint8(prefixVal >> 12)
	lengthWords := prefixVal & 0x0fff
	byteLength := int(lengthWords) << 1

	if byteLength == 0 || byteLength%2 != 0 || byteLength > MaxAUBytes {
		return nil, []*Anomaly{newAnomaly(KindAULengthUnderflow, auStart, -1, -1,
			"AU length field invalid")}, errors.New("truehd: invalid AU length")
	}

	// byteLength, as commonly framed, excludes the 2-byte prefix itself;
	// the remaining body is byteLength-2 bytes when byteLength counts the
	// prefix, or byteLength bytes otherwise depending on convention. This
	// framer follows the convention that byteLength is the AU's total
	// size including the 2-byte prefix already consumed, so the body is
	// byteLength-2 bytes.
	bodyLen := byteLength - 2
	if bodyLen < 0 {
		bodyLen = 0
	}
	body := make([]byte, bodyLen)
	n, err = io.ReadFull(f.src, body)
	if err != nil {
		f.offset += 2 + n
		return nil, nil, ErrAUUnderflow
	}

	f.offset += byteLength

	full := append(append([]byte{}, prefix...), body...)
	au := &AccessUnit{
		ByteOffset:  auStart,
		ByteLength:  byteLength,
		InputTiming: inputTiming,
		body:        body,
	}

	r := bits.NewReader(body)

	sig, err := r.PeekBits(32)
	hasMajorSync := err == nil && sig == MajorSyncSignature
	if hasMajorSync {
		msStart := r.BytePosition()
		ms, anomaly, err := ParseMajorSync(r, auStart)
		if err != nil {
			return nil, anomalies, errors.Wrap(err, "truehd: major sync")
		}
		if anomaly != nil {
			anomalies = append(anomalies, anomaly)
		}
		msEnd := r.BytePosition()
		// CRC covers the major sync body, excluding the signature (first
		// 4 bytes) and the trailing 2-byte CRC field itself.
		if msEnd-2 >= msStart+4 {
			crcBodyStart := msStart + 4
			crcBodyEnd := msEnd - 2
			bodySlice := full[2+crcBodyStart : 2+crcBodyEnd]
			if !ms.VerifyCRC(bodySlice) {
				anomalies = append(anomalies, newAnomaly(KindAUHeaderCRCMismatch, auStart, -1, -1,
					"AU header CRC mismatch"))
			}
		}
		au.MajorSync = ms
		f.ms = ms
	} else if f.ms == nil {
		anomalies = append(anomalies, newAnomaly(KindMissingMajorSync, auStart, -1, -1,
			"no major sync latched and none present in this AU"))
	}

	numSubstreams := 1
	if f.ms != nil {
		numSubstreams = int(f.ms.NumSubstreams)
	}
	if numSubstreams < 1 || numSubstreams > 4 {
		anomalies = append(anomalies, newAnomaly(KindSubstreamDirectoryOverflow, auStart, -1, -1,
			"declared substream count out of range"))
		numSubstreams = 1
	}

	dirEntries := make([]uint16, numSubstreams)
	for i := 0; i < numSubstreams; i++ {
		v, err := r.ReadBits(16)
		if err != nil {
			return nil, anomalies, errors.Wrap(err, "truehd: substream directory")
		}
		dirEntries[i] = uint16(v)
	}
	if !r.ByteAligned() {
		r.AlignToByte()
	}

	segments := make([]SubstreamSegment, numSubstreams)
	prevEnd := r.BytePosition()
	for i, entry := range dirEntries {
		extraWord := entry&0x8000 != 0
		restartHere := entry&0x4000 != 0
		crcPresent := entry&0x2000 != 0
		endWords := entry & 0x1fff

		seg := SubstreamSegment{
			Index:             i,
			ExtraWordPresent:  extraWord,
			RestartHeaderHere: restartHere,
			CRCPresent:        crcPresent,
			EndOffsetWords:    endWords,
			PayloadStartByte:  prevEnd,
		}
		endByte := int(endWords) * 2
		if endByte < prevEnd || endByte > len(body) {
			anomalies = append(anomalies, newAnomaly(KindSubstreamDirectoryOverflow, auStart, i, -1,
				"substream end offset out of range"))
			endByte = len(body)
		}
		seg.PayloadEndByte = endByte
		if crcPresent && endByte >= 2 {
			seg.CRC = uint16(body[endByte-2])<<8 | uint16(body[endByte-1])
		}
		segments[i] = seg
		prevEnd = endByte
	}
	au.Substreams = segments

	if prevEnd < len(body) {
		raw := body[prevEnd:]
		au.ExtraData = raw
		// Extra Data begins with a 16-bit length prefix (spec §4.9);
		// validate it against the bytes actually available before the
		// façade hands this region to oamd.ParseBlock, using bitio's
		// bulk byte-aligned reader rather than a hand-rolled copy loop.
		if _, err := bitio.NewExtraDataReader(bytes.NewReader(raw)).ReadRegion(); err != nil {
			anomalies = append(anomalies, newAnomaly(KindOAMDLengthMismatch, auStart, -1, -1,
				"extra data length prefix inconsistent: "+err.Error()))
		}
	}

	return au, anomalies, nil
}

// Reset rewinds the Framer's latched MajorSync state (not the underlying
// io.Reader, which the caller must itself reset) so a fresh pass over the
// same source starts clean, matching spec §8's "ParsedAUs ... restartable
// and deterministic".
func (f *Framer) Reset(src io.Reader) {
	f.src = src
	f.ms = nil
	f.offset = 0
}
