/*
NAME
  accessunit.go

DESCRIPTION
  accessunit.go defines the AccessUnit and SubstreamSegment data model of
  spec §3: one self-delimited framing unit, and the substream directory
  entries describing its payload regions.

LICENSE
  No upstream license header: accessunit.go is original to this module.
*/

package truehd

// SubstreamSegment describes one payload region of an AccessUnit, as laid
// out in the AU's substream directory (spec §3). Substream indices 0..3
// correspond to the nested presentations: 0=2ch, 1=+6ch, 2=+8ch,
// 3=+16ch/object.
type SubstreamSegment struct {
	// Index is this segment's substream number (0..3).
	Index int

	// ExtraWordPresent indicates an extra 16-bit word follows the
	// directory entry's end-offset (reserved for future extension).
	ExtraWordPresent bool

	// RestartHeaderHere indicates this AU carries a restart header for
	// this substream.
	RestartHeaderHere bool

	// CRCPresent indicates a 16-bit CRC follows this substream's payload.
	CRCPresent bool

	// EndOffsetWords is the end offset of this substream's payload, in
	// 16-bit words, relative to the AU start.
	EndOffsetWords uint16

	// PayloadStartByte and PayloadEndByte are resolved byte offsets
	// (relative to the AU start) once the framer lays out the directory.
	PayloadStartByte int
	PayloadEndByte   int

	// CRC is the substream's trailing CRC-16, valid only if CRCPresent.
	CRC uint16
}

// AccessUnit is one framing unit of the TrueHD elementary stream (spec
// §3).
type AccessUnit struct {
	// ByteOffset is this AU's offset from the start of the stream, used
	// as Anomaly context.
	ByteOffset int

	// ByteLength is the AU's total length in bytes, always even and
	// <= 65535 (spec §3 invariants).
	ByteLength int

	// InputTiming is the 4-bit input-timing nibble taken from the upper
	// bits of the AU length prefix; informational only.
	InputTiming uint8

	// MajorSync is present on the first AU of a sequence and at every
	// restart point; nil otherwise, in which case the AU continues the
	// prior latched configuration.
	MajorSync *MajorSync

	// Substreams holds 1..4 segments, ordered by Index.
	Substreams []SubstreamSegment

	// ExtraData is the optional trailing OAMD/timestamp region.
	ExtraData []byte

	// HasValidBranch is true when this AU is a legitimate
	// encoder-inserted seamless branch point (spec §4.8).
	HasValidBranch bool

	// PeakDataRateJump is true when this AU's major sync declares a peak
	// data rate higher than the previously latched value (spec §4.8).
	PeakDataRateJump bool

	// SegmentIndex increments every time substream geometry changes
	// within the presentation being decoded, letting an external writer
	// derive an output-file index suffix without tracking state itself
	// (spec §4.8, supplemented per SPEC_FULL.md).
	SegmentIndex int

	// body is the AU's payload bytes (everything after the 2-byte length
	// prefix), retained so the decoder façade can hand substream parsing
	// the raw byte range it needs for restart-header parity and CRC
	// verification without re-reading the source.
	body []byte
}
