/*
NAME
  crc16.go

DESCRIPTION
  crc16.go implements the 16-bit CRC appended to TrueHD substreams when
  crc_present is set, and to the major sync block.

AUTHOR
  Adapted from container/mts/psi/crc.go's table-driven CRC construction
  (AusOcean).

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package crc16 computes the 16-bit CRC used to protect TrueHD substream
// payloads and the major sync block.
package crc16

// Poly is the CRC-16 polynomial x^16 + x^12 + x^5 + 1 (0x1021). Together
// with Init it gives the CRC-16/XMODEM parameter set. These constants
// have not been verified against known-good TrueHD captures.
const Poly = 0x1021

// Init is the initial register value. Like Poly, it has not been verified
// against known-good TrueHD captures.
const Init = 0x0000

// Table is a 256-entry lookup table for Poly.
type Table [256]uint16

// MakeTable builds a CRC-16 lookup table for the given polynomial, MSB
// first, matching the bit-at-a-time construction in
// container/mts/psi/crc.go generalized to 16 bits.
func MakeTable(poly uint16) *Table {
	var t Table
	for i := range t {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

var defaultTable = MakeTable(Poly)

// Checksum computes the CRC-16 of b using the default substream
// polynomial and initial value.
func Checksum(b []byte) uint16 {
	return Update(Init, defaultTable, b)
}

// Update folds further bytes of p into a running CRC-16 value crc using
// table tab.
func Update(crc uint16, tab *Table, p []byte) uint16 {
	for _, v := range p {
		crc = tab[byte(crc>>8)^v] ^ (crc << 8)
	}
	return crc
}
