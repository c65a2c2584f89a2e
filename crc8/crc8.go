/*
NAME
  crc8.go

DESCRIPTION
  crc8.go implements the AU-header CRC-8 used by the TrueHD access-unit
  framer (polynomial x^8 + x^2 + x + 1, i.e. 0x07), and the 8-bit parity
  check used by restart headers.

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

// Package crc8 computes the 8-bit CRC used to protect TrueHD AU headers,
// and the XOR parity used by restart headers.
package crc8

// Poly is the AU-header CRC-8 polynomial x^8 + x^2 + x + 1 (0x07), with no
// reflection and no final XOR, as used throughout the TrueHD reference
// implementation.
const Poly = 0x07

// Table is a 256-entry lookup table for Poly, built the same way
// container/mts/psi/crc.go builds its CRC-32 table: iterate the 8
// polynomial-division steps for every possible leading byte once, up
// front.
type Table [256]byte

// MakeTable builds a CRC-8 lookup table for the given polynomial.
func MakeTable(poly byte) *Table {
	var t Table
	for i := range t {
		crc := byte(i)
		for j := 0; j < 8; j++ {
			if crc&0x80 != 0 {
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

// Checksum computes the CRC-8 of b using the default AU-header polynomial,
// with an initial value of 0x00 and no final XOR.
func Checksum(b []byte) byte {
	return Update(0, defaultTable, b)
}

// Update folds further bytes of p into a running CRC-8 value crc using
// table tab.
func Update(crc byte, tab *Table, p []byte) byte {
	for _, v := range p {
		crc = tab[crc^v]
	}
	return crc
}

// Parity returns the XOR of every byte in b. Used for the restart-header
// parity check (§4.2) where the parity byte itself is included in the
// range so a correctly-formed header XORs to a fixed check value.
func Parity(b []byte) byte {
	var p byte
	for _, v := range b {
		p ^= v
	}
	return p
}
