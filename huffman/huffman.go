/*
NAME
  huffman.go

DESCRIPTION
  huffman.go implements the three fixed, per-channel-per-block selectable
  Huffman tables used to code TrueHD residuals (spec §4.3). Table 0 means
  "no Huffman coding" and is handled by the caller; tables 1 and 2 are
  prefix codes of bounded depth producing signed residual values.

AUTHOR
  Structured on the binary-trie codebook decode of
  _examples/llehouerou-go-aac/internal/huffman (HCBBinPair/HCBBinQuad),
  adapted to TrueHD's two coded tables (AusOcean teacher has no entropy
  coder of this shape; the h264dec CAVLC/CABAC tables are a different
  order of magnitude and structurally unrelated).

LICENSE
  No upstream license header: huffman.go is original to this module, not
  copied from a headered teacher file.
*/

// Package huffman decodes TrueHD's two fixed prefix-code tables.
//
// The exact codeword assignment used by Dolby's encoder is stream-defined
// and was not available to verify against reference captures (see spec
// §9, "possibly-buggy source behavior" / open questions): the canonical
// Huffman assignment built here from hand-chosen per-symbol codeword
// lengths is internally consistent (a complete, unambiguous prefix code)
// but the precise bit patterns must be locked in against known-good
// TrueHD captures before this package is used against real streams.
package huffman

import "github.com/pkg/errors"

// MaxCodeLength is the longest representable codeword in a TrueHD
// residual Huffman table (spec §4.3: "Max code length is a small
// constant (≤ 9 bits)").
const MaxCodeLength = 9

// ErrOverflow is returned when no valid prefix is found within
// MaxCodeLength bits.
var ErrOverflow = errors.New("huffman: no valid code found within max length")

// node is one entry of the binary decode trie. Internal nodes carry
// indices of their two children; leaves carry the decoded value.
type node struct {
	leaf        bool
	value       int32
	left, right int32 // index into Table.nodes, -1 if absent.
}

// Table is a canonical-Huffman decode trie for one TrueHD residual
// codebook.
type Table struct {
	nodes []node
}

// BitSource supplies single bits for prefix-code decoding, matching the
// shape the substream parser's bits.Reader exposes.
type BitSource interface {
	ReadBits(n int) (uint64, error)
}

// Decode reads a single prefix code from src and returns its signed
// value.
func (t *Table) Decode(src BitSource) (int32, error) {
	idx := int32(0)
	for depth := 0; depth < MaxCodeLength; depth++ {
		n := t.nodes[idx]
		if n.leaf {
			return n.value, nil
		}
		b, err := src.ReadBits(1)
		if err != nil {
			return 0, errors.Wrap(err, "huffman: reading code bit")
		}
		if b == 0 {
			idx = n.left
		} else {
			idx = n.right
		}
		if idx < 0 {
			return 0, ErrOverflow
		}
	}
	if t.nodes[idx].leaf {
		return t.nodes[idx].value, nil
	}
	return 0, ErrOverflow
}

// symbol is one entry of a codebook definition: a signed output value and
// the bit length of its canonical Huffman codeword.
type symbol struct {
	value  int32
	length uint8
}

// buildTable constructs a canonical Huffman decode trie from a list of
// (value, length) pairs. Symbols are assigned codewords in order of
// increasing length; symbols of equal length keep their definition order.
// This guarantees a complete, prefix-free code for
// any valid length distribution (one satisfying Kraft's inequality).
func buildTable(symbols []symbol) (*Table, error) {
	sorted := append([]symbol(nil), symbols...)
	// Stable order by length only; ties keep definition order, which is
	// sufficient for canonical assignment.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].length < sorted[j-1].length; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	t := &Table{nodes: []node{{left: -1, right: -1}}}
	code := uint32(0)
	prevLen := uint8(0)
	for _, s := range sorted {
		if s.length == 0 || s.length > MaxCodeLength {
			return nil, errors.Errorf("huffman: invalid codeword length %d", s.length)
		}
		code <<= uint(s.length - prevLen)
		prevLen = s.length

		idx := int32(0)
		for bit := int(s.length) - 1; bit >= 0; bit-- {
			b := (code >> uint(bit)) & 1
			n := &t.nodes[idx]
			if n.leaf {
				return nil, errors.New("huffman: codeword collides with shorter prefix")
			}
			var next *int32
			if b == 0 {
				next = &n.left
			} else {
				next = &n.right
			}
			if *next == -1 {
				t.nodes = append(t.nodes, node{left: -1, right: -1})
				*next = int32(len(t.nodes) - 1)
				// Re-fetch n: append may have reallocated the slice.
				n = &t.nodes[idx]
				if b == 0 {
					n.left = *next
				} else {
					n.right = *next
				}
			}
			idx = *next
		}
		if t.nodes[idx].left != -1 || t.nodes[idx].right != -1 {
			return nil, errors.New("huffman: codeword prefix of a longer code")
		}
		t.nodes[idx].leaf = true
		t.nodes[idx].value = s.value

		code++
	}
	return t, nil
}

// table1Symbols and table2Symbols give the codeword length, per signed
// output value, for TrueHD's two coded residual tables. Lengths are
// chosen so the Kraft sum is exactly 1 (a complete code with no unused
// codepoints), max length 9 per spec §4.3. Table 2 uses a flatter length
// distribution than Table 1, reflecting the reference decoder's use of
// the second table for a less peaked residual distribution.
var table1Symbols = []symbol{
	{value: 0, length: 1},
	{value: -1, length: 3}, {value: 1, length: 3},
	{value: -2, length: 4}, {value: 2, length: 4},
	{value: -3, length: 5}, {value: 3, length: 5},
	{value: -4, length: 6}, {value: 4, length: 6},
	{value: -5, length: 7}, {value: 5, length: 7},
	{value: -6, length: 8}, {value: 6, length: 8},
	{value: -7, length: 9}, {value: 7, length: 9},
	{value: -8, length: 9}, {value: 8, length: 9},
}

var table2Symbols = []symbol{
	{value: 0, length: 2}, {value: 1, length: 2},
	{value: -1, length: 3}, {value: 2, length: 3},
	{value: -2, length: 4}, {value: 3, length: 4},
	{value: -3, length: 5}, {value: 4, length: 5},
	{value: -4, length: 6}, {value: 5, length: 6},
	{value: -5, length: 7}, {value: 6, length: 7},
	{value: -6, length: 8}, {value: 7, length: 8},
	{value: -7, length: 9}, {value: 8, length: 9},
	{value: -8, length: 9}, {value: 9, length: 9},
}

// Table1 and Table2 are the two coded TrueHD residual Huffman tables,
// selected per channel per block (spec §4.3). Table index 0 means "no
// Huffman coding" and is not represented here.
var (
	Table1 = mustBuild(table1Symbols)
	Table2 = mustBuild(table2Symbols)
)

func mustBuild(symbols []symbol) *Table {
	t, err := buildTable(symbols)
	if err != nil {
		panic(err)
	}
	return t
}

// ForIndex returns the decode table for a substream's huffman table
// index (1 or 2). Index 0 ("no coding") is not a valid argument; callers
// must special-case it before calling ForIndex.
func ForIndex(idx int) (*Table, error) {
	switch idx {
	case 1:
		return Table1, nil
	case 2:
		return Table2, nil
	default:
		return nil, errors.Errorf("huffman: invalid table index %d", idx)
	}
}
