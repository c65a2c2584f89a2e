/*
NAME
  presentation.go

DESCRIPTION
  presentation.go implements the presentation selector of spec §4.7:
  given the latched MajorSync, exposes per-presentation channel count,
  channel assignment, expected sample rate, and availability, and
  resolves the highest available independent presentation.

LICENSE
  No upstream license header: presentation.go is original to this module.
*/

package truehd

import "github.com/pkg/errors"

// PresentationInfo describes one of the four selectable presentations
// (spec §4.7).
type PresentationInfo struct {
	Index         Presentation
	ChannelCount  int
	Assignment    uint16
	SampleRate    int
	Available     bool
}

// Selector maps the latched MajorSync and substream availability to
// per-presentation info (spec §4.7). A Selector is rebuilt whenever a new
// MajorSync is latched or substream availability changes.
type Selector struct {
	ms              *MajorSync
	substreamsSeen  int // substreams actually delivered in the most recent AU.
}

// NewSelector builds a Selector from the latched MajorSync and the
// number of substreams present in the current AU.
func NewSelector(ms *MajorSync, substreamsSeen int) *Selector {
	return &Selector{ms: ms, substreamsSeen: substreamsSeen}
}

// channelCounts gives the nominal channel count for each presentation
// index, derived from the standard TrueHD channel assignment bitmaps.
func (s *Selector) channelCounts() [4]int {
	if s.ms == nil {
		return [4]int{}
	}
	return [4]int{
		2,
		popcount16(uint16(s.ms.ChannelAssignment6ch)) + 2,
		popcount16(s.ms.ChannelAssignment8ch) + 2,
		popcount16(s.ms.ChannelAssignment16ch),
	}
}

func popcount16(v uint16) int {
	n := 0
	for v != 0 {
		n += int(v & 1)
		v >>= 1
	}
	return n
}

// Info returns the PresentationInfo for presentation index idx (spec
// §4.7). Presentation k requires substreams 0..k all be present (spec §3
// invariant).
func (s *Selector) Info(idx Presentation) PresentationInfo {
	counts := s.channelCounts()
	info := PresentationInfo{Index: idx}
	if s.ms == nil {
		return info
	}
	info.SampleRate = s.ms.SampleRate
	if int(idx) < 0 || int(idx) > 3 {
		return info
	}
	info.ChannelCount = counts[idx]
	info.Available = s.substreamsSeen > int(idx)
	switch idx {
	case Presentation2ch:
		info.Assignment = 0
	case Presentation6ch:
		info.Assignment = uint16(s.ms.ChannelAssignment6ch)
	case Presentation8ch:
		info.Assignment = s.ms.ChannelAssignment8ch
	case PresentationObject:
		info.Assignment = s.ms.ChannelAssignment16ch
	}
	return info
}

// MaxIndependentPresentation returns the highest available presentation
// index, or -1 if none is decodable (e.g. no MajorSync has ever been
// latched, spec §4.7).
func (s *Selector) MaxIndependentPresentation() int {
	if s.ms == nil {
		return -1
	}
	max := -1
	for i := 0; i <= 3; i++ {
		if s.Info(Presentation(i)).Available {
			max = i
		}
	}
	return max
}

// ErrPresentationUnavailable is returned by Resolve when the requested
// presentation cannot be satisfied and no fallback is possible.
var ErrPresentationUnavailable = errors.New("truehd: no presentation is available")

// Resolve returns the presentation to actually decode: the requested one
// if available, else the highest available with an Anomaly describing the
// fallback (spec §8 boundary behavior: "diagnostic and fallback to max
// available; decoder continues").
func (s *Selector) Resolve(requested *Presentation, auOffset int) (Presentation, *Anomaly, error) {
	max := s.MaxIndependentPresentation()
	if max < 0 {
		return 0, nil, ErrPresentationUnavailable
	}
	if requested == nil {
		return Presentation(max), nil, nil
	}
	if s.Info(*requested).Available {
		return *requested, nil, nil
	}
	anomaly := newAnomaly(KindPresentationUnavailable, auOffset, -1, -1,
		"requested presentation unavailable, falling back to max available")
	return Presentation(max), anomaly, nil
}
