/*
NAME
  decoder.go

DESCRIPTION
  decoder.go implements the public façade of spec §4.11, §6.3: a
  Decoder that wraps a Framer, drives the branch/restart FSM and
  presentation Selector across AUs, decodes every substream up to the
  resolved presentation, and applies the configured fail-level policy.

LICENSE
  No upstream license header: decoder.go is original to this module.
*/

package truehd

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/pkg/errors"

	"github.com/truehd-go/truehd/bits"
	"github.com/truehd-go/truehd/truehd/oamd"
	"github.com/truehd-go/truehd/truehd/pcmblock"
)

// DecodedAccessUnit is one fully decoded access unit, resolved to the
// requested (or fallback) presentation (spec §4.11).
type DecodedAccessUnit struct {
	// PCM holds one sample slice per output channel, in presentation
	// channel order.
	PCM [][]int32

	// Presentation is the presentation actually decoded this AU.
	Presentation Presentation

	// ChannelCount is len(PCM).
	ChannelCount int

	// SampleCount is the number of samples in each channel of PCM.
	SampleCount int

	// SampleRate is the resolved presentation's sample rate in Hz, for
	// IntBuffer and any other consumer that needs it alongside PCM.
	SampleRate int

	// IsDuplicate is true when this AU is a valid branch point and its
	// first decoded block exactly matches the last block emitted before
	// it, the splice-duplication signal of spec §4.8.
	IsDuplicate bool

	// PresentationChanged is true when the resolved presentation's
	// channel count differs from the previous AU's (spec §4.8).
	PresentationChanged bool

	// HasValidBranch mirrors AccessUnit.HasValidBranch.
	HasValidBranch bool

	// PeakDataRateJump mirrors AccessUnit.PeakDataRateJump.
	PeakDataRateJump bool

	// SegmentIndex mirrors AccessUnit.SegmentIndex.
	SegmentIndex int

	// ExtraData is the AU's trailing Extra Data region, unparsed.
	ExtraData []byte

	// OAMD is the decoded object-audio metadata block, nil when this AU
	// carries no Extra Data or decoding it failed (in which case an
	// Anomaly of KindOAMDLengthMismatch is appended to Anomalies, and the
	// pull aborts if that anomaly's severity meets the configured fail
	// level).
	OAMD *oamd.Block

	// Anomalies lists every anomaly raised while parsing and decoding
	// this AU, in encounter order. Every entry is below the configured
	// fail level: a pull that meets an aborting anomaly returns no
	// DecodedAccessUnit, only Decoder.Next's error.
	Anomalies []*Anomaly
}

// IntBuffer converts PCM into the interchange type spec §6.2 describes
// for writer front ends: a github.com/go-audio/audio.IntBuffer any
// go-audio consumer (WAV encoders, resamplers, meters) can take
// directly, at the resolved presentation's sample rate.
func (au *DecodedAccessUnit) IntBuffer() (*audio.IntBuffer, error) {
	return pcmblock.FromChannels(au.PCM, au.SampleRate)
}

// Decoder is the stateful façade over one elementary-stream byte source
// (spec §6.3). Construct with NewDecoder; pull access units with Next.
type Decoder struct {
	cfg    Config
	policy *policy
	framer *Framer
	fsm    *branchFSM

	selector *Selector

	latched [4]substreamLatched
	state   [4]substreamState
}

// NewDecoder returns a Decoder reading from src with the given Config
// (spec §6.3). A zero-value Config selects the documented defaults (see
// Config).
func NewDecoder(src io.Reader, cfg Config) *Decoder {
	return &Decoder{
		cfg:    cfg,
		policy: newPolicy(cfg),
		framer: NewFramer(src),
		fsm:    newBranchFSM(),
	}
}

// ErrAborted is wrapped around the first anomaly whose severity meets or
// exceeds the configured fail level (spec §4.10).
var ErrAborted = errors.New("truehd: decode aborted by fail-level policy")

// Next decodes and returns the next access unit. It returns io.EOF when
// the source is exhausted at an AU boundary, or an error wrapping
// ErrAborted when an anomaly at or above the configured fail level is
// encountered (spec §4.10).
func (d *Decoder) Next() (*DecodedAccessUnit, error) {
	au, anomalies, err := d.framer.Next()
	if err != nil {
		return nil, err
	}
	if abort := d.firstAbort(anomalies); abort != nil {
		return nil, fmt.Errorf("%w: %w", ErrAborted, abort)
	}

	if au.MajorSync != nil {
		d.selector = NewSelector(au.MajorSync, len(au.Substreams))
		if d.fsm.observePeakRateJump(au.MajorSync) {
			au.PeakDataRateJump = true
			anomalies = append(anomalies, newAnomaly(KindPeakDataRateJump, au.ByteOffset, -1, -1,
				"peak data rate increased"))
		}
	} else if d.selector != nil {
		d.selector = NewSelector(d.selector.ms, len(au.Substreams))
	}
	if d.selector == nil {
		return nil, errors.New("truehd: no major sync latched, cannot resolve a presentation")
	}

	pres, presAnomaly, err := d.selector.Resolve(d.cfg.Presentation, au.ByteOffset)
	if err != nil {
		return nil, err
	}
	if presAnomaly != nil {
		anomalies = append(anomalies, presAnomaly)
		if abort := d.firstAbort(anomalies[len(anomalies)-1:]); abort != nil {
			return nil, fmt.Errorf("%w: %w", ErrAborted, abort)
		}
	}

	presInfo := d.selector.Info(pres)
	channelCount := presInfo.ChannelCount
	presentationChanged := d.fsm.observeChannelCountChange(channelCount)
	au.SegmentIndex = d.fsm.segmentIndex
	if presentationChanged {
		anomalies = append(anomalies, newAnomaly(KindSubstreamInfoChange, au.ByteOffset, -1, -1,
			"resolved presentation channel count changed"))
	}

	r := bits.NewReader(au.body)
	validBranch := true
	lastSegIdx := int(pres)
	for i := 0; i <= lastSegIdx && i < len(au.Substreams); i++ {
		seg := au.Substreams[i]
		if skip := seg.PayloadStartByte*8 - r.PositionBits(); skip > 0 {
			if err := r.Skip(skip); err != nil {
				return nil, errors.Wrap(err, "truehd: seeking to substream payload")
			}
		}

		blocks, rh, resync, subAnomalies, err := ParseAndDecodeSubstream(
			r, au.body, seg, &d.latched[i], &d.state[i], MaxMatrixRows, au.ByteOffset)
		anomalies = append(anomalies, subAnomalies...)
		if err != nil {
			return nil, errors.Wrap(err, "truehd: decoding substream")
		}
		if abort := d.firstAbort(subAnomalies); abort != nil {
			return nil, fmt.Errorf("%w: %w", ErrAborted, abort)
		}

		if seg.RestartHeaderHere {
			d.fsm.observeRestart(i, rh != nil)
		}
		branchHere := isValidBranch(resync, rh)
		if !branchHere {
			validBranch = false
		}

		// Duplicate-AU-at-splice (spec §4.8) only applies at a branch
		// point, and compares the branch AU's first block against the
		// last emitted block, not the whole merged AU.
		dup := false
		if branchHere && len(blocks) > 0 {
			firstBlock := blocks[0].PCM
			prev := d.state[i].lastOutput[:len(firstBlock)]
			dup = isDuplicateBlock(prev, firstBlock)
			if dup {
				anomalies = append(anomalies, newAnomaly(KindDuplicateAUAtSplice, au.ByteOffset, i, -1,
					"decoded samples duplicate the previous access unit's"))
			}
		}

		merged := mergeBlockChannels(blocks)
		if len(blocks) > 0 {
			lastBlock := blocks[len(blocks)-1].PCM
			for c, ch := range lastBlock {
				if c < len(d.state[i].lastOutput) {
					d.state[i].lastOutput[c] = ch
				}
			}
		}

		if i == lastSegIdx {
			au.HasValidBranch = validBranch

			var oamdBlock *oamd.Block
			if len(au.ExtraData) > 0 {
				blk, err := oamd.ParseBlock(au.ExtraData, oamd.WarpMode(d.cfg.WarpMode), d.cfg.BedConform)
				if err != nil {
					anomalies = append(anomalies, newAnomaly(KindOAMDLengthMismatch, au.ByteOffset, -1, -1, err.Error()))
				} else {
					oamdBlock = blk
				}
			}

			out := &DecodedAccessUnit{
				PCM:                 merged,
				Presentation:        pres,
				ChannelCount:        len(merged),
				SampleCount:         sampleCount(merged),
				SampleRate:          presInfo.SampleRate,
				IsDuplicate:         dup,
				PresentationChanged: presentationChanged,
				HasValidBranch:      validBranch,
				PeakDataRateJump:    au.PeakDataRateJump,
				SegmentIndex:        au.SegmentIndex,
				ExtraData:           au.ExtraData,
				OAMD:                oamdBlock,
				Anomalies:           anomalies,
			}
			if validBranch {
				demoteAll(anomalies)
			}
			if abort := d.firstAbort(anomalies); abort != nil {
				return nil, fmt.Errorf("%w: %w", ErrAborted, abort)
			}
			return out, nil
		}
	}

	return nil, errors.New("truehd: resolved presentation referenced no substreams")
}

// firstAbort returns the first anomaly in anomalies whose severity meets
// or exceeds the configured fail level, or nil if none does.
func (d *Decoder) firstAbort(anomalies []*Anomaly) error {
	for _, a := range anomalies {
		if d.policy.aborts(a.Severity) {
			return a
		}
	}
	return nil
}

// demoteAll applies the valid-branch severity demotion of spec §3, §4.8
// to every CRC, lossless-check, and parity anomaly in anomalies.
func demoteAll(anomalies []*Anomaly) {
	for _, a := range anomalies {
		switch a.Kind {
		case KindSubstreamCRCMismatch, KindRestartParityMismatch, KindLosslessCheckMismatch, KindAUHeaderCRCMismatch:
			a.demote()
		}
	}
}

// mergeBlockChannels concatenates every block's per-channel samples into
// one contiguous slice per channel.
func mergeBlockChannels(blocks []DecodedBlock) [][]int32 {
	if len(blocks) == 0 {
		return nil
	}
	nChan := len(blocks[0].PCM)
	out := make([][]int32, nChan)
	for _, b := range blocks {
		for c := 0; c < nChan && c < len(b.PCM); c++ {
			out[c] = append(out[c], b.PCM[c]...)
		}
	}
	return out
}

func sampleCount(pcm [][]int32) int {
	if len(pcm) == 0 {
		return 0
	}
	return len(pcm[0])
}

// ParsedAUs returns an iterator over access-unit framing and header
// information only, without running the DSP decode path (spec §4.11:
// "restartable and deterministic"). Call Next on the returned Framer
// directly; ParsedAUs exists to mirror DecodedAUs' naming for a reader
// scanning the package's exported surface.
func ParsedAUs(src io.Reader) *Framer {
	return NewFramer(src)
}

// DecodedAUs returns a forward-only Decoder performing a full decode of
// src under cfg (spec §4.11).
func DecodedAUs(src io.Reader, cfg Config) *Decoder {
	return NewDecoder(src, cfg)
}
