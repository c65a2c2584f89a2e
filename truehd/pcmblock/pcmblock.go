/*
NAME
  pcmblock.go

DESCRIPTION
  Package pcmblock adapts a decoded access unit's per-channel int32 PCM
  into the interchange type spec §6.2 specifies for front ends: an
  interleaved, self-describing buffer a writer can hand directly to any
  github.com/go-audio/audio consumer (WAV encoders, resamplers, meters)
  without re-deriving channel count or bit depth from context.

LICENSE
  No upstream license header: pcmblock.go is original to this module.
*/
package pcmblock

import (
	"github.com/go-audio/audio"
	"github.com/pkg/errors"
)

// BitDepth is the sample bit depth TrueHD decodes to (spec §4.6: "24-bit
// linear PCM").
const BitDepth = 24

// ErrChannelLengthMismatch is returned when the input channels carry a
// differing number of samples.
var ErrChannelLengthMismatch = errors.New("pcmblock: channels carry differing sample counts")

// FromChannels interleaves per-channel int32 PCM (as produced by
// truehd.DecodedAccessUnit.PCM) into a github.com/go-audio/audio.IntBuffer
// at the given sample rate.
func FromChannels(pcm [][]int32, sampleRate int) (*audio.IntBuffer, error) {
	if len(pcm) == 0 {
		return &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 0, SampleRate: sampleRate},
			SourceBitDepth: BitDepth,
		}, nil
	}
	n := len(pcm[0])
	for _, ch := range pcm {
		if len(ch) != n {
			return nil, ErrChannelLengthMismatch
		}
	}

	data := make([]int, n*len(pcm))
	for s := 0; s < n; s++ {
		for c, ch := range pcm {
			data[s*len(pcm)+c] = int(ch[s])
		}
	}

	return &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: len(pcm),
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: BitDepth,
	}, nil
}

// ToChannels de-interleaves an audio.IntBuffer back into per-channel
// int32 PCM, the inverse of FromChannels. Used by round-trip tests and
// by any front end that receives buffers from elsewhere in a
// go-audio-based pipeline and needs to feed them back through
// channel-indexed code.
func ToChannels(buf *audio.IntBuffer) [][]int32 {
	if buf == nil || buf.Format == nil || buf.Format.NumChannels == 0 {
		return nil
	}
	nChan := buf.Format.NumChannels
	n := len(buf.Data) / nChan
	out := make([][]int32, nChan)
	for c := range out {
		out[c] = make([]int32, n)
	}
	for s := 0; s < n; s++ {
		for c := 0; c < nChan; c++ {
			out[c][s] = int32(buf.Data[s*nChan+c])
		}
	}
	return out
}
