package pcmblock

import "testing"

func TestFromChannelsRoundTrip(t *testing.T) {
	pcm := [][]int32{
		{1, 2, 3},
		{10, 20, 30},
	}
	buf, err := FromChannels(pcm, 48000)
	if err != nil {
		t.Fatalf("FromChannels error: %v", err)
	}
	if buf.Format.NumChannels != 2 || buf.Format.SampleRate != 48000 {
		t.Fatalf("unexpected format: %+v", buf.Format)
	}
	want := []int{1, 10, 2, 20, 3, 30}
	if len(buf.Data) != len(want) {
		t.Fatalf("len(Data) = %d, want %d", len(buf.Data), len(want))
	}
	for i := range want {
		if buf.Data[i] != want[i] {
			t.Errorf("Data[%d] = %d, want %d", i, buf.Data[i], want[i])
		}
	}

	back := ToChannels(buf)
	if len(back) != len(pcm) {
		t.Fatalf("len(back) = %d, want %d", len(back), len(pcm))
	}
	for c := range pcm {
		for n := range pcm[c] {
			if back[c][n] != pcm[c][n] {
				t.Errorf("back[%d][%d] = %d, want %d", c, n, back[c][n], pcm[c][n])
			}
		}
	}
}

func TestFromChannelsMismatch(t *testing.T) {
	pcm := [][]int32{{1, 2}, {1}}
	if _, err := FromChannels(pcm, 48000); err != ErrChannelLengthMismatch {
		t.Errorf("err = %v, want ErrChannelLengthMismatch", err)
	}
}

func TestFromChannelsEmpty(t *testing.T) {
	buf, err := FromChannels(nil, 48000)
	if err != nil {
		t.Fatalf("FromChannels error: %v", err)
	}
	if buf.Format.NumChannels != 0 {
		t.Errorf("NumChannels = %d, want 0", buf.Format.NumChannels)
	}
}
