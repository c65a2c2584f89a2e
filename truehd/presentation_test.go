package truehd

import "testing"

func TestPopcount16(t *testing.T) {
	cases := []struct {
		v    uint16
		want int
	}{
		{0, 0},
		{1, 1},
		{0xFFFF, 16},
		{0x00FF, 8},
		{0x8001, 2},
	}
	for _, c := range cases {
		if got := popcount16(c.v); got != c.want {
			t.Errorf("popcount16(0x%x) = %d, want %d", c.v, got, c.want)
		}
	}
}

func TestSelectorNilMajorSync(t *testing.T) {
	s := NewSelector(nil, 0)
	if s.MaxIndependentPresentation() != -1 {
		t.Error("expected -1 with no latched MajorSync")
	}
	info := s.Info(Presentation2ch)
	if info.Available {
		t.Error("no presentation should be available without a MajorSync")
	}
}

func TestSelectorAvailability(t *testing.T) {
	ms := &MajorSync{
		SampleRate:           48000,
		ChannelAssignment6ch: 0x0F, // 4 bits set.
		ChannelAssignment8ch: 0x3F, // 6 bits set.
	}
	s := NewSelector(ms, 2) // substreams 0 and 1 delivered.

	if !s.Info(Presentation2ch).Available {
		t.Error("presentation 0 should be available with >=1 substream")
	}
	if !s.Info(Presentation6ch).Available {
		t.Error("presentation 1 should be available with >=2 substreams")
	}
	if s.Info(Presentation8ch).Available {
		t.Error("presentation 2 should not be available with only 2 substreams")
	}
	if got := s.Info(Presentation6ch).ChannelCount; got != 6 {
		t.Errorf("ChannelCount = %d, want 6", got)
	}
	if got := s.MaxIndependentPresentation(); got != int(Presentation6ch) {
		t.Errorf("MaxIndependentPresentation() = %d, want %d", got, Presentation6ch)
	}
}

func TestSelectorResolveFallback(t *testing.T) {
	ms := &MajorSync{SampleRate: 48000}
	s := NewSelector(ms, 1) // only presentation 0 available.

	want := Presentation8ch
	got, anomaly, err := s.Resolve(&want, 0)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got != Presentation2ch {
		t.Errorf("Resolve() = %v, want fallback to Presentation2ch", got)
	}
	if anomaly == nil || anomaly.Kind != KindPresentationUnavailable {
		t.Fatalf("expected a PresentationUnavailable anomaly, got %v", anomaly)
	}
}

func TestSelectorResolveNoPresentationAvailable(t *testing.T) {
	s := NewSelector(nil, 0)
	_, _, err := s.Resolve(nil, 0)
	if err != ErrPresentationUnavailable {
		t.Errorf("err = %v, want ErrPresentationUnavailable", err)
	}
}
