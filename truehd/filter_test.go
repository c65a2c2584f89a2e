package truehd

import "testing"

func TestValidateCombinedOrder(t *testing.T) {
	cases := []struct {
		fir, iir int
		wantErr  bool
	}{
		{0, 0, false},
		{4, 4, false},
		{8, 0, false},
		{0, 8, false},
		{5, 4, true},
		{8, 1, true},
	}
	for _, c := range cases {
		err := validateCombinedOrder(c.fir, c.iir)
		if (err != nil) != c.wantErr {
			t.Errorf("validateCombinedOrder(%d, %d) error = %v, wantErr %v", c.fir, c.iir, err, c.wantErr)
		}
	}
}

func TestCoeffQTable(t *testing.T) {
	if CoeffQ[FilterFIR] != 14 {
		t.Errorf("CoeffQ[FilterFIR] = %d, want 14", CoeffQ[FilterFIR])
	}
	if CoeffQ[FilterIIR] != 14 {
		t.Errorf("CoeffQ[FilterIIR] = %d, want 14", CoeffQ[FilterIIR])
	}
}
