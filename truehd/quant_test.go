package truehd

import "testing"

func TestValidateQuantStep(t *testing.T) {
	cases := []struct {
		shift   int8
		wantErr bool
	}{
		{0, false},
		{24, false},
		{-24, false},
		{25, true},
		{-25, true},
	}
	for _, c := range cases {
		err := validateQuantStep(c.shift)
		if (err != nil) != c.wantErr {
			t.Errorf("validateQuantStep(%d) error = %v, wantErr %v", c.shift, err, c.wantErr)
		}
	}
}

func TestApplyQuantStep(t *testing.T) {
	if got := applyQuantStep(8, 2); got != 2 {
		t.Errorf("applyQuantStep(8, 2) = %d, want 2", got)
	}
	if got := applyQuantStep(2, -2); got != 8 {
		t.Errorf("applyQuantStep(2, -2) = %d, want 8", got)
	}
	if got := applyQuantStep(-8, 2); got != -2 {
		t.Errorf("applyQuantStep(-8, 2) = %d, want -2 (sign-preserving shift)", got)
	}
	if got := applyQuantStep(5, 0); got != 5 {
		t.Errorf("applyQuantStep(5, 0) = %d, want 5", got)
	}
}
