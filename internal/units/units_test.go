package units

import (
	"math"
	"testing"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		system string
		want   bool
	}{
		{SI, true},
		{English, true},
		{"metric", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.system); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.system, got, tt.want)
		}
	}
}

func TestForSI(t *testing.T) {
	c := For(SI)
	if c.L != 1 || c.A != 1 || c.V != 1 || c.Q != 1 {
		t.Errorf("SI conversion must be identity, got %+v", c)
	}
	if c.LabelQ != "(m3/s)" {
		t.Errorf("LabelQ = %q", c.LabelQ)
	}
}

func TestForEnglish(t *testing.T) {
	c := For(English)
	if math.Abs(c.L-3.280839895) > 1e-9 {
		t.Errorf("L = %v, want 3.280839895", c.L)
	}
	if math.Abs(c.Q-35.314666721) > 1e-8 {
		t.Errorf("Q = %v, want 35.314666721 (cms to cfs)", c.Q)
	}
	if c.LabelQ != "(ft3/s)" {
		t.Errorf("LabelQ = %q", c.LabelQ)
	}
}

func TestForUnknownFallsBackToSI(t *testing.T) {
	if c := For("furlongs"); c.ID != SI {
		t.Errorf("unknown system resolved to %q, want SI", c.ID)
	}
}
