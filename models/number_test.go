package models

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"12000", 12000, true},
		{"145000.0", 145000, true},
		{"$1,200.50", 1200.50, true},
		{"$12,000", 12000, true},
		{" 99 ", 99, true},
		{"1e4", 10000, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"null", 0, false},
		{"free", 0, false},
		{"12 000 km", 0, false},
		{"inf", 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseNumber(tt.raw)
		if ok != tt.valid || got.Valid != tt.valid {
			t.Errorf("ParseNumber(%q) valid = %t; want %t", tt.raw, ok, tt.valid)
			continue
		}
		if tt.valid && got.Float64 != tt.want {
			t.Errorf("ParseNumber(%q) = %.2f; want %.2f", tt.raw, got.Float64, tt.want)
		}
	}
}

func TestIsMissing(t *testing.T) {
	for _, raw := range []string{"", "  ", "NaN", "N/A", "none"} {
		if !IsMissing(raw) {
			t.Errorf("IsMissing(%q) = false; want true", raw)
		}
	}
	if IsMissing("0") {
		t.Error(`IsMissing("0") = true; want false`)
	}
}
