package appeal

import "testing"

func TestScoreTiers(t *testing.T) {
	cases := []struct {
		assessed  float64
		reference float64
		want      Strength
	}{
		{500000, 425000, StrengthStrong}, // 15% gap, boundary inclusive
		{500000, 460000, StrengthMedium}, // 8% gap
		{500000, 475000, StrengthMedium}, // 5% gap, boundary inclusive
		{500000, 490000, StrengthWeak},   // 2% gap
		{500000, 520000, StrengthWeak},   // negative gap
		{500000, 500000, StrengthWeak},   // no gap
	}
	for _, c := range cases {
		if got := Score(c.assessed, c.reference); got != c.want {
			t.Fatalf("Score(%.0f, %.0f) = %s, want %s", c.assessed, c.reference, got, c.want)
		}
	}
}
