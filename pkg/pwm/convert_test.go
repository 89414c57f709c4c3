package pwm

import (
	"math"
	"testing"
)

func TestClampFraction(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{-1.5, 0},
		{-0.0001, 0},
		{0, 0},
		{0.25, 0.25},
		{1, 1},
		{1.0001, 1},
		{42, 1},
	}
	for _, tc := range cases {
		if got := ClampFraction(tc.in); got != tc.want {
			t.Fatalf("ClampFraction(%g) = %g, want %g", tc.in, got, tc.want)
		}
	}
}

func TestNanosSeconds(t *testing.T) {
	cases := []struct {
		seconds float64
		nanos   int64
	}{
		{0, 0},
		{0.02, 20000000},  // 20ms
		{0.000005, 5000},  // 5us
		{1.5, 1500000000},
	}
	for _, tc := range cases {
		if got := Nanos(tc.seconds); got != tc.nanos {
			t.Fatalf("Nanos(%g) = %d, want %d", tc.seconds, got, tc.nanos)
		}
		if got := Seconds(tc.nanos); math.Abs(got-tc.seconds) > 1e-12 {
			t.Fatalf("Seconds(%d) = %g, want %g", tc.nanos, got, tc.seconds)
		}
	}
}

func TestFractionOf(t *testing.T) {
	if got := FractionOf(5000000, 20000000); got != 0.25 {
		t.Fatalf("FractionOf = %g, want 0.25", got)
	}
	// Zero period means no signal, not a division error.
	if got := FractionOf(5000000, 0); got != 0 {
		t.Fatalf("FractionOf with zero period = %g, want 0", got)
	}
}
