package pwm

// ClampFraction bounds a duty-cycle fraction to [0.0, 1.0]. Out-of-range
// input is clamped, not rejected: signal-generation callers routinely feed
// computed values that drift slightly past the bounds.
func ClampFraction(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Nanos converts a non-negative duration in seconds to integer nanoseconds,
// the unit the kernel PWM attributes speak.
func Nanos(seconds float64) int64 {
	return int64(seconds*1e9 + 0.5)
}

// Seconds converts integer nanoseconds back to seconds.
func Seconds(nanos int64) float64 {
	return float64(nanos) * 1e-9
}

// FractionOf returns duty/period as a fraction. A zero period means no
// signal is defined and yields 0 rather than an error.
func FractionOf(duty, period int64) float64 {
	if period == 0 {
		return 0
	}
	return float64(duty) / float64(period)
}
