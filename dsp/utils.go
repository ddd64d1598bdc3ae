package dsp

type numeric interface {
	int | float64
}

// Clamp limits v to [lo, hi].
func Clamp[T numeric](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// AbsInt returns |x|.
func AbsInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// BoolVolts maps a logic level to 0V / 10V.
func BoolVolts(on bool) float64 {
	if on {
		return 10
	}
	return 0
}
