package audio

// Resample converts samples between rates by nearest-sample selection: a
// fractional step counter accumulates the rate ratio and emits the closest
// source sample each time it crosses an output position. Deliberately not
// bandlimited; intelligibility over fidelity for telephony speech.
func Resample(src []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(src) == 0 {
		out := make([]int16, len(src))
		copy(out, src)
		return out
	}

	n := len(src) * toRate / fromRate
	out := make([]int16, n)
	step := float64(fromRate) / float64(toRate)
	pos := 0.0
	for i := range out {
		j := int(pos)
		if j >= len(src) {
			j = len(src) - 1
		}
		out[i] = src[j]
		pos += step
	}
	return out
}
