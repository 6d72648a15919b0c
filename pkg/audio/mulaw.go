package audio

// G.711 μ-law companding. The expansion and compression below follow the
// standard sign/exponent/mantissa formulas bit for bit; no lookup tables.
const (
	mulawBias = 0x84 // 132
	mulawClip = 32635
)

// DecodeMulawSample expands one 8-bit μ-law sample to 16-bit linear PCM.
func DecodeMulawSample(u byte) int16 {
	u = ^u
	exponent := (u >> 4) & 0x07
	mantissa := u & 0x0F

	v := ((int32(mantissa) << 3) + mulawBias) << exponent
	v -= mulawBias

	if u&0x80 != 0 {
		return int16(-v)
	}
	return int16(v)
}

// EncodeMulawSample compresses one 16-bit linear PCM sample to 8-bit μ-law.
func EncodeMulawSample(s int16) byte {
	var sign byte
	v := int32(s)
	if v < 0 {
		v = -v
		sign = 0x80
	}
	if v > mulawClip {
		v = mulawClip
	}
	v += mulawBias

	exponent := byte(7)
	for mask := int32(0x4000); exponent > 0 && v&mask == 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte(v>>(exponent+3)) & 0x0F

	return ^(sign | exponent<<4 | mantissa)
}

// DecodeMulaw expands a μ-law buffer to 16-bit linear PCM samples.
func DecodeMulaw(data []byte) []int16 {
	out := make([]int16, len(data))
	for i, u := range data {
		out[i] = DecodeMulawSample(u)
	}
	return out
}

// EncodeMulaw compresses 16-bit linear PCM samples to a μ-law buffer.
func EncodeMulaw(samples []int16) []byte {
	out := make([]byte, len(samples))
	for i, s := range samples {
		out[i] = EncodeMulawSample(s)
	}
	return out
}
