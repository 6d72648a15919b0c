package audio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dwellio/voicebridge/pkg/audio"
)

func TestResample(t *testing.T) {
	tests := map[string]struct {
		src      []int16
		from, to int
		wantLen  int
	}{
		"upsample_8k_to_24k": {
			src:     []int16{1, 2, 3, 4},
			from:    8000,
			to:      24000,
			wantLen: 12,
		},
		"downsample_24k_to_8k": {
			src:     []int16{1, 1, 1, 2, 2, 2, 3, 3, 3},
			from:    24000,
			to:      8000,
			wantLen: 3,
		},
		"same_rate_copies": {
			src:     []int16{5, 6, 7},
			from:    8000,
			to:      8000,
			wantLen: 3,
		},
		"empty_input": {
			src:     nil,
			from:    8000,
			to:      24000,
			wantLen: 0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			out := audio.Resample(tt.src, tt.from, tt.to)
			assert.Len(t, out, tt.wantLen)
		})
	}
}

func TestResample_DownsamplePicksNearest(t *testing.T) {
	src := []int16{10, 11, 12, 20, 21, 22, 30, 31, 32}
	out := audio.Resample(src, 24000, 8000)
	assert.Equal(t, []int16{10, 20, 30}, out)
}

func TestResample_UpsampleRepeatsNearest(t *testing.T) {
	out := audio.Resample([]int16{7, 9}, 8000, 24000)
	assert.Equal(t, []int16{7, 7, 7, 9, 9, 9}, out)
}

func TestResample_DoesNotAliasInput(t *testing.T) {
	src := []int16{1, 2, 3}
	out := audio.Resample(src, 8000, 8000)
	out[0] = 99
	assert.Equal(t, int16(1), src[0])
}

func TestPCMInt16LE_Roundtrip(t *testing.T) {
	in := []int16{0, 1, -1, 32767, -32768, 1234}
	assert.Equal(t, in, audio.LEToPCMInt16(audio.PCMInt16ToLE(in)))
}
