package audio

// Format constants shared by the codec, resampler and playback layers.
const (
	// Telephony leg (G.711 μ-law media frames).
	TelephonySampleRate = 8_000 // Hz
	TelephonyFrameSize  = 160   // μ-law bytes per 20 ms frame

	// Speech-service leg (16-bit linear PCM).
	ServiceSampleRate = 24_000 // Hz
	ServiceFrameSize  = 480                  // samples (20 ms)
	ServiceFrameBytes = ServiceFrameSize * 2 // 16-bit PCM

	// FrameDurationMs is the wire frame duration on both legs.
	FrameDurationMs = 20
)
