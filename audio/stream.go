// Package audio streams the engines' control voltages to a sound device,
// DC-coupled interfaces turn the two channels into pitch CV and gate.
//
// The device's pull callback is the real-time loop: every buffer it asks
// for is rendered sample by sample from a Source.
package audio

import (
	"encoding/binary"
	"math"
)

// Channels per frame: pitch, gate
const Channels = 2

const bytesPerSample = 4 // float32

// Source renders interleaved frames in [-1, 1].
type Source interface {
	Render(buf []float32)
}

// Stream is an io.Reader of float32 little-endian frames pulled from a
// Source.
type Stream struct {
	src Source
	buf []float32
}

// NewStream wraps src. The sample buffer is preallocated for common device
// buffer sizes.
func NewStream(src Source) *Stream {
	return &Stream{src: src, buf: make([]float32, 4096)}
}

// Read fills p with whole frames.
func (s *Stream) Read(p []byte) (int, error) {
	frames := len(p) / (bytesPerSample * Channels)
	samples := frames * Channels

	// This should rarely happen after the first callback
	if len(s.buf) < samples {
		s.buf = make([]float32, samples)
	}
	buf := s.buf[:samples]
	s.src.Render(buf)

	for i, v := range buf {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		binary.LittleEndian.PutUint32(p[i*bytesPerSample:], math.Float32bits(v))
	}
	return samples * bytesPerSample, nil
}
