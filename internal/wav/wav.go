// Package wav packs raw PCM samples into the canonical RIFF/WAVE container
// understood by any standard playback facility.
package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
)

// HeaderSize is the fixed size of the container header preceding sample data.
const HeaderSize = 44

// ErrOddLength reports PCM input that cannot be 16-bit samples.
var ErrOddLength = errors.New("pcm data has odd length")

// Encode wraps normalized samples in a 16-bit linear-PCM WAV container.
// Samples are floats in [-1, 1], already interleaved channel-major per
// frame, so the slice holds every channel's samples and the data region is
// always len(samples)*2 bytes; channels only describes the layout in the
// header. Values outside the range are clamped. The output is byte-exact:
// a 44-byte little-endian header followed by the converted samples.
func Encode(samples []float64, channels, sampleRate int) []byte {
	total := len(samples)*2 + HeaderSize

	buf := bytes.NewBuffer(make([]byte, 0, total))
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(total-8)) //nolint:errcheck
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))                       //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint16(1))                        //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint16(channels))                 //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))               //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*channels*2))    //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint16(channels*2))               //nolint:errcheck
	binary.Write(buf, binary.LittleEndian, uint16(16))                       //nolint:errcheck

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(total-HeaderSize)) //nolint:errcheck

	for _, s := range samples {
		binary.Write(buf, binary.LittleEndian, quantize(s)) //nolint:errcheck
	}
	return buf.Bytes()
}

// quantize converts a normalized sample to signed 16-bit. The scale is
// asymmetric to match the signed-16 range: negative values span 32768
// steps, non-negative ones 32767. Conversion truncates toward zero.
func quantize(s float64) int16 {
	if s < -1 {
		s = -1
	} else if s > 1 {
		s = 1
	}
	if s < 0 {
		return int16(s * 32768)
	}
	return int16(s * 32767)
}

// DecodeSamples reinterprets raw 16-bit little-endian PCM bytes as
// normalized floats in [-1, 1].
func DecodeSamples(pcm []byte) ([]float64, error) {
	if len(pcm)%2 != 0 {
		return nil, ErrOddLength
	}
	samples := make([]float64, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		samples[i] = float64(v) / 32768
	}
	return samples, nil
}
