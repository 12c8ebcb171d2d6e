package speech

import "encoding/binary"

// resample stretches or squeezes PCM16LE mono samples by the given rate
// using linear interpolation. A rate above 1 shortens the output, so
// feeding the result to the device at its native rate plays the clip rate
// times faster. The container itself is never modified; the rate applies
// only at playback time.
func resample(pcm []byte, rate float64) []byte {
	if rate == 1 || len(pcm) < 4 {
		return pcm
	}

	in := len(pcm) / 2
	out := int(float64(in) / rate)
	if out < 1 {
		out = 1
	}

	res := make([]byte, out*2)
	for i := 0; i < out; i++ {
		pos := float64(i) * rate
		j := int(pos)
		if j >= in-1 {
			j = in - 2
		}
		frac := pos - float64(j)
		if frac > 1 {
			frac = 1
		}

		a := int16(binary.LittleEndian.Uint16(pcm[j*2:]))
		b := int16(binary.LittleEndian.Uint16(pcm[(j+1)*2:]))
		v := float64(a) + (float64(b)-float64(a))*frac
		binary.LittleEndian.PutUint16(res[i*2:], uint16(int16(v)))
	}
	return res
}
