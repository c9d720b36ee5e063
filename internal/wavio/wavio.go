// Package wavio reads and writes the PCM/float WAV files every synthesis
// and rendering stage in claw-daw passes around. It is deliberately small:
// a minimal RIFF reader (PCM16 and 32/64-bit float) and a float32 PCM
// writer, shared by internal/synth, internal/sampler and internal/render.
package wavio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// Buffer is an in-memory stereo (or mono) float buffer at a fixed sample
// rate. Samples are interleaved when Channels > 1.
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32 // interleaved
}

// Frames returns the number of sample frames (Samples / Channels).
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// NewStereo allocates a silent stereo buffer with the given frame count.
func NewStereo(sampleRate, frames int) *Buffer {
	return &Buffer{SampleRate: sampleRate, Channels: 2, Samples: make([]float32, frames*2)}
}

// Limit applies the spec's final-limiter invariant: scale by 0.98/peak
// when peak exceeds 0.98, never boosting a buffer that is already quiet.
func (b *Buffer) Limit() {
	peak := float32(0)
	for _, s := range b.Samples {
		a := s
		if a < 0 {
			a = -a
		}
		if a > peak {
			peak = a
		}
	}
	if peak > 0.98 {
		scale := 0.98 / peak
		for i := range b.Samples {
			b.Samples[i] *= scale
		}
	}
}

// Peak returns the absolute sample peak.
func (b *Buffer) Peak() float64 {
	peak := 0.0
	for _, s := range b.Samples {
		a := float64(s)
		if a < 0 {
			a = -a
		}
		if a > peak {
			peak = a
		}
	}
	return peak
}

// WriteFile writes b as a 32-bit IEEE float WAV file, the format every
// internal synth/sampler stage hands off to the external media tool.
func WriteFile(path string, b *Buffer) error {
	data, err := Marshal(b)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Marshal encodes b as a canonical 32-bit float WAV (fmt tag 3).
func Marshal(b *Buffer) ([]byte, error) {
	if b.Channels <= 0 {
		return nil, fmt.Errorf("wavio: channels must be positive, got %d", b.Channels)
	}

	var buf bytes.Buffer
	byteRate := b.SampleRate * b.Channels * 4
	blockAlign := b.Channels * 4
	dataSize := len(b.Samples) * 4

	buf.WriteString("RIFF")
	writeU32(&buf, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeU32(&buf, 16)
	writeU16(&buf, 3) // IEEE float
	writeU16(&buf, uint16(b.Channels))
	writeU32(&buf, uint32(b.SampleRate))
	writeU32(&buf, uint32(byteRate))
	writeU16(&buf, uint16(blockAlign))
	writeU16(&buf, 32)

	buf.WriteString("data")
	writeU32(&buf, uint32(dataSize))
	for _, s := range b.Samples {
		writeU32(&buf, math.Float32bits(s))
	}

	return buf.Bytes(), nil
}

// ReadFile loads a WAV file, accepting PCM16 or 32/64-bit float encodings
// (the "minimal RIFF fallback" from spec §4.F).
func ReadFile(path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: read %s: %w", path, err)
	}
	return Unmarshal(data)
}

// Unmarshal parses WAV bytes into a Buffer.
func Unmarshal(data []byte) (*Buffer, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("wavio: not a RIFF/WAVE file")
	}

	var (
		channels      int
		sampleRate    int
		bitsPerSample int
		audioFormat   int
		samples       []float32
	)

	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("wavio: fmt chunk too small")
			}
			audioFormat = int(binary.LittleEndian.Uint16(data[body : body+2]))
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
		case "data":
			samples, err := decodeData(data[body:body+size], audioFormat, bitsPerSample)
			if err != nil {
				return nil, err
			}
			if channels == 0 {
				channels = 1
			}
			return &Buffer{SampleRate: sampleRate, Channels: channels, Samples: samples}, nil
		}

		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	_ = samples
	return nil, fmt.Errorf("wavio: no data chunk found")
}

func decodeData(raw []byte, audioFormat, bits int) ([]float32, error) {
	switch {
	case audioFormat == 1 && bits == 16:
		n := len(raw) / 2
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			v := int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
			out[i] = float32(v) / 32768.0
		}
		return out, nil
	case audioFormat == 3 && bits == 32:
		n := len(raw) / 4
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4 : i*4+4]))
		}
		return out, nil
	case audioFormat == 3 && bits == 64:
		n := len(raw) / 8
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8 : i*8+8])))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("wavio: unsupported format (audioFormat=%d bits=%d)", audioFormat, bits)
	}
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeU16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

// Resample performs linear resampling of b to targetRate, per spec §4.G.
func Resample(b *Buffer, targetRate int) *Buffer {
	if b.SampleRate == targetRate || b.SampleRate <= 0 {
		return b
	}
	ratio := float64(targetRate) / float64(b.SampleRate)
	srcFrames := b.Frames()
	dstFrames := int(float64(srcFrames) * ratio)
	out := &Buffer{SampleRate: targetRate, Channels: b.Channels, Samples: make([]float32, dstFrames*b.Channels)}

	for f := 0; f < dstFrames; f++ {
		srcPos := float64(f) / ratio
		i0 := int(srcPos)
		i1 := i0 + 1
		frac := srcPos - float64(i0)
		if i1 >= srcFrames {
			i1 = srcFrames - 1
		}
		if i0 >= srcFrames {
			i0 = srcFrames - 1
		}
		for c := 0; c < b.Channels; c++ {
			s0 := b.Samples[i0*b.Channels+c]
			s1 := b.Samples[i1*b.Channels+c]
			out.Samples[f*b.Channels+c] = float32(float64(s0) + (float64(s1)-float64(s0))*frac)
		}
	}
	return out
}
