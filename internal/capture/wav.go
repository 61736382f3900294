package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// EncodeWAV packs mono float32 samples into a 16-bit PCM WAV file.
func EncodeWAV(samples []float32, sampleRate int) []byte {
	const (
		numChannels   = 1
		bitsPerSample = 16
	)
	dataLen := len(samples) * 2
	byteRate := sampleRate * numChannels * bitsPerSample / 8
	blockAlign := numChannels * bitsPerSample / 8

	var buf bytes.Buffer
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(numChannels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		binary.Write(&buf, binary.LittleEndian, floatToPCM16(s))
	}

	return buf.Bytes()
}

func floatToPCM16(s float32) int16 {
	clamped := math.Max(-1, math.Min(1, float64(s)))
	return int16(clamped * math.MaxInt16)
}

// DecodeWAV unpacks a 16-bit PCM WAV file into mono float32 samples.
// Multi-channel audio is averaged down to one channel.
func DecodeWAV(data []byte) ([]float32, int, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("not a WAV file")
	}

	var (
		sampleRate  int
		numChannels int
		pcm         []byte
	)

	// Walk the chunk list; fmt and data may be preceded by others.
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		if body+size > len(data) {
			size = len(data) - body
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, 0, errors.New("short fmt chunk")
			}
			if format := binary.LittleEndian.Uint16(data[body : body+2]); format != 1 {
				return nil, 0, fmt.Errorf("unsupported WAV format %d", format)
			}
			numChannels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			if bits := binary.LittleEndian.Uint16(data[body+14 : body+16]); bits != 16 {
				return nil, 0, fmt.Errorf("unsupported bit depth %d", bits)
			}
		case "data":
			pcm = data[body : body+size]
		}

		off = body + size + size%2
	}

	if sampleRate == 0 || numChannels == 0 {
		return nil, 0, errors.New("missing fmt chunk")
	}
	if pcm == nil {
		return nil, 0, errors.New("missing data chunk")
	}

	frames := len(pcm) / 2 / numChannels
	samples := make([]float32, 0, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for ch := 0; ch < numChannels; ch++ {
			raw := int16(binary.LittleEndian.Uint16(pcm[(i*numChannels+ch)*2:]))
			sum += float32(raw) / math.MaxInt16
		}
		samples = append(samples, sum/float32(numChannels))
	}
	return samples, sampleRate, nil
}
