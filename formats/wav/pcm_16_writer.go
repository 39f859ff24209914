// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/ik5/noiselevel/utils"
)

const (
	headerSize = 44
	chunkSize  = 8192 // samples per write
)

// WriteWAV16 writes a mono 16-bit PCM WAV at sampleRate.
func WriteWAV16(w io.Writer, sampleRate int, samples []int16) error {
	return WriteWAV(w, sampleRate, 1, samples)
}

// WriteWAV writes interleaved 16-bit PCM samples as a canonical 44-byte-header WAV.
func WriteWAV(w io.Writer, sampleRate, channels int, samples []int16) error {
	if sampleRate <= 0 || channels <= 0 || len(samples)%channels != 0 {
		return fmt.Errorf("%w: %d channels at %d Hz, %d samples", ErrInvalidFormat, channels, sampleRate, len(samples))
	}

	if err := writeHeader(w, sampleRate, channels, len(samples)); err != nil {
		return err
	}

	buf := make([]byte, min(len(samples), chunkSize)*2)
	for start := 0; start < len(samples); start += chunkSize {
		chunk := samples[start:min(start+chunkSize, len(samples))]
		out := buf[:len(chunk)*2]

		for i, s := range chunk {
			binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
		}

		if _, err := w.Write(out); err != nil {
			return fmt.Errorf("%w", err)
		}
	}

	return nil
}

// EncodeFloat32 writes float samples in [-1, 1] as 16-bit PCM WAV,
// clamping anything outside that range.
func EncodeFloat32(w io.Writer, sampleRate, channels int, samples []float32) error {
	pcm := make([]int16, len(samples))
	utils.Float32sToInt16s(pcm, samples)

	return WriteWAV(w, sampleRate, channels, pcm)
}

func writeHeader(w io.Writer, sampleRate, channels, samples int) error {
	const bitsPerSample = 16

	blockAlign := channels * bitsPerSample / 8
	dataSize := uint32(samples * 2)

	header := make([]byte, headerSize)

	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")

	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16) // PCM fmt chunk size
	binary.LittleEndian.PutUint16(header[20:22], formatPCM)
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)

	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}
