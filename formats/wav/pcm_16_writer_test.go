// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/ik5/noiselevel/audio"
)

func TestWriteWAV16_Header(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	if err := WriteWAV16(out, 8000, []int16{1, -1, 2, -2}); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	data := out.Bytes()
	if len(data) != headerSize+8 {
		t.Fatalf("len = %d, want %d", len(data), headerSize+8)
	}

	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", binary.LittleEndian.Uint32(data[4:8]), 36 + 8},
		{"format", uint32(binary.LittleEndian.Uint16(data[20:22])), formatPCM},
		{"channels", uint32(binary.LittleEndian.Uint16(data[22:24])), 1},
		{"sample rate", binary.LittleEndian.Uint32(data[24:28]), 8000},
		{"byte rate", binary.LittleEndian.Uint32(data[28:32]), 16000},
		{"data size", binary.LittleEndian.Uint32(data[40:44]), 8},
	}

	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
}

func TestWriteWAV_StereoRoundTrip(t *testing.T) {
	t.Parallel()

	samples := []int16{100, -100, 200, -200, 16384, -16384}
	out := new(bytes.Buffer)
	if err := WriteWAV(out, 22050, 2, samples); err != nil {
		t.Fatalf("WriteWAV() error = %v", err)
	}

	src, err := Decoder{}.Decode(bytes.NewReader(out.Bytes()))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	buf, err := audio.ReadAll(src)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	if buf.Channels != 2 || buf.SampleRate != 22050 {
		t.Errorf("format = %d ch @ %d Hz, want 2 ch @ 22050 Hz", buf.Channels, buf.SampleRate)
	}
	if len(buf.Samples) != len(samples) {
		t.Fatalf("len(Samples) = %d, want %d", len(buf.Samples), len(samples))
	}
	if buf.Samples[4] != 0.5 || buf.Samples[5] != -0.5 {
		t.Errorf("last frame = %v, want [0.5 -0.5]", buf.Samples[4:])
	}
}

func TestWriteWAV_LargerThanChunk(t *testing.T) {
	t.Parallel()

	samples := make([]int16, chunkSize*2+17)
	for i := range samples {
		samples[i] = int16(i)
	}

	out := new(bytes.Buffer)
	if err := WriteWAV16(out, 8000, samples); err != nil {
		t.Fatalf("WriteWAV16() error = %v", err)
	}

	data := out.Bytes()[headerSize:]
	for _, i := range []int{0, chunkSize - 1, chunkSize, len(samples) - 1} {
		if got := int16(binary.LittleEndian.Uint16(data[i*2:])); got != samples[i] {
			t.Errorf("sample %d = %d, want %d", i, got, samples[i])
		}
	}
}

func TestWriteWAV_InvalidFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		sampleRate int
		channels   int
		samples    []int16
	}{
		{"zero rate", 0, 1, nil},
		{"zero channels", 8000, 0, nil},
		{"partial frame", 8000, 2, []int16{1, 2, 3}},
	}

	for _, tt := range tests {
		if err := WriteWAV(new(bytes.Buffer), tt.sampleRate, tt.channels, tt.samples); !errors.Is(err, ErrInvalidFormat) {
			t.Errorf("%s: WriteWAV() error = %v, want ErrInvalidFormat", tt.name, err)
		}
	}
}

func TestEncodeFloat32_Clamps(t *testing.T) {
	t.Parallel()

	out := new(bytes.Buffer)
	if err := EncodeFloat32(out, 8000, 1, []float32{2, -2, 0}); err != nil {
		t.Fatalf("EncodeFloat32() error = %v", err)
	}

	data := out.Bytes()[headerSize:]
	if got := int16(binary.LittleEndian.Uint16(data[0:])); got != 32767 {
		t.Errorf("clamped max = %d, want 32767", got)
	}
	if got := int16(binary.LittleEndian.Uint16(data[2:])); got != -32767 {
		t.Errorf("clamped min = %d, want -32767", got)
	}
}
