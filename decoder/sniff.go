// SPDX-License-Identifier: EPL-2.0

package decoder

import "bytes"

// sniffLen is the number of leading bytes Sniff needs.
const sniffLen = 12

// Sniff identifies a container from its leading bytes. It returns the
// registry format key, or "" when the header is not one of the native
// formats.
func Sniff(header []byte) string {
	switch {
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE")):
		return "wav"
	case len(header) >= 12 && bytes.Equal(header[:4], []byte("FORM")) &&
		(bytes.Equal(header[8:12], []byte("AIFF")) || bytes.Equal(header[8:12], []byte("AIFC"))):
		return "aiff"
	case bytes.HasPrefix(header, []byte("OggS")):
		return "ogg"
	case bytes.HasPrefix(header, []byte("ID3")):
		return "mp3"
	case isMP3Frame(header):
		return "mp3"
	}

	return ""
}

// isMP3Frame matches an MPEG audio layer III frame sync. ADTS AAC shares the
// sync word but carries layer bits 00.
func isMP3Frame(header []byte) bool {
	if len(header) < 2 {
		return false
	}

	return header[0] == 0xFF && header[1]&0xE0 == 0xE0 && (header[1]>>1)&0x03 == 0x01
}
