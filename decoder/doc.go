// SPDX-License-Identifier: EPL-2.0

// Package decoder turns an audio file of any supported container into an
// audio.Buffer.
//
// The container is identified by its magic bytes, falling back to the file
// extension. WAV, AIFF, MP3 and Ogg Vorbis are decoded in process. Everything
// else, and any native stream the in-process decoder rejects, goes through the
// configured Transcoder:
//
//	bin, err := ffmpeg.Resolve("")
//	if err != nil {
//		return err
//	}
//	dec := decoder.New(decoder.WithFFmpeg(bin), decoder.WithLogger(log))
//	buf, err := dec.Decode(ctx, "clip.webm")
//
// Without a transcoder, non-native input fails with ErrUnsupportedCodec.
// The source sample rate and channel layout are kept unless WithSampleRate
// asks for a specific rate.
//
// All failures are reported as *DecodeError; errors.Is matches
// ErrNoAudioStream, ErrUnsupportedCodec and the underlying os errors.
package decoder
