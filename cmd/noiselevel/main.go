// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/ik5/noiselevel"
	"github.com/ik5/noiselevel/decoder"
	"github.com/ik5/noiselevel/formats/ffmpeg"
	"github.com/ik5/noiselevel/internal/logger"
	"github.com/ik5/noiselevel/loudness"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface
type CLI struct {
	Version     bool          `short:"v" help:"Show version information"`
	FFmpeg      string        `name:"ffmpeg" env:"NOISELEVEL_FFMPEG" help:"ffmpeg binary used for containers without a native decoder (default: search PATH)"`
	NoTranscode bool          `help:"Only use the native WAV, AIFF, MP3 and Ogg Vorbis decoders"`
	Calibration float64       `default:"60" env:"NOISELEVEL_CALIBRATION_OFFSET" help:"Calibration offset in dB added to the full-scale level"`
	SampleRate  int           `env:"NOISELEVEL_SAMPLE_RATE" help:"Resample clips to this rate before measuring (0 keeps the source rate)"`
	Timeout     time.Duration `default:"30s" env:"NOISELEVEL_TIMEOUT" help:"Time allowed per file"`
	TempDir     string        `type:"path" env:"NOISELEVEL_TEMP_DIR" help:"Directory for intermediate transcoded files"`
	Lat         string        `help:"Latitude attached to every reading"`
	Lon         string        `help:"Longitude attached to every reading"`
	LogLevel    string        `default:"info" enum:"debug,info,warn,error" env:"LOG_LEVEL" help:"Log level (${enum})"`
	JSONLogs    bool          `name:"json-logs" help:"Write logs as JSON lines"`
	Files       []string      `arg:"" name:"files" help:"Audio files to measure" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("noiselevel"),
		kong.Description("Estimate the A-weighted noise level of audio clips"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
	)

	if cliArgs.Version {
		fmt.Printf("noiselevel %s\n", version)
		os.Exit(0)
	}

	if len(cliArgs.Files) == 0 {
		fmt.Fprintln(os.Stderr, "no input files specified")
		_ = ctx.PrintUsage(false)
		os.Exit(1)
	}

	log := logger.Init(os.Stderr, cliArgs.LogLevel, cliArgs.JSONLogs)

	os.Exit(run(context.Background(), cliArgs, os.Stdout, log))
}

// run measures every file and writes one JSON reading per line to out.
// It returns the process exit code.
func run(ctx context.Context, cli *CLI, out io.Writer, log zerolog.Logger) int {
	meter, err := newMeter(cli, log)
	if err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		return 2
	}

	loc, err := noiselevel.ParseLocation(cli.Lat, cli.Lon)
	if err != nil {
		log.Error().Err(err).Msg("invalid location")
		return 2
	}

	enc := json.NewEncoder(out)
	failed := 0

	for _, path := range cli.Files {
		fileCtx, cancel := context.WithTimeout(ctx, cli.Timeout)
		reading, err := meter.Measure(fileCtx, path, loc)
		cancel()

		if err != nil {
			failed++
			log.Error().Err(err).Str("file", path).Str("kind", failureKind(err)).Msg("measurement failed")
		} else {
			log.Info().Str("file", path).Float64("db", *reading.DB).Msg("measured")
		}

		if err := enc.Encode(reading); err != nil {
			log.Error().Err(err).Msg("writing reading")
			return 1
		}
	}

	if failed > 0 {
		log.Warn().Int("failed", failed).Int("total", len(cli.Files)).Msg("some files could not be measured")
		return 1
	}

	return 0
}

func newMeter(cli *CLI, log zerolog.Logger) (*noiselevel.Meter, error) {
	if cli.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %v", cli.Timeout)
	}
	if cli.SampleRate < 0 {
		return nil, fmt.Errorf("sample rate must not be negative, got %d", cli.SampleRate)
	}

	opts := []decoder.Option{
		decoder.WithLogger(log),
		decoder.WithSampleRate(cli.SampleRate),
	}

	if !cli.NoTranscode {
		bin, err := ffmpeg.Resolve(cli.FFmpeg)
		switch {
		case err == nil:
			log.Debug().Str("ffmpeg", bin).Msg("transcoding enabled")
			opts = append(opts, decoder.WithFFmpeg(bin, ffmpeg.WithTempDir(cli.TempDir)))
		case cli.FFmpeg != "":
			// an explicitly configured binary must exist
			return nil, err
		default:
			log.Warn().Err(err).Msg("ffmpeg not found, only native formats are supported")
		}
	}

	return noiselevel.New(
		noiselevel.WithDecoder(decoder.New(opts...)),
		noiselevel.WithEstimator(loudness.New(loudness.WithCalibrationOffset(cli.Calibration))),
		noiselevel.WithLogger(log),
	), nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case noiselevel.IsDecodeError(err):
		return "decode"
	case noiselevel.IsEstimationError(err):
		return "estimate"
	default:
		return "other"
	}
}
