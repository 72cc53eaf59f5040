package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/compresr/omni-transform/internal/canonical"
	"github.com/compresr/omni-transform/internal/config"
	"github.com/compresr/omni-transform/internal/engine"
	"github.com/compresr/omni-transform/internal/monitoring"
)

const sourceCLI = "cli"

// runTransformCommand reads one envelope and writes one result document.
// The exit status is non-zero only when no document could be written.
func runTransformCommand(args []string) int {
	loadEnvFiles()
	return runTransform(args, os.Stdin, os.Stdout)
}

// runTransform is runTransformCommand with its streams injected. Flag, config
// and init failures still produce a failure document on stdout.
func runTransform(args []string, stdin io.Reader, stdout io.Writer) int {
	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	configPath := fs.String("config", "", "path to config file")
	inputPath := fs.String("input", "", "read the envelope from this file instead of stdin")
	compact := fs.Bool("compact", false, "write single-line JSON")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		setupLogging(defaultMonitoring(), *debug, true)
		return startupFailure(stdout, "flags", err, *compact)
	}

	cfg, source, err := loadConfig(*configPath, (*config.Config).ValidateTransform)
	if err != nil {
		setupLogging(defaultMonitoring(), *debug, true)
		log.Error().Err(err).Str("config", source).Msg("failed to load configuration")
		return startupFailure(stdout, "config", err, *compact)
	}
	setupLogging(cfg.Monitoring, *debug, true)

	a, err := newApp(cfg)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize")
		return startupFailure(stdout, "init", err, *compact)
	}
	defer a.Close()

	in := stdin
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			in = failingReader{err: err}
		} else {
			defer f.Close()
			in = f
		}
	} else if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		log.Info().Msg("reading canonical envelope from terminal, end input with Ctrl-D")
	}

	if err := a.transformStream(context.Background(), in, stdout, *compact); err != nil {
		log.Error().Err(err).Msg("failed to write result")
		return 1
	}
	return 0
}

// startupFailure writes the failure document for a transform that never ran.
func startupFailure(out io.Writer, stage string, cause error, compact bool) int {
	if err := writeResult(out, engine.StartupFailure(stage, cause), compact); err != nil {
		log.Error().Err(err).Msg("failed to write result")
		return 1
	}
	return 0
}

// transformStream turns the document read from in into a result written to
// out. Read and decode failures become failure results, never errors; the
// returned error is only about writing out.
func (a *app) transformStream(ctx context.Context, in io.Reader, out io.Writer, compact bool) error {
	ctx = monitoring.WithRequestIDContext(ctx, uuid.New().String())

	var res *engine.Result
	data, err := io.ReadAll(in)
	if err != nil {
		res = engine.ReadFailure(err)
		a.observer.RecordRejected(ctx, sourceCLI, res)
	} else if env, decodeErr := canonical.DecodeEnvelope(data); decodeErr != nil {
		res = engine.DecodeFailure(decodeErr)
		a.observer.RecordRejected(ctx, sourceCLI, res)
	} else {
		res = a.observer.Run(ctx, sourceCLI, env, a.engine.Transform)
	}

	return writeResult(out, res, compact)
}

// writeResult serializes res followed by a newline.
func writeResult(out io.Writer, res *engine.Result, compact bool) error {
	var (
		data []byte
		err  error
	)
	if compact {
		data, err = json.Marshal(res)
	} else {
		data, err = json.MarshalIndent(res, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to serialize result: %w", err)
	}
	data = append(data, '\n')
	_, err = out.Write(data)
	return err
}

// failingReader surfaces an open error through the normal read path, so a
// missing --input file yields a read-failure document like any other.
type failingReader struct {
	err error
}

func (r failingReader) Read([]byte) (int, error) { return 0, r.err }
