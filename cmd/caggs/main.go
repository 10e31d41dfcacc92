// Command caggs streams a paired INDEX/DATA file, extracts one or more
// JSON field paths from every record, and emits running aggregates
// (count/sum/min/max/avg) per field.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/ryftone/caggs/internal/aggregate"
	"github.com/ryftone/caggs/internal/caggserr"
	"github.com/ryftone/caggs/internal/cidx"
	"github.com/ryftone/caggs/internal/cliapp"
	"github.com/ryftone/caggs/internal/logging"
	"github.com/ryftone/caggs/internal/pipeline"
	"github.com/ryftone/caggs/internal/stat"
)

// Version is the caggs release string reported by --version.
const Version = "1.0.0"

func main() {
	app := &cli.App{
		Name:    "caggs",
		Usage:   "aggregate a JSON field across a chunked INDEX/DATA pair",
		Version: Version,
		Flags:   cliapp.Flags(),
		Action:  run,
	}

	if err := app.Run(os.Args); err != nil {
		// Cancellation is a clean stop, not a failure: no output and
		// exit 0, so the error is swallowed here rather than printed.
		if !caggserr.IsCancellation(err) {
			fmt.Fprintf(os.Stderr, "caggs: %v\n", err)
		}
		os.Exit(caggserr.ExitCode(err))
	}
}

func run(c *cli.Context) error {
	parsed, err := cliapp.Parse(c)
	if err != nil {
		return caggserr.Wrap(caggserr.ConfigError, err)
	}
	cfg := parsed.Config

	level := logging.LevelFromCount(parsed.Verbosity)
	if parsed.Quiet {
		level = logging.Error
	}
	log := logging.Default(level)

	if parsed.CompressedIndex {
		plainIndex, cleanup, err := decompressIndex(cfg.IndexPath)
		if err != nil {
			return caggserr.Wrap(caggserr.IoError, err)
		}
		defer cleanup()
		cfg.IndexPath = plainIndex
	}

	if err := cfg.Validate(); err != nil {
		return caggserr.Wrap(caggserr.ConfigError, err)
	}
	log.Debugf("caggs: resolved config: %+v", cfg)

	fs, err := aggregate.Build(cfg.Fields, 1)
	if err != nil {
		return caggserr.Wrap(caggserr.ConfigError, err)
	}

	stop := &atomic.Bool{}
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		if _, ok := <-sigs; ok {
			log.Warnf("caggs: received shutdown signal, finishing in-flight batch")
			stop.Store(true)
		}
	}()

	stats, err := pipeline.Run(cfg, fs, stop, log)
	if err != nil {
		return err
	}

	return emit(fs.Names, stats)
}

// decompressIndex materializes path's LZ4 container to a plain temp
// file the core pipeline can mmap, returning its path and a cleanup
// func that removes it.
func decompressIndex(path string) (string, func(), error) {
	src, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("opening compressed index: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "caggs-index-*.txt")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp index: %w", err)
	}
	cleanup := func() { os.Remove(dst.Name()) }

	if err := cidx.Decompress(src, dst); err != nil {
		dst.Close()
		cleanup()
		return "", nil, fmt.Errorf("decompressing index: %w", err)
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("closing temp index: %w", err)
	}
	return dst.Name(), cleanup, nil
}

// emit writes the configured fields' final aggregates to stdout: a
// bare object for a single field, a JSON array (one object per field,
// in input order) when more than one field is configured.
func emit(names []string, stats []stat.Stat) error {
	results := aggregate.Results(stats)
	enc := json.NewEncoder(os.Stdout)
	if len(names) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}
