// Package cliapp defines the urfave/cli/v2 flag surface, in the
// flag-table style of a typical cli/v2 command package: flags
// declared once, parsed into a config.Config.
package cliapp

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/ryftone/caggs/internal/config"
)

var (
	indexFlag = &cli.StringFlag{
		Name:     "index",
		Aliases:  []string{"i"},
		Usage:    "path to the INDEX file",
		Required: true,
	}
	dataFlag = &cli.StringFlag{
		Name:     "data",
		Aliases:  []string{"d"},
		Usage:    "path to the DATA file",
		Required: true,
	}
	fieldFlag = &cli.StringSliceFlag{
		Name:    "field",
		Aliases: []string{"f"},
		Usage:   "dotted/indexed field path to aggregate (repeatable, at least one required)",
	}
	headerFlag = &cli.StringFlag{
		Name:    "header",
		Aliases: []string{"H"},
		Usage:   "DATA file header length (accepts B|K|KB|M|MB|G|GB suffix)",
		Value:   "0",
	}
	delimFlag = &cli.StringFlag{
		Name:    "delim",
		Aliases: []string{"D"},
		Usage:   "inter-record delimiter length (accepts size suffix)",
		Value:   "0",
	}
	footerFlag = &cli.StringFlag{
		Name:    "footer",
		Aliases: []string{"F"},
		Usage:   "DATA file footer length (accepts size suffix)",
		Value:   "0",
	}
	indexChunkFlag = &cli.StringFlag{
		Name:    "index-chunk",
		Aliases: []string{"b"},
		Usage:   "INDEX mmap window budget, minimum 1MiB (accepts size suffix)",
		Value:   "64MB",
	}
	dataChunkFlag = &cli.StringFlag{
		Name:    "data-chunk",
		Aliases: []string{"B"},
		Usage:   "DATA mmap window budget, minimum 1MiB (accepts size suffix)",
		Value:   "64MB",
	}
	maxRecordsFlag = &cli.IntFlag{
		Name:    "max-records",
		Aliases: []string{"R"},
		Usage:   "maximum RecordRefs per batch, minimum 1000",
		Value:   16 << 20,
	}
	concurrencyFlag = &cli.IntFlag{
		Name:    "concurrency",
		Aliases: []string{"X"},
		Usage:   "worker count, 0..64 (0 = inline single-threaded)",
		Value:   config.DefaultConc,
	}
	compressedIndexFlag = &cli.BoolFlag{
		Name:    "compressed-index",
		Aliases: []string{"c"},
		Usage:   "treat --index as an LZ4-compressed container (internal/cidx) and decompress it to a temp file before aggregating",
	}
	quietFlag = &cli.BoolFlag{
		Name:    "quiet",
		Aliases: []string{"q"},
		Usage:   "suppress warnings (errors still reported)",
	}
	verboseFlag = &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "increase log verbosity (repeatable: -v, -vv)",
		Count:   new(int),
	}
)

// Flags returns the full -i/-d/-f/... flag set.
func Flags() []cli.Flag {
	return []cli.Flag{
		indexFlag, dataFlag, fieldFlag,
		headerFlag, delimFlag, footerFlag,
		indexChunkFlag, dataChunkFlag,
		maxRecordsFlag, concurrencyFlag,
		compressedIndexFlag,
		quietFlag, verboseFlag,
	}
}

// Parsed is the raw CLI input, resolved into Config plus the flags
// that don't belong in Config itself.
type Parsed struct {
	Config          config.Config
	CompressedIndex bool
	Quiet           bool
	Verbosity       int
}

// Parse reads cli.Context flag values into a Config; it does not
// validate it. Size flags are parsed with config.ParseSize; validation is
// config.Config.Validate()'s responsibility, left to the caller so it
// can be wrapped as a caggserr.ConfigError at the call site.
func Parse(c *cli.Context) (Parsed, error) {
	header, err := config.ParseSize(c.String(headerFlag.Name))
	if err != nil {
		return Parsed{}, err
	}
	delim, err := config.ParseSize(c.String(delimFlag.Name))
	if err != nil {
		return Parsed{}, err
	}
	footer, err := config.ParseSize(c.String(footerFlag.Name))
	if err != nil {
		return Parsed{}, err
	}
	idxChunk, err := config.ParseSize(c.String(indexChunkFlag.Name))
	if err != nil {
		return Parsed{}, err
	}
	dataChunk, err := config.ParseSize(c.String(dataChunkFlag.Name))
	if err != nil {
		return Parsed{}, err
	}

	fields := c.StringSlice(fieldFlag.Name)
	if len(fields) == 0 {
		return Parsed{}, fmt.Errorf("cliapp: at least one --field is required")
	}

	cfg := config.Config{
		IndexPath:      c.String(indexFlag.Name),
		DataPath:       c.String(dataFlag.Name),
		Fields:         fields,
		HeaderLen:      header,
		DelimLen:       delim,
		FooterLen:      footer,
		IndexChunkSize: idxChunk,
		DataChunkSize:  dataChunk,
		MaxRecords:     c.Int(maxRecordsFlag.Name),
		Concurrency:    c.Int(concurrencyFlag.Name),
	}

	return Parsed{
		Config:          cfg,
		CompressedIndex: c.Bool(compressedIndexFlag.Name),
		Quiet:           c.Bool(quietFlag.Name),
		Verbosity:       c.Count(verboseFlag.Name),
	}, nil
}
