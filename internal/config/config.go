// Package config holds the resolved settings for one aggregation run
// and the size-suffix parser shared by the CLI's byte-count flags.
package config

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	MinChunkSize  = 1 << 20    // 1 MiB
	DefaultChunk  = 64 << 20   // 64 MiB
	MinMaxRecords = 1000
	DefaultMaxRec = 16 << 20 // 16 Mi
	DefaultConc   = 8
	MaxConc       = 64
)

// Config is the fully-resolved input to the core pipeline.
type Config struct {
	IndexPath string
	DataPath  string
	Fields    []string // ordered, ≥1

	HeaderLen int64
	DelimLen  int64
	FooterLen int64

	IndexChunkSize int64 // ≥ MinChunkSize
	DataChunkSize  int64 // ≥ MinChunkSize
	MaxRecords     int   // ≥ MinMaxRecords

	Concurrency int // 0..MaxConc; 0 = inline single-threaded
}

// Default returns a Config with every size/count field at its spec
// default; callers still must set IndexPath, DataPath and Fields.
func Default() Config {
	return Config{
		IndexChunkSize: DefaultChunk,
		DataChunkSize:  DefaultChunk,
		MaxRecords:     DefaultMaxRec,
		Concurrency:    DefaultConc,
	}
}

// Validate checks the invariants a Config must satisfy before use.
func (c Config) Validate() error {
	if c.IndexPath == "" {
		return fmt.Errorf("config: index path is required")
	}
	if c.DataPath == "" {
		return fmt.Errorf("config: data path is required")
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("config: at least one field is required")
	}
	if c.HeaderLen < 0 || c.DelimLen < 0 || c.FooterLen < 0 {
		return fmt.Errorf("config: header/delim/footer lengths must be non-negative")
	}
	if c.IndexChunkSize < MinChunkSize {
		return fmt.Errorf("config: index-chunk must be at least 1MiB, got %d", c.IndexChunkSize)
	}
	if c.DataChunkSize < MinChunkSize {
		return fmt.Errorf("config: data-chunk must be at least 1MiB, got %d", c.DataChunkSize)
	}
	if c.MaxRecords < MinMaxRecords {
		return fmt.Errorf("config: max-records must be at least 1000, got %d", c.MaxRecords)
	}
	if c.Concurrency < 0 || c.Concurrency > MaxConc {
		return fmt.Errorf("config: concurrency must be 0..64, got %d", c.Concurrency)
	}
	return nil
}

// ParseSize parses a decimal integer with an optional case-insensitive
// suffix B|K|KB|M|MB|G|GB (1024-based) into a byte count.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("config: empty size value")
	}

	upper := strings.ToUpper(s)
	mult := int64(1)
	numEnd := len(s)

	switch {
	case strings.HasSuffix(upper, "KB"):
		mult, numEnd = 1<<10, len(s)-2
	case strings.HasSuffix(upper, "MB"):
		mult, numEnd = 1<<20, len(s)-2
	case strings.HasSuffix(upper, "GB"):
		mult, numEnd = 1<<30, len(s)-2
	case strings.HasSuffix(upper, "K"):
		mult, numEnd = 1<<10, len(s)-1
	case strings.HasSuffix(upper, "M"):
		mult, numEnd = 1<<20, len(s)-1
	case strings.HasSuffix(upper, "G"):
		mult, numEnd = 1<<30, len(s)-1
	case strings.HasSuffix(upper, "B"):
		mult, numEnd = 1, len(s)-1
	}

	n, err := strconv.ParseInt(strings.TrimSpace(s[:numEnd]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("config: invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("config: size %q must not be negative", s)
	}
	return n * mult, nil
}
