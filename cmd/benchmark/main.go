// Command benchmark generates a synthetic INDEX/DATA pair and times
// pipeline.Run against it.
package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/ryftone/caggs/internal/aggregate"
	"github.com/ryftone/caggs/internal/config"
	"github.com/ryftone/caggs/internal/logging"
	"github.com/ryftone/caggs/internal/pipeline"
)

// recordDelim separates consecutive records in the DATA file; its
// length is what the CLI's --delim flag would carry.
const recordDelim = "\n"

func main() {
	sizeMB := 500
	if len(os.Args) > 1 {
		if n, err := strconv.Atoi(os.Args[1]); err == nil && n > 0 {
			sizeMB = n
		}
	}

	fmt.Printf("Generating ~%d MB of synthetic records...\n", sizeMB)
	tmpDir, err := os.MkdirTemp("", "caggs_bench")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	dataPath := filepath.Join(tmpDir, "bench.data")
	indexPath := filepath.Join(tmpDir, "bench.index")
	rows, dataBytes, err := generate(dataPath, indexPath, int64(sizeMB)<<20)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Generated %d rows (%.2f MB)\n", rows, float64(dataBytes)/(1<<20))

	cfg := config.Default()
	cfg.IndexPath = indexPath
	cfg.DataPath = dataPath
	cfg.Fields = []string{"value", "nested.amount"}
	cfg.DelimLen = int64(len(recordDelim))
	cfg.Concurrency = 8

	fs, err := aggregate.Build(cfg.Fields, 1)
	if err != nil {
		panic(err)
	}
	log := logging.Default(logging.Warn)
	stop := &atomic.Bool{}

	fmt.Println("Starting aggregation...")
	start := time.Now()
	stats, err := pipeline.Run(cfg, fs, stop, log)
	if err != nil {
		panic(err)
	}
	elapsed := time.Since(start)

	mbPerSec := float64(dataBytes) / (1 << 20) / elapsed.Seconds()
	fmt.Printf("\n--------------------------------------------------\n")
	fmt.Printf("Throughput: %.2f MB/s\n", mbPerSec)
	fmt.Printf("Time:       %v\n", elapsed)
	for i, name := range fs.Names {
		r := stats[i].ToResult()
		fmt.Printf("%-16s count=%d sum=%v\n", name, r.Count, r.Sum)
	}
	fmt.Printf("--------------------------------------------------\n")
}

// generate writes a DATA file of newline-delimited JSON records and
// the matching INDEX file ("file,offset,length,fuzziness" per line,
// only length consumed) until at least minBytes of DATA has been
// written, returning the row count and final DATA size.
func generate(dataPath, indexPath string, minBytes int64) (int, int64, error) {
	df, err := os.Create(dataPath)
	if err != nil {
		return 0, 0, err
	}
	defer df.Close()
	xf, err := os.Create(indexPath)
	if err != nil {
		return 0, 0, err
	}
	defer xf.Close()

	dw := bufio.NewWriterSize(df, 1<<20)
	xw := bufio.NewWriterSize(xf, 1<<20)

	rng := rand.New(rand.NewSource(42))
	var rows int
	var written int64
	buf := make([]byte, 0, 256)

	for written < minBytes {
		rows++
		buf = buf[:0]
		buf = fmt.Appendf(buf, `{"id":%d,"code":"US-%d","value":%d,"nested":{"amount":%.3f},"tags":["a","b"]}`,
			rows, rng.Intn(1000), rng.Intn(10000), rng.Float64()*1000)
		n, err := dw.Write(buf)
		if err != nil {
			return rows, written, err
		}
		if _, err := dw.WriteString(recordDelim); err != nil {
			return rows, written, err
		}
		fmt.Fprintf(xw, "bench.data,%d,%d,0\n", written, n)
		written += int64(n) + int64(len(recordDelim))
	}

	if err := dw.Flush(); err != nil {
		return rows, written, err
	}
	return rows, written, xw.Flush()
}
