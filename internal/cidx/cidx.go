// Package cidx implements an optional LZ4-compressed container for
// INDEX files (the CLI's -c/--compressed-index supplement). caggs
// never seeks into the INDEX — it only streams it once, in order —
// so a sparse block-metadata footer for binary-searching by key has
// no job to do here; what's kept is the magic-prefixed LZ4 framing,
// holding one continuous compressed stream of the underlying text.
package cidx

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Magic identifies a caggs compressed-index file, written once at the
// start of the stream.
const Magic = "CCIX"

// Writer compresses everything written to it into an LZ4 stream
// prefixed by Magic.
type Writer struct {
	w  io.Writer
	lz *lz4.Writer
}

// NewWriter writes Magic to w and returns a Writer whose Write calls
// feed an LZ4 stream following it.
func NewWriter(w io.Writer) (*Writer, error) {
	if _, err := w.Write([]byte(Magic)); err != nil {
		return nil, fmt.Errorf("cidx: writing magic: %w", err)
	}
	lz := lz4.NewWriter(w)
	if err := lz.Apply(lz4.BlockSizeOption(lz4.Block64Kb)); err != nil {
		return nil, fmt.Errorf("cidx: configuring lz4 writer: %w", err)
	}
	return &Writer{w: w, lz: lz}, nil
}

func (cw *Writer) Write(p []byte) (int, error) {
	return cw.lz.Write(p)
}

// Close flushes the LZ4 stream. It does not close the underlying w.
func (cw *Writer) Close() error {
	return cw.lz.Close()
}

// Reader decompresses an LZ4 stream written by Writer.
type Reader struct {
	lz *lz4.Reader
}

// NewReader validates r's Magic prefix and returns a Reader over the
// LZ4 stream that follows.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("cidx: reading magic: %w", err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("cidx: bad magic %q, want %q", magic, Magic)
	}
	return &Reader{lz: lz4.NewReader(br)}, nil
}

func (cr *Reader) Read(p []byte) (int, error) {
	return cr.lz.Read(p)
}

// Decompress copies the decompressed INDEX text from r (a compressed
// container validated by NewReader) to w, for materializing a plain
// INDEX file the core pipeline can mmap directly.
func Decompress(r io.Reader, w io.Writer) error {
	cr, err := NewReader(r)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, cr)
	return err
}

// Compress copies r's raw INDEX text into w as a Magic-prefixed LZ4
// stream.
func Compress(r io.Reader, w io.Writer) error {
	cw, err := NewWriter(w)
	if err != nil {
		return err
	}
	if _, err := io.Copy(cw, r); err != nil {
		return err
	}
	return cw.Close()
}
