// Package mmapio maps page-aligned windows of a file into memory and
// advises the kernel they will be read sequentially. Both the INDEX
// and DATA files use the same Window shape; callers map a window,
// consume its bytes, then Close it before mapping the next.
package mmapio

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// PageSize is the host's mmap page size, queried once at init.
var PageSize = os.Getpagesize()

// AlignDown rounds off down to the nearest multiple of PageSize.
func AlignDown(off int64) int64 {
	return off - off%int64(PageSize)
}

// Window is a page-aligned mmap region: Bytes[Pad:] is the
// caller-requested range, Bytes[:Pad] is the alignment padding needed
// to satisfy mmap's page-offset requirement.
type Window struct {
	Bytes []byte
	Pad   int
}

// Map maps the byte range [base, base+length) of f, rounding base down
// to a page boundary and padding length to cover the full request. It
// advises the kernel the mapping will be read sequentially, matching
// the producer's one-pass consumption pattern.
func Map(f *os.File, base int64, length int64) (*Window, error) {
	if length <= 0 {
		return &Window{}, nil
	}
	align := base % int64(PageSize)
	mapBase := base - align
	mapLen := length + align

	data, err := unix.Mmap(int(f.Fd()), mapBase, int(mapLen), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmapio: mmap at offset %d length %d: %w", mapBase, mapLen, err)
	}
	if err := unix.Madvise(data, unix.MADV_SEQUENTIAL); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("mmapio: madvise: %w", err)
	}
	return &Window{Bytes: data, Pad: int(align)}, nil
}

// View returns the caller-visible slice, excluding alignment padding.
func (w *Window) View() []byte {
	if w == nil || w.Bytes == nil {
		return nil
	}
	return w.Bytes[w.Pad:]
}

// Close unmaps the window. Safe to call on a nil or already-empty
// Window.
func (w *Window) Close() error {
	if w == nil || w.Bytes == nil {
		return nil
	}
	b := w.Bytes
	w.Bytes = nil
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("mmapio: munmap: %w", err)
	}
	return nil
}
