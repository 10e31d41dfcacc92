package mmapio

import (
	"os"
	"testing"
)

func tempFile(t *testing.T, content []byte) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "mmapio")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write(content); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestMapReadsExpectedRange(t *testing.T) {
	content := []byte("0123456789abcdefghij")
	f := tempFile(t, content)

	w, err := Map(f, 5, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if got := string(w.View()); got != "56789abcde" {
		t.Fatalf("View() = %q, want %q", got, "56789abcde")
	}
}

func TestMapAlignsToPageBoundary(t *testing.T) {
	content := make([]byte, PageSize+100)
	for i := range content {
		content[i] = byte(i)
	}
	f := tempFile(t, content)

	base := int64(PageSize + 10)
	w, err := Map(f, base, 20)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if w.Pad != 10 {
		t.Fatalf("Pad = %d, want 10", w.Pad)
	}
	if len(w.View()) != 20 {
		t.Fatalf("len(View()) = %d, want 20", len(w.View()))
	}
	if w.View()[0] != content[base] {
		t.Fatalf("View()[0] = %d, want %d", w.View()[0], content[base])
	}
}

func TestMapZeroLength(t *testing.T) {
	f := tempFile(t, []byte("data"))
	w, err := Map(f, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if w.View() != nil {
		t.Fatalf("expected nil view for zero-length map")
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCloseNilWindowIsNoOp(t *testing.T) {
	var w *Window
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestAlignDown(t *testing.T) {
	if got := AlignDown(int64(PageSize) + 5); got != int64(PageSize) {
		t.Fatalf("AlignDown = %d, want %d", got, PageSize)
	}
	if got := AlignDown(3); got != 0 {
		t.Fatalf("AlignDown(3) = %d, want 0", got)
	}
}
