package cidx

import (
	"bytes"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	original := []byte("f,0,9,0\nf,10,9,0\nf,20,12,0\n")

	var compressed bytes.Buffer
	if err := Compress(bytes.NewReader(original), &compressed); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := Decompress(bytes.NewReader(compressed.Bytes()), &out); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(out.Bytes(), original) {
		t.Fatalf("round trip = %q, want %q", out.Bytes(), original)
	}
}

func TestNewReaderRejectsBadMagic(t *testing.T) {
	if _, err := NewReader(bytes.NewReader([]byte("NOPE...."))); err == nil {
		t.Fatal("expected error for bad magic")
	}
}
