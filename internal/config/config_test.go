package config

import "testing"

func TestParseSizeSuffixes(t *testing.T) {
	cases := map[string]int64{
		"0":     0,
		"512":   512,
		"1B":    1,
		"64M":   64 << 20,
		"64MB":  64 << 20,
		"1k":    1 << 10,
		"1kb":   1 << 10,
		"2G":    2 << 30,
		"2GB":   2 << 30,
		"  16M": 16 << 20,
	}
	for in, want := range cases {
		got, err := ParseSize(in)
		if err != nil {
			t.Fatalf("ParseSize(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSize(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseSizeRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "-5", "5XB"} {
		if _, err := ParseSize(in); err == nil {
			t.Fatalf("ParseSize(%q): expected error", in)
		}
	}
}

func TestValidateRequiresFields(t *testing.T) {
	c := Default()
	c.IndexPath = "i"
	c.DataPath = "d"
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for missing fields")
	}
	c.Fields = []string{"x"}
	if err := c.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateEnforcesMinimums(t *testing.T) {
	c := Default()
	c.IndexPath, c.DataPath, c.Fields = "i", "d", []string{"x"}
	c.IndexChunkSize = 100
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for undersized index chunk")
	}
	c.IndexChunkSize = DefaultChunk
	c.MaxRecords = 1
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for undersized max records")
	}
	c.MaxRecords = DefaultMaxRec
	c.Concurrency = 65
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for concurrency out of range")
	}
}
