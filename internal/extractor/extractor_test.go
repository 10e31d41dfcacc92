package extractor

import (
	"testing"

	"github.com/ryftone/caggs/internal/fieldpath"
	"github.com/ryftone/caggs/internal/jsonscan"
	"github.com/ryftone/caggs/internal/token"
)

func buildFields(t *testing.T, paths ...string) (*fieldpath.Node, []*fieldpath.Node) {
	t.Helper()
	chains := make([]*fieldpath.Node, len(paths))
	for i, p := range paths {
		n, err := fieldpath.ParsePath(p, 1)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", p, err)
		}
		chains[i] = n
	}
	return fieldpath.BuildForest(chains)
}

func TestExtractTopLevelField(t *testing.T) {
	root, leaves := buildFields(t, "x")
	p := jsonscan.New([]byte(`{"x": 1}`))
	if err := Get(p, root); err != nil {
		t.Fatal(err)
	}
	if leaves[0].Token.Kind != token.Number {
		t.Fatalf("token = %s, want Number", leaves[0].Token.Kind)
	}
	if string(p.Bytes(leaves[0].Token)) != "1" {
		t.Fatalf("value = %q, want 1", p.Bytes(leaves[0].Token))
	}
}

func TestExtractTwoFields(t *testing.T) {
	root, leaves := buildFields(t, "x", "y")
	p := jsonscan.New([]byte(`{"x":10,"y":20}`))
	if err := Get(p, root); err != nil {
		t.Fatal(err)
	}
	if string(p.Bytes(leaves[0].Token)) != "10" {
		t.Fatalf("x = %q", p.Bytes(leaves[0].Token))
	}
	if string(p.Bytes(leaves[1].Token)) != "20" {
		t.Fatalf("y = %q", p.Bytes(leaves[1].Token))
	}
}

func TestExtractNestedField(t *testing.T) {
	root, leaves := buildFields(t, "a.b")
	p := jsonscan.New([]byte(`{"a":{"b":7}}`))
	if err := Get(p, root); err != nil {
		t.Fatal(err)
	}
	if string(p.Bytes(leaves[0].Token)) != "7" {
		t.Fatalf("a.b = %q, want 7", p.Bytes(leaves[0].Token))
	}
}

func TestExtractArrayIndex(t *testing.T) {
	root, leaves := buildFields(t, "a.[2]")
	p := jsonscan.New([]byte(`{"a":[5,8,9]}`))
	if err := Get(p, root); err != nil {
		t.Fatal(err)
	}
	if string(p.Bytes(leaves[0].Token)) != "8" {
		t.Fatalf("a.[2] = %q, want 8", p.Bytes(leaves[0].Token))
	}
}

func TestExtractUnmatchedKeysSkipped(t *testing.T) {
	root, leaves := buildFields(t, "x")
	p := jsonscan.New([]byte(`{"noise":{"deep":[1,2,3]},"other":"ignored","x":42}`))
	if err := Get(p, root); err != nil {
		t.Fatal(err)
	}
	if string(p.Bytes(leaves[0].Token)) != "42" {
		t.Fatalf("x = %q, want 42", p.Bytes(leaves[0].Token))
	}
}

func TestExtractMalformedRecordErrors(t *testing.T) {
	root, _ := buildFields(t, "x")
	p := jsonscan.New([]byte(`{"x":`))
	if err := Get(p, root); err == nil {
		t.Fatal("expected error for truncated record")
	}
}

func TestExtractMatchedObjectWithoutChildrenRecordsSpan(t *testing.T) {
	root, leaves := buildFields(t, "a")
	p := jsonscan.New([]byte(`{"a":{"b":1,"c":2}}`))
	if err := Get(p, root); err != nil {
		t.Fatal(err)
	}
	if leaves[0].Token.Kind != token.Object {
		t.Fatalf("kind = %s, want Object", leaves[0].Token.Kind)
	}
	if string(p.Bytes(leaves[0].Token)) != `{"b":1,"c":2}` {
		t.Fatalf("span = %q", p.Bytes(leaves[0].Token))
	}
}

func TestExtractSharedPrefixBothFields(t *testing.T) {
	root, leaves := buildFields(t, "a", "a.b")
	p := jsonscan.New([]byte(`{"a":{"b":9}}`))
	if err := Get(p, root); err != nil {
		t.Fatal(err)
	}
	if leaves[0].Token.Kind != token.Object {
		t.Fatalf("'a' kind = %s, want Object", leaves[0].Token.Kind)
	}
	if string(p.Bytes(leaves[1].Token)) != "9" {
		t.Fatalf("'a.b' = %q, want 9", p.Bytes(leaves[1].Token))
	}
}
