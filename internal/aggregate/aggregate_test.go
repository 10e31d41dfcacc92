package aggregate

import (
	"testing"

	"github.com/ryftone/caggs/internal/stat"
	"github.com/ryftone/caggs/internal/token"
)

func TestBuildOrdersNamesAndLeaves(t *testing.T) {
	fs, err := Build([]string{"x", "y"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(fs.Names) != 2 || fs.Names[0] != "x" || fs.Names[1] != "y" {
		t.Fatalf("Names = %v", fs.Names)
	}
	if len(fs.leaves) != 2 {
		t.Fatalf("leaves = %v", fs.leaves)
	}
}

func TestNewStateClonesIndependently(t *testing.T) {
	fs, err := Build([]string{"a.b"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	s1 := fs.NewState()
	s2 := fs.NewState()

	s1.Leaves[0].Token = token.Token{Kind: token.Number, Begin: 0, End: 1}
	if s2.Leaves[0].Token.Kind != token.EOF {
		t.Fatalf("expected s2 leaf unaffected by s1 write, got %s", s2.Leaves[0].Token.Kind)
	}
	if s1.Root == fs.Root || s1.Root == s2.Root {
		t.Fatal("expected distinct cloned roots")
	}
}

func TestInlineStateSharesFieldSetTree(t *testing.T) {
	fs, err := Build([]string{"x"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	s := fs.InlineState()
	if s.Root != fs.Root {
		t.Fatal("expected inline state to share the FieldSet's own tree")
	}
}

func TestResetLeavesSetsEOF(t *testing.T) {
	fs, _ := Build([]string{"x"}, 1)
	s := fs.NewState()
	s.Leaves[0].Token = token.Token{Kind: token.Number, Begin: 0, End: 1}
	s.ResetLeaves()
	if s.Leaves[0].Token.Kind != token.EOF {
		t.Fatalf("expected EOF after reset, got %s", s.Leaves[0].Token.Kind)
	}
}

func TestMergeIntoAccumulates(t *testing.T) {
	fs, err := Build([]string{"x"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	dst := make([]stat.Stat, 1)

	w1 := fs.NewState()
	w1.Stats[0].Add(2)
	w1.Stats[0].Add(4)
	w1.MergeInto(dst)

	w2 := fs.NewState()
	w2.Stats[0].Add(6)
	w2.MergeInto(dst)

	if dst[0].Count != 3 || dst[0].Sum != 12 {
		t.Fatalf("merged = %+v, want count=3 sum=12", dst[0])
	}
}

func TestResultsEmptyAndNonEmpty(t *testing.T) {
	fs, err := Build([]string{"x"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	s := fs.InlineState()
	results := Results(s.Stats)
	if results[0].Count != 0 || results[0].Avg != nil {
		t.Fatalf("expected empty result, got %+v", results[0])
	}

	s.Stats[0].Add(3)
	s.Stats[0].Add(5)
	results = Results(s.Stats)
	if results[0].Count != 2 || *results[0].Avg != 4 {
		t.Fatalf("expected avg 4 count 2, got %+v", results[0])
	}
}
