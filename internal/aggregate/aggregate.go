// Package aggregate ties together the field tree (internal/fieldpath)
// and running statistics (internal/stat) into the per-run and
// per-worker state the pipeline hands off at batch boundaries.
package aggregate

import (
	"github.com/ryftone/caggs/internal/fieldpath"
	"github.com/ryftone/caggs/internal/stat"
	"github.com/ryftone/caggs/internal/token"
)

// FieldSet is the immutable, orchestrator-owned merged field tree for
// one run plus the ordered list of configured field names. Workers
// never touch FieldSet directly; they clone a State from it.
type FieldSet struct {
	Names []string
	Root  *fieldpath.Node
	// leaves[i] is the node field Names[i] terminates at in Root.
	leaves []*fieldpath.Node
}

// Build parses each configured path (the CLI's -f/--field, 1-based
// array indices) and merges them into one forest.
func Build(paths []string, indexBase int) (*FieldSet, error) {
	chains := make([]*fieldpath.Node, len(paths))
	for i, p := range paths {
		n, err := fieldpath.ParsePath(p, indexBase)
		if err != nil {
			return nil, err
		}
		chains[i] = n
	}
	root, leaves := fieldpath.BuildForest(chains)
	return &FieldSet{Names: append([]string(nil), paths...), Root: root, leaves: leaves}, nil
}

// State is one worker's (or, for concurrency=0, the orchestrator's
// own) field tree clone plus its per-field running statistics, in the
// same order as FieldSet.Names.
type State struct {
	Root   *fieldpath.Node
	Leaves []*fieldpath.Node
	Stats  []stat.Stat
}

// NewState clones fs's tree (so leaf tokens and pool membership never
// cross goroutines) and allocates a fresh Stats slice.
func (fs *FieldSet) NewState() *State {
	clone, mapping := fieldpath.CloneTree(fs.Root)
	return &State{
		Root:   clone,
		Leaves: fieldpath.TranslateLeaves(fs.leaves, mapping),
		Stats:  make([]stat.Stat, len(fs.Names)),
	}
}

// InlineState returns a State backed directly by fs's own tree and a
// fresh Stats slice, for the concurrency=0 path where the orchestrator
// is the only worker and no clone/merge is needed.
func (fs *FieldSet) InlineState() *State {
	return &State{
		Root:   fs.Root,
		Leaves: fs.leaves,
		Stats:  make([]stat.Stat, len(fs.Names)),
	}
}

// ResetLeaves clears every leaf's token to EOF, isolating one record
// from the next.
func (s *State) ResetLeaves() {
	for _, l := range s.Leaves {
		l.Token = token.Token{Kind: token.EOF}
	}
}

// ResetStats zeroes every per-field Stat, once per worker before each
// batch dispatch.
func (s *State) ResetStats() {
	for i := range s.Stats {
		s.Stats[i].Init()
	}
}

// MergeInto folds each of s's per-field Stats into dst's corresponding
// entry, in field order.
func (s *State) MergeInto(dst []stat.Stat) {
	for i := range s.Stats {
		dst[i].Merge(&s.Stats[i])
	}
}

// Results converts a final per-field Stats slice into its output
// shape, in configured field order.
func Results(stats []stat.Stat) []stat.Result {
	out := make([]stat.Result, len(stats))
	for i := range stats {
		out[i] = stats[i].ToResult()
	}
	return out
}
