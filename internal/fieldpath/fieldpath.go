// Package fieldpath implements the field-selector tree: parsing a
// dotted/indexed path into a chain of selectors, merging multiple
// chains into one forest (shared prefix becomes children, divergence
// becomes siblings), and cloning independent copies for each worker.
package fieldpath

import (
	"fmt"
	"strconv"

	"github.com/ryftone/caggs/internal/token"
)

// MaxNameLen is the stored buffer size for a by-name selector.
const MaxNameLen = 63

// Node is one selector in a field tree. A node owns its first child
// and its next sibling; there are no back-edges.
type Node struct {
	ByName  string // valid iff ByIndex < 0
	ByIndex int32  // -1 means by-name

	Token token.Token // matched leaf token; EOF until extraction writes it

	Children *Node
	Siblings *Node
}

// IsByIndex reports whether n selects by array index.
func (n *Node) IsByIndex() bool {
	return n.ByIndex >= 0
}

func newNameNode(name string) *Node {
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	return &Node{ByName: name, ByIndex: -1, Token: token.Token{Kind: token.EOF}}
}

func newIndexNode(idx int32) *Node {
	return &Node{ByIndex: idx, Token: token.Token{Kind: token.EOF}}
}

// ParsePath parses one dotted/indexed path into a chain of Nodes
// (one child per component). base is the configured 1-based-ness of
// `[N]` indices (default 1): the stored index is N-base.
//
// Grammar: components separated by '.'; leading, trailing, and
// repeated '.' are ignored. A component is a bare identifier up to
// MaxNameLen bytes, a quoted name `"…"` (where `\x` passes the
// following byte through literally), or an index `[N]`.
func ParsePath(path string, base int) (*Node, error) {
	comps, err := splitComponents(path)
	if err != nil {
		return nil, err
	}
	if len(comps) == 0 {
		return nil, fmt.Errorf("fieldpath: empty path")
	}

	var root, tail *Node
	for _, c := range comps {
		var n *Node
		if c.isIndex {
			n = newIndexNode(int32(c.index - base))
		} else {
			n = newNameNode(c.name)
		}
		if root == nil {
			root = n
		} else {
			tail.Children = n
		}
		tail = n
	}
	return root, nil
}

type component struct {
	isIndex bool
	index   int
	name    string
}

func splitComponents(path string) ([]component, error) {
	var comps []component
	i, n := 0, len(path)

	for i < n {
		if path[i] == '.' {
			i++
			continue
		}
		if path[i] == '[' {
			j := i + 1
			for j < n && path[j] != ']' {
				j++
			}
			if j >= n {
				return nil, fmt.Errorf("fieldpath: unterminated '[' in %q", path)
			}
			idx, err := strconv.Atoi(path[i+1 : j])
			if err != nil {
				return nil, fmt.Errorf("fieldpath: invalid index %q in %q", path[i+1:j], path)
			}
			comps = append(comps, component{isIndex: true, index: idx})
			i = j + 1
			continue
		}
		if path[i] == '"' {
			var name []byte
			j := i + 1
			for j < n && path[j] != '"' {
				if path[j] == '\\' && j+1 < n {
					name = append(name, path[j+1])
					j += 2
					continue
				}
				name = append(name, path[j])
				j++
			}
			if j >= n {
				return nil, fmt.Errorf("fieldpath: unterminated quote in %q", path)
			}
			comps = append(comps, component{name: string(name)})
			i = j + 1
			continue
		}
		j := i
		for j < n && path[j] != '.' {
			j++
		}
		comps = append(comps, component{name: path[i:j]})
		i = j
	}
	return comps, nil
}

// BuildForest merges independently parsed path chains into one
// forest: chains that match at a given depth (same ByName or same
// ByIndex) share one node whose Children are merged recursively;
// divergence becomes siblings at that depth. The returned leaves
// slice has one entry per input chain, in the same order, pointing at
// the tree node that terminates that chain — the node a worker reads
// after extraction to credit that configured field. Merge is
// commutative at the resulting set of leaves: BuildForest(a, b) and
// BuildForest(b, a) produce the same set of distinct nodes, just
// discovered in a different sibling order.
func BuildForest(chains []*Node) (root *Node, leaves []*Node) {
	leaves = make([]*Node, len(chains))
	for i, c := range chains {
		var leaf *Node
		root, leaf = insertChain(root, c)
		leaves[i] = leaf
	}
	return root, leaves
}

// insertChain inserts a single parsed chain (no Siblings of its own)
// into the sibling list `list`, reusing a matching node at each depth
// and cloning only the unmatched suffix. Returns the (possibly
// unchanged) list and the node the chain terminates at.
func insertChain(list *Node, chain *Node) (*Node, *Node) {
	if chain == nil {
		return list, nil
	}
	if list == nil {
		cloned := cloneNode(chain)
		return cloned, terminal(cloned)
	}

	cur := list
	for {
		if selectorEqual(cur, chain) {
			if chain.Children == nil {
				return list, cur
			}
			var leaf *Node
			cur.Children, leaf = insertChain(cur.Children, chain.Children)
			return list, leaf
		}
		if cur.Siblings == nil {
			break
		}
		cur = cur.Siblings
	}

	cloned := cloneNode(chain)
	cur.Siblings = cloned
	return list, terminal(cloned)
}

// terminal follows Children to the end of a freshly cloned chain
// (which, being cloned from a ParsePath result, has no Siblings).
func terminal(n *Node) *Node {
	for n.Children != nil {
		n = n.Children
	}
	return n
}

func selectorEqual(a, b *Node) bool {
	if a.IsByIndex() != b.IsByIndex() {
		return false
	}
	if a.IsByIndex() {
		return a.ByIndex == b.ByIndex
	}
	return a.ByName == b.ByName
}

// LookupByName finds the sibling of the list starting at head whose
// by-name selector matches name exactly, byte for byte.
func LookupByName(head *Node, name []byte) *Node {
	for n := head; n != nil; n = n.Siblings {
		if !n.IsByIndex() && string(name) == n.ByName {
			return n
		}
	}
	return nil
}

// LookupByIndex finds the sibling of the list starting at head whose
// 0-based index selector matches idx.
func LookupByIndex(head *Node, idx int32) *Node {
	for n := head; n != nil; n = n.Siblings {
		if n.IsByIndex() && n.ByIndex == idx {
			return n
		}
	}
	return nil
}

// cloneNode deep-copies a single chain node (and its Children, which
// for a ParsePath result is itself always a singleton chain). Used to
// graft an unmatched suffix into the forest during BuildForest.
func cloneNode(n *Node) *Node {
	if n == nil {
		return nil
	}
	return &Node{
		ByName:   n.ByName,
		ByIndex:  n.ByIndex,
		Token:    token.Token{Kind: token.EOF},
		Children: cloneNode(n.Children),
	}
}

// CloneTree deep-copies a whole forest (children and siblings), and
// returns the old->new node mapping built along the way so a caller
// holding pointers into the original tree (e.g. the per-field leaves
// from BuildForest) can translate them into the clone. Each worker
// clones the orchestrator's tree once at pool init so per-field Stat
// and per-record token state never cross goroutines.
func CloneTree(root *Node) (*Node, map[*Node]*Node) {
	mapping := make(map[*Node]*Node)
	var rec func(*Node) *Node
	rec = func(n *Node) *Node {
		if n == nil {
			return nil
		}
		c := &Node{ByName: n.ByName, ByIndex: n.ByIndex, Token: token.Token{Kind: token.EOF}}
		mapping[n] = c
		c.Children = rec(n.Children)
		c.Siblings = rec(n.Siblings)
		return c
	}
	newRoot := rec(root)
	return newRoot, mapping
}

// TranslateLeaves maps each node in leaves through mapping, built by a
// prior CloneTree call over the tree those leaves point into.
func TranslateLeaves(leaves []*Node, mapping map[*Node]*Node) []*Node {
	out := make([]*Node, len(leaves))
	for i, l := range leaves {
		out[i] = mapping[l]
	}
	return out
}
