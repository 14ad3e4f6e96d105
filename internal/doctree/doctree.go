package doctree

import "time"

// Kind names the structural division a heading line opens.
type Kind string

const (
	KindRoot        Kind = "root"
	KindPart        Kind = "part"
	KindChapter     Kind = "chapter"
	KindSection     Kind = "section"
	KindSubsection  Kind = "subsection"
	KindArticle     Kind = "article"
	KindClause      Kind = "clause"
	KindSubclause   Kind = "subclause"
	KindUpperLetter Kind = "upper_letter"
	KindUpperRoman  Kind = "upper_roman"
	KindNumber      Kind = "number"
	KindLowerLetter Kind = "lower_letter"
	KindLowerRoman  Kind = "lower_roman"
)

// RootLevel is the level of the synthetic document root.
const RootLevel = -1

// Root is the arena index of the synthetic root node.
const Root = 0

// Node is a single heading and the body text accumulated under it.
type Node struct {
	Level    int
	Kind     Kind
	Content  string
	Children []int // arena indices, document order
}

// Tree stores nodes in an arena. Index 0 is always the synthetic root.
type Tree struct {
	Nodes []Node
}

// NewTree returns a tree holding only the synthetic root.
func NewTree() *Tree {
	return &Tree{Nodes: []Node{{Level: RootLevel, Kind: KindRoot}}}
}

// Add appends a node as the last child of parent and returns its index.
func (t *Tree) Add(parent int, n Node) int {
	idx := len(t.Nodes)
	t.Nodes = append(t.Nodes, n)
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, idx)
	return idx
}

// Node returns a pointer to the node at idx.
func (t *Tree) Node(idx int) *Node {
	return &t.Nodes[idx]
}

// IsLeaf reports whether the node at idx has no children.
func (t *Tree) IsLeaf(idx int) bool {
	return len(t.Nodes[idx].Children) == 0
}

// Empty reports whether no heading was ever attached.
func (t *Tree) Empty() bool {
	return len(t.Nodes[Root].Children) == 0
}

// Len returns the number of non-root nodes.
func (t *Tree) Len() int {
	return len(t.Nodes) - 1
}

// Walk visits every node in pre-order, left to right, starting at the root.
// depth is 0 for the root.
func (t *Tree) Walk(fn func(idx, depth int)) {
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		fn(idx, depth)
		for _, c := range t.Nodes[idx].Children {
			visit(c, depth+1)
		}
	}
	visit(Root, 0)
}

// UnknownTitle is used when no document-type keyword is found in the header.
const UnknownTitle = "Không xác định"

// Document is one parsed source: its tree plus the metadata gathered while building it.
type Document struct {
	Source      string   // Source identifier (usually the file path)
	Title       string   // Detected title or UnknownTitle
	HasAppendix bool     // True when trailing appendix lines were discarded
	Unassigned  []string // Body lines seen before any heading; not chunked
	Tree        *Tree
	ParsedAt    time.Time
}

// PathChunk is the root-to-leaf content sequence for one leaf.
type PathChunk struct {
	Lines      []string
	TokenCount int
}

// FinalChunk is a merged, token-budgeted chunk ready for persistence.
type FinalChunk struct {
	Source     string   `json:"source_file"`
	URL        string   `json:"url"`
	TokenCount int      `json:"token_length"`
	Content    string   `json:"chunk_content"`
	Lines      []string `json:"-"` // pre-join lines, used for coverage checks
}
