package chunker

import (
	"strings"

	"github.com/dgallion1/lexchunk/internal/doctree"
)

// ExtractPaths emits one path-chunk per leaf of doc's tree, in reading
// order. Each path starts with the document title and ends with the leaf.
func ExtractPaths(doc *doctree.Document, counter TokenCounter, model string) []doctree.PathChunk {
	tree := doc.Tree
	if tree == nil || tree.Empty() {
		return nil
	}

	var paths []doctree.PathChunk
	prefix := []string{EnsurePunctuation(doc.Title)}

	var visit func(idx int)
	visit = func(idx int) {
		prefix = append(prefix, EnsurePunctuation(tree.Nodes[idx].Content))
		if tree.IsLeaf(idx) {
			lines := append([]string(nil), prefix...)
			paths = append(paths, doctree.PathChunk{
				Lines:      lines,
				TokenCount: counter.Count(strings.Join(lines, " "), model),
			})
		}
		for _, c := range tree.Nodes[idx].Children {
			visit(c)
		}
		prefix = prefix[:len(prefix)-1]
	}
	for _, c := range tree.Nodes[doctree.Root].Children {
		visit(c)
	}
	return paths
}
