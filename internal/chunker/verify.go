package chunker

import (
	"fmt"

	"github.com/dgallion1/lexchunk/internal/doctree"
)

// CoverageError reports structural lines that did not make it into any chunk.
// Nothing from the document should be persisted when it is returned.
type CoverageError struct {
	Source  string
	Missing []string
}

func (e *CoverageError) Error() string {
	return fmt.Sprintf("coverage violation in %s: %d structural lines missing from chunks", e.Source, len(e.Missing))
}

// Verify checks that every node of doc's tree, and the title when the tree
// has content, appears as a line of some chunk.
func Verify(doc *doctree.Document, chunks []doctree.FinalChunk) error {
	required := requiredLines(doc)
	if len(required) == 0 {
		return nil
	}

	covered := make(map[string]struct{})
	for _, c := range chunks {
		for _, l := range c.Lines {
			covered[l] = struct{}{}
		}
	}

	var missing []string
	for _, l := range required {
		if _, ok := covered[l]; !ok {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return &CoverageError{Source: doc.Source, Missing: missing}
	}
	return nil
}

// requiredLines lists the normalised content of every node in pre-order,
// without duplicates.
func requiredLines(doc *doctree.Document) []string {
	tree := doc.Tree
	if tree == nil || tree.Empty() {
		return nil
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(s string) {
		s = EnsurePunctuation(s)
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	add(doc.Title)
	tree.Walk(func(idx, depth int) {
		if depth > 0 {
			add(tree.Nodes[idx].Content)
		}
	})
	return out
}
