package hierarchy

import (
	"time"

	"github.com/dgallion1/lexchunk/internal/doctree"
)

// Build runs the classifier over lines in order and assembles the heading tree.
// Body lines that arrive before any heading are returned separately and are
// not part of the tree.
func (c *Classifier) Build(lines []string) (*doctree.Tree, []string) {
	tree := doctree.NewTree()
	var stack []int // arena indices of open nodes, innermost last
	var unassigned []string

	for _, line := range lines {
		m, ok := c.Classify(line)
		if !ok {
			if len(stack) == 0 {
				unassigned = append(unassigned, line)
				continue
			}
			top := tree.Node(stack[len(stack)-1])
			if top.Content == "" {
				top.Content = line
			} else {
				top.Content += " " + line
			}
			continue
		}

		// A heading closes every open node at its own level or deeper.
		for len(stack) > 0 && tree.Node(stack[len(stack)-1]).Level >= m.Level {
			stack = stack[:len(stack)-1]
		}
		parent := doctree.Root
		if len(stack) > 0 {
			parent = stack[len(stack)-1]
		}
		idx := tree.Add(parent, doctree.Node{Level: m.Level, Kind: m.Kind, Content: line})
		stack = append(stack, idx)
	}

	return tree, unassigned
}

// Build assembles a tree with DefaultRules.
func Build(lines []string) (*doctree.Tree, []string) {
	return defaultClassifier.Build(lines)
}

// Parse turns the normalised lines of one source into a Document: title
// detection, appendix truncation, then tree construction.
func (c *Classifier) Parse(source string, lines []string) *doctree.Document {
	title, _ := DetectTitle(lines)
	kept, hasAppendix := TruncateAppendix(lines)
	tree, unassigned := c.Build(kept)
	return &doctree.Document{
		Source:      source,
		Title:       title,
		HasAppendix: hasAppendix,
		Unassigned:  unassigned,
		Tree:        tree,
		ParsedAt:    time.Now(),
	}
}

// Parse builds a Document with DefaultRules.
func Parse(source string, lines []string) *doctree.Document {
	return defaultClassifier.Parse(source, lines)
}
