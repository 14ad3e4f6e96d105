package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Markup is dropped;
// ordered list markers are kept since they carry legal numbering.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*Source, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var lines []string
	var marker string // pending list marker for the next emitted line

	emit := func(ls []string) {
		for _, l := range ls {
			if marker != "" {
				l = marker + l
				marker = ""
			}
			lines = append(lines, l)
		}
	}

	var walk func(n ast.Node)
	walk = func(n ast.Node) {
		switch node := n.(type) {
		case *ast.Heading, *ast.Paragraph, *ast.TextBlock:
			emit(inlineLines(n, src))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			emit(rawLines(n, src))
		case *ast.HTMLBlock, *ast.ThematicBreak:
		case *ast.List:
			i := 0
			for item := node.FirstChild(); item != nil; item = item.NextSibling() {
				if node.IsOrdered() {
					marker = fmt.Sprintf("%d%c ", node.Start+i, node.Marker)
				}
				walk(item)
				marker = ""
				i++
			}
		default:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				walk(c)
			}
		}
	}
	walk(doc)

	return newSource(filename, lines), nil
}

// inlineLines flattens the inline children of a block into text lines,
// breaking where the source had a line break.
func inlineLines(n ast.Node, src []byte) []string {
	var lines []string
	var buf strings.Builder

	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch t := c.(type) {
			case *ast.Text:
				buf.Write(t.Segment.Value(src))
				if t.SoftLineBreak() || t.HardLineBreak() {
					lines = append(lines, buf.String())
					buf.Reset()
				}
			case *ast.String:
				buf.Write(t.Value)
			default:
				walk(c)
			}
		}
	}
	walk(n)

	if buf.Len() > 0 {
		lines = append(lines, buf.String())
	}
	return lines
}

func rawLines(n ast.Node, src []byte) []string {
	segs := n.Lines()
	lines := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		lines = append(lines, string(seg.Value(src)))
	}
	return lines
}
