package parser

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Every block element boundary starts a new
// line; scripts, styles and the document head are skipped.
type HTMLParser struct{}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "td": true, "th": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "section": true, "article": true, "table": true,
	"ul": true, "ol": true, "pre": true, "hr": true,
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*Source, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var lines []string
	var current strings.Builder
	inPre := 0

	flush := func() {
		if inPre > 0 {
			lines = append(lines, strings.Split(current.String(), "\n")...)
		} else {
			lines = append(lines, current.String())
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript", "head", "template":
				return
			}
		}

		block := n.Type == html.ElementNode && blockElements[n.Data]
		if block {
			flush()
			if n.Data == "pre" {
				inPre++
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
			if n.Data == "pre" {
				inPre--
			}
		}
	}
	walk(doc)
	flush()

	return newSource(filename, lines), nil
}
