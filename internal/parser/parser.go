package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Source is the flat, normalised line sequence of one document.
type Source struct {
	Name  string
	Lines []string
}

// Parser converts raw document bytes into lines.
type Parser interface {
	Parse(r io.Reader, filename string) (*Source, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{}, nil
	case ".docx":
		return &DOCXParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// NormalizeLines puts every line in NFC, collapses inner whitespace and
// drops lines that end up empty. Vietnamese text from PDFs and Word files
// often arrives decomposed, which would defeat exact line matching.
func NormalizeLines(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.Join(strings.Fields(norm.NFC.String(l)), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

func newSource(filename string, raw []string) *Source {
	return &Source{Name: filename, Lines: NormalizeLines(raw)}
}
