package parser

import (
	"bufio"
	"fmt"
	"io"
)

// TextParser handles plain text files, one line per input line.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*Source, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read text: %w", err)
	}

	return newSource(filename, lines), nil
}
