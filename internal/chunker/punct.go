package chunker

import "strings"

var terminalMarks = []string{".", "!", "?", "。", ":", "："}

// EnsurePunctuation returns line with a trailing "." unless it already ends
// in a terminal mark.
func EnsurePunctuation(line string) string {
	line = strings.TrimSpace(line)
	for _, m := range terminalMarks {
		if strings.HasSuffix(line, m) {
			return line
		}
	}
	return line + "."
}

// normaliseLines applies EnsurePunctuation to every line, in place.
func normaliseLines(lines []string) []string {
	for i, l := range lines {
		lines[i] = EnsurePunctuation(l)
	}
	return lines
}
