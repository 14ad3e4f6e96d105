package hierarchy

import (
	"strings"

	"github.com/dgallion1/lexchunk/internal/doctree"
)

// TitleScanLines is how many leading lines are searched for the document title.
const TitleScanLines = 20

// DocumentKeywords are the legal document types recognised in a header.
var DocumentKeywords = []string{
	"bộ luật", "chỉ thị", "hiến pháp", "lệnh", "luật", "nghị định",
	"nghị quyết liên tịch", "nghị quyết", "pháp lệnh", "quyết định",
	"thông tư liên tịch", "thông tư",
}

const appendixMarker = "phụ lục"

// DetectTitle finds the first header line naming a document type and joins it
// with the following line, since headers often split type and number.
func DetectTitle(lines []string) (string, bool) {
	limit := min(len(lines), TitleScanLines)
	for i := 0; i < limit; i++ {
		if !containsKeyword(lines[i]) {
			continue
		}
		if i+1 < len(lines) {
			return lines[i] + " " + lines[i+1], true
		}
		return lines[i], true
	}
	return doctree.UnknownTitle, false
}

func containsKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range DocumentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// TruncateAppendix drops the first appendix line and everything after it.
// It returns the kept prefix and whether an appendix was found.
func TruncateAppendix(lines []string) ([]string, bool) {
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), appendixMarker) {
			return lines[:i], true
		}
	}
	return lines, false
}
