package chunker

import (
	"strings"

	"github.com/dgallion1/lexchunk/internal/doctree"
)

// Merge combines adjacent path-chunks greedily while the joined text stays
// within maxTokens. Lines a candidate shares with the chunk being built are
// not repeated: only the candidate's suffix from its first unseen line is
// appended. A single path-chunk over the budget is returned on its own.
func Merge(paths []doctree.PathChunk, maxTokens int, counter TokenCounter, model string) []doctree.PathChunk {
	var merged []doctree.PathChunk

	for i := 0; i < len(paths); {
		current := append([]string(nil), paths[i].Lines...)
		tokens := paths[i].TokenCount
		seen := make(map[string]struct{}, len(current))
		for _, l := range current {
			seen[l] = struct{}{}
		}

		j := i + 1
		for ; j < len(paths); j++ {
			novel := firstNovel(paths[j].Lines, seen)
			trial := append(append([]string(nil), current...), paths[j].Lines[novel:]...)
			trial = normaliseLines(trial)

			n := counter.Count(strings.Join(trial, " "), model)
			if n > maxTokens {
				break
			}
			for _, l := range trial[len(current):] {
				seen[l] = struct{}{}
			}
			current, tokens = trial, n
		}

		merged = append(merged, doctree.PathChunk{Lines: current, TokenCount: tokens})
		i = j
	}
	return merged
}

// firstNovel returns the index of the first line not in seen, or len(lines)
// when every line is already present.
func firstNovel(lines []string, seen map[string]struct{}) int {
	for k, l := range lines {
		if _, ok := seen[l]; !ok {
			return k
		}
	}
	return len(lines)
}
