package hierarchy

import (
	"regexp"

	"github.com/dgallion1/lexchunk/internal/doctree"
)

// Go's \b is ASCII-only, so a Vietnamese letter right after a numeral would
// count as a boundary. This matches the end of the line or any rune that is
// not a letter, digit or underscore.
const wordEnd = `(?:[^\p{L}\p{N}_]|$)`

const ordinals = `nhất|một|hai|ba|bốn|năm|sáu|bảy|tám|chín|mười|mười một|mười hai|mười ba|mười bốn|mười lăm|` +
	`mười sáu|mười bảy|mười tám|mười chín|hai mươi|ba mươi|bốn mươi|năm mươi|sáu mươi|bảy mươi|tám mươi|chín mươi|trăm`

// Rule is one entry of the classification table.
type Rule struct {
	Level   int
	Kind    doctree.Kind
	Pattern *regexp.Regexp
	// Exclude rejects lines that Pattern accepts but a lower-priority rule owns.
	Exclude *regexp.Regexp
}

// Match reports whether line is a heading of this rule.
func (r Rule) Match(line string) bool {
	if !r.Pattern.MatchString(line) {
		return false
	}
	return r.Exclude == nil || !r.Exclude.MatchString(line)
}

// Match is the result of classifying a heading line.
type Match struct {
	Level int
	Kind  doctree.Kind
}

// DefaultRules is the priority table for Vietnamese legal documents.
// Order is precedence: the first rule that matches wins.
var DefaultRules = []Rule{
	{Level: 1, Kind: doctree.KindPart, Pattern: regexp.MustCompile(`(?i)^phần\s+(?:thứ\s+)?(?:[IVXLCDM]+|[0-9]{1,2})` + wordEnd)},
	{Level: 1, Kind: doctree.KindPart, Pattern: regexp.MustCompile(`(?i)^phần\s+thứ\s+(?:` + ordinals + `)` + wordEnd)},
	{Level: 2, Kind: doctree.KindChapter, Pattern: regexp.MustCompile(`(?i)^chương\s+[IVXLCDM0-9]+`)},
	{Level: 3, Kind: doctree.KindSection, Pattern: regexp.MustCompile(`(?i)^mục\s+(?:thứ\s+)?(?:[IVXLCDM]+|[0-9]{1,2})` + wordEnd)},
	{Level: 4, Kind: doctree.KindSubsection, Pattern: regexp.MustCompile(`(?i)^tiểu\s+mục\s+(?:thứ\s+)?(?:[IVXLCDM]+|[0-9]{1,2})` + wordEnd)},
	{Level: 5, Kind: doctree.KindArticle, Pattern: regexp.MustCompile(`(?i)^điều\s+[0-9]+`)},
	{Level: 6, Kind: doctree.KindClause, Pattern: regexp.MustCompile(`(?i)^khoản\s+[0-9]+`)},
	{Level: 7, Kind: doctree.KindSubclause, Pattern: regexp.MustCompile(`(?i)^tiểu khoản\s+[0-9]+`)},
	{
		Level:   10,
		Kind:    doctree.KindUpperLetter,
		Pattern: regexp.MustCompile(`^\p{Lu}[.)]`),
		Exclude: regexp.MustCompile(`^(?:I|II|III)[.)]`),
	},
	{Level: 11, Kind: doctree.KindUpperRoman, Pattern: regexp.MustCompile(`^(?:I{1,3}|IV|V|VI|VII|VIII|IX|X)[.)]`)},
	{Level: 12, Kind: doctree.KindNumber, Pattern: regexp.MustCompile(`^[0-9]+[.)]`)},
	{
		Level:   13,
		Kind:    doctree.KindLowerLetter,
		Pattern: regexp.MustCompile(`^\p{Ll}[.)]`),
		Exclude: regexp.MustCompile(`^(?:ii|iii)[.)]`),
	},
	{Level: 14, Kind: doctree.KindLowerRoman, Pattern: regexp.MustCompile(`^(?:ii|iii|iv|v|vi|vii|viii|ix|x)[.)]`)},
}

// Classifier evaluates a rule table top to bottom.
type Classifier struct {
	rules []Rule
}

// NewClassifier returns a classifier over rules. With no rules it uses DefaultRules.
func NewClassifier(rules ...Rule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Classifier{rules: rules}
}

// Classify returns the first matching rule's level and kind.
// ok is false for body text.
func (c *Classifier) Classify(line string) (Match, bool) {
	for _, r := range c.rules {
		if r.Match(line) {
			return Match{Level: r.Level, Kind: r.Kind}, true
		}
	}
	return Match{}, false
}

var defaultClassifier = NewClassifier()

// Classify classifies line with DefaultRules.
func Classify(line string) (Match, bool) {
	return defaultClassifier.Classify(line)
}
