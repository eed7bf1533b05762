package sapigen

import (
	"strings"

	"github.com/go-clang/v3.9/clang"
)

// tokenSpelling is the subset of clang.Token this package renders: the
// source line it sits on and its literal text. Tokens are captured this
// way (rather than threading clang.Token/clang.TranslationUnit pairs
// everywhere) so outputLine stays a pure value type.
type tokenSpelling struct {
	line     uint32
	spelling string
}

// tokensOf tokenizes cursor's source extent, dropping comments.
func tokensOf(tu clang.TranslationUnit, cursor clang.Cursor) []tokenSpelling {
	raw := tu.Tokenize(cursor.Extent())
	out := make([]tokenSpelling, 0, len(raw))
	for _, tok := range raw {
		if tok.Kind(tu) == clang.Token_Comment {
			continue
		}
		out = append(out, tokenSpelling{
			line:     tok.Location(tu).SpellingLine(),
			spelling: tok.Spelling(tu),
		})
	}
	return out
}

// tokenSpellings returns the literal spelling of every token in
// cursor's extent, comments included: used by searchForMacroName, which
// matches raw token text against known macro names.
func tokenSpellings(tu clang.TranslationUnit, cursor clang.Cursor) []string {
	raw := tu.Tokenize(cursor.Extent())
	out := make([]string, 0, len(raw))
	for _, tok := range raw {
		out = append(out, tok.Spelling(tu))
	}
	return out
}

// outputLine renders one source line's worth of tokens, tracking brace
// depth so `{`/`}` nesting becomes tab indentation and preprocessor
// lines (starting with `#`) are emitted with no leading tabs.
type outputLine struct {
	tab        int
	nextTab    int
	isPreproc  bool
	spellings  []string
}

func newOutputLine(tab int, tokens []tokenSpelling) *outputLine {
	o := &outputLine{tab: tab, nextTab: tab}
	for _, t := range tokens {
		o.processToken(t.spelling)
	}
	return o
}

func (o *outputLine) processToken(spelling string) {
	switch spelling {
	case "#":
		o.isPreproc = true
	case "{":
		o.nextTab++
	case "}":
		o.tab--
		o.nextTab--
	}

	isOpenParen := spelling == "("
	isLeadingMacroHash := len(o.spellings) == 1 && o.spellings[0] == "#"
	if len(o.spellings) > 0 && !isOpenParen && !isLeadingMacroHash {
		o.spellings = append(o.spellings, " ")
	}
	o.spellings = append(o.spellings, spelling)
}

func (o *outputLine) String() string {
	var tabs string
	if !o.isPreproc && o.tab > 0 {
		tabs = strings.Repeat("\t", o.tab)
	}
	return tabs + strings.Join(o.spellings, "")
}

// stringifyTokens groups tokens by source line and renders each group as
// an outputLine, threading next_tab across lines within the same pass so
// a `{` on one line indents every line until the matching `}`. Lines are
// joined with separator, eg. "\n" for a type definition or " \\\n" for a
// macro definition that must stay on one logical preprocessor line.
func stringifyTokens(tokens []tokenSpelling, separator string) string {
	var lines []*outputLine
	nextTab := 0

	start := 0
	for start < len(tokens) {
		end := start + 1
		for end < len(tokens) && tokens[end].line == tokens[start].line {
			end++
		}
		line := newOutputLine(nextTab, tokens[start:end])
		nextTab = line.nextTab
		lines = append(lines, line)
		start = end
	}

	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, separator)
}
