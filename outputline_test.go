package sapigen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func toks(pairs ...interface{}) []tokenSpelling {
	out := make([]tokenSpelling, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, tokenSpelling{line: uint32(pairs[i].(int)), spelling: pairs[i+1].(string)})
	}
	return out
}

func TestStringifyTokens_SimpleDeclaration(t *testing.T) {
	got := stringifyTokens(toks(1, "typedef", 1, "unsigned", 1, "int", 1, "u", 1, ";"), "\n")
	assert.Equal(t, "typedef unsigned int u ;", got)
}

func TestStringifyTokens_BraceIndentation(t *testing.T) {
	tokens := toks(
		1, "struct", 1, "S", 1, "{",
		2, "int", 2, "a", 2, ";",
		3, "}",
	)
	got := stringifyTokens(tokens, "\n")
	assert.Equal(t, "struct S {\n\tint a ;\n}", got)
}

func TestStringifyTokens_NestedBraces(t *testing.T) {
	tokens := toks(
		1, "struct", 1, "S", 1, "{",
		2, "struct", 2, "{",
		3, "int", 3, "a", 3, ";",
		4, "}", 4, "inner", 4, ";",
		5, "}",
	)
	got := stringifyTokens(tokens, "\n")
	assert.Equal(t, "struct S {\n\tstruct {\n\t\tint a ;\n\t} inner ;\n}", got)
}

func TestStringifyTokens_PreprocessorLineHasNoIndent(t *testing.T) {
	tokens := toks(
		1, "struct", 1, "S", 1, "{",
		2, "#", 2, "define", 2, "X", 2, "1",
		3, "}",
	)
	got := stringifyTokens(tokens, "\n")
	assert.Equal(t, "struct S {\n#define X 1\n}", got)
}

func TestStringifyTokens_NoSpaceBeforeOpenParen(t *testing.T) {
	got := stringifyTokens(toks(1, "f", 1, "(", 1, "x", 1, ")"), "\n")
	assert.Equal(t, "f( x )", got)
}

func TestStringifyTokens_MacroSeparator(t *testing.T) {
	tokens := toks(1, "X", 2, "1", 3, "+", 3, "2")
	got := stringifyTokens(tokens, " \\\n")
	assert.Equal(t, "X \\\n1 \\\n+ 2", got)
}
