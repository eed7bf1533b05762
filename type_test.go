package sapigen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseSource parses contents as an in-memory C header, the same overlay
// technique the Python implementation's analyze_string test harness uses
// to avoid touching disk.
func parseSource(t *testing.T, contents string) *TranslationUnit {
	t.Helper()
	tu, err := ParseFile("test.h", nil, []UnsavedFile{{Filename: "test.h", Contents: contents}}, false)
	require.NoError(t, err)
	return tu
}

func mustFunction(t *testing.T, tu *TranslationUnit, name string) *Function {
	t.Helper()
	for _, f := range tu.Functions() {
		if f.Name == name {
			return f
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func TestType_IsSimple(t *testing.T) {
	tu := parseSource(t, `extern "C" int f(int a, double b, void *p);`)
	f := mustFunction(t, tu, "f")

	assert.True(t, f.Arguments[0].IsSimple())
	assert.True(t, f.Arguments[1].IsSimple())
	assert.False(t, f.Arguments[2].IsSimple())
}

func TestType_IsSugaredPointer(t *testing.T) {
	tu := parseSource(t, `extern "C" void f(int *p, int v);`)
	f := mustFunction(t, tu, "f")

	assert.True(t, f.Arguments[0].IsSugaredPointer())
	assert.False(t, f.Arguments[1].IsSugaredPointer())
}

func TestType_IsSugaredEnum(t *testing.T) {
	tu := parseSource(t, `
typedef enum { kRed, kGreen, kBlue } Color;
extern "C" Color f();
`)
	f := mustFunction(t, tu, "f")
	assert.True(t, f.Result.IsSugaredEnum())
}

func TestType_EqualAndUSR(t *testing.T) {
	tu := parseSource(t, `
typedef struct Point { int x; int y; } Point;
extern "C" void f(Point *a, Point *b);
`)
	f := mustFunction(t, tu, "f")

	a := f.Arguments[0].Pointee()
	b := f.Arguments[1].Pointee()

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.USR(), b.USR())
}

func TestType_LessOrdersByDeclarationVisitationOrder(t *testing.T) {
	tu := parseSource(t, `
typedef struct First { int a; } First;
typedef struct Second { int b; } Second;
extern "C" void f(First *a, Second *b);
`)
	f := mustFunction(t, tu, "f")

	first := f.Arguments[0].Pointee()
	second := f.Arguments[1].Pointee()

	assert.True(t, first.Less(second))
	assert.False(t, second.Less(first))
}

func TestType_LessPanicsAcrossTranslationUnits(t *testing.T) {
	tuA := parseSource(t, `typedef struct S { int a; } S; extern "C" void f(S *a);`)
	tuB := parseSource(t, `typedef struct S { int a; } S; extern "C" void g(S *a);`)

	a := mustFunction(t, tuA, "f").Arguments[0].Pointee()
	b := mustFunction(t, tuB, "g").Arguments[0].Pointee()

	assert.Panics(t, func() { a.Less(b) })
}

func TestType_RelatedTypesTypedefChain(t *testing.T) {
	tu := parseSource(t, `
typedef int base_t;
typedef base_t derived_t;
extern "C" void f(derived_t v);
`)
	f := mustFunction(t, tu, "f")
	closure := f.Arguments[0].RelatedTypes(nil, false)

	names := make(map[string]bool)
	for ty := range closure {
		names[ty.Spelling()] = true
	}
	assert.True(t, names["derived_t"])
	assert.True(t, names["base_t"])
}

func TestType_RelatedTypesStructFields(t *testing.T) {
	tu := parseSource(t, `
typedef struct Inner { int x; } Inner;
typedef struct Outer { Inner inner; int y; } Outer;
extern "C" void f(Outer *o);
`)
	f := mustFunction(t, tu, "f")
	closure := f.Arguments[0].Pointee().RelatedTypes(nil, false)

	names := make(map[string]bool)
	for ty := range closure {
		names[ty.Spelling()] = true
	}
	assert.True(t, names["Outer"])
	assert.True(t, names["Inner"])
}

func TestType_RelatedTypesSkipsEmbeddedAnonymousStruct(t *testing.T) {
	tu := parseSource(t, `
typedef struct { int x; } Anon;
extern "C" void f(Anon *a);
`)
	f := mustFunction(t, tu, "f")
	anon := f.Arguments[0].Pointee()
	closure := anon.RelatedTypes(nil, false)

	// The anonymous struct body is embedded in the typedef's own extent,
	// so it must be recorded as skipped rather than emitted standalone.
	underlying := newType(tu, anon.Declaration().UnderlyingTypedefType())
	assert.True(t, tu.IsSkipped(underlying))
	assert.NotContains(t, closure, underlying)
}

func TestType_ContainsDeclaration(t *testing.T) {
	tu := parseSource(t, `
typedef struct { int x; } Anon;
extern "C" void f(Anon *a);
`)
	f := mustFunction(t, tu, "f")
	anon := f.Arguments[0].Pointee()
	require.True(t, anon.IsTypedef())

	underlying := newType(tu, anon.Declaration().UnderlyingTypedefType())

	assert.True(t, anon.ContainsDeclaration(underlying))
}
