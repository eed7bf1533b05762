package sapigen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripConstQualifier(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"int", "int"},
		{"const int", "int"},
		{"const char *", "char *"},
		{"int const", "int"},
		{"char * const", "char *"},
		{"constant_t", "constant_t"},
		{"const constant_t", "constant_t"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, stripConstQualifier(c.in), "input %q", c.in)
	}
}

func TestFunction_IsExternC(t *testing.T) {
	tu := parseSource(t, `
extern "C" int plain_c(int a);
int overloaded(int a);
int overloaded(double a);
`)
	c := mustFunction(t, tu, "plain_c")
	assert.True(t, c.IsExternC())

	for _, f := range tu.Functions() {
		assert.NotEqual(t, "overloaded", f.Name, "overloaded C++ function must be filtered out by IsExternC")
	}
}

func TestArgumentType_CallArgumentAndDeclaration(t *testing.T) {
	tu := parseSource(t, `extern "C" void f(int *p, int v);`)
	f := mustFunction(t, tu, "f")

	ptr := f.Arguments[0]
	assert.Equal(t, "p", ptr.CallArgument())
	assert.Equal(t, "::sapi::v::Ptr* p", ptr.Declaration())

	val := f.Arguments[1]
	assert.Equal(t, "&v_", val.CallArgument())
	assert.Equal(t, "int v", val.Declaration())
}

func TestArgumentType_Wrapped(t *testing.T) {
	tu := parseSource(t, `extern "C" void f(int v);`)
	f := mustFunction(t, tu, "f")

	wrapped, err := f.Arguments[0].Wrapped()
	assert.NoError(t, err)
	assert.Equal(t, "::sapi::v::Int v_((v))", wrapped)
}

func TestArgumentType_MappedTypeScalars(t *testing.T) {
	tu := parseSource(t, `extern "C" void f(int a, unsigned int b, double c, char d, bool e);`)
	f := mustFunction(t, tu, "f")

	want := []string{
		"::sapi::v::Int",
		"::sapi::v::UInt",
		"::sapi::v::Reg<double>",
		"::sapi::v::Char",
		"::sapi::v::Bool",
	}
	for i, w := range want {
		got, err := f.Arguments[i].MappedType()
		assert.NoError(t, err)
		assert.Equal(t, w, got)
	}
}

func TestArgumentType_MappedTypePointerWrapsRegOfPointer(t *testing.T) {
	tu := parseSource(t, `extern "C" void f(const int *p);`)
	f := mustFunction(t, tu, "f")

	got, err := f.Arguments[0].MappedType()
	assert.NoError(t, err)
	assert.Equal(t, "::sapi::v::Reg<int *>", got)
}

func TestArgumentType_MappedTypeEnum(t *testing.T) {
	tu := parseSource(t, `
typedef enum { kRed, kGreen } Color;
extern "C" void f(Color c);
`)
	f := mustFunction(t, tu, "f")

	got, err := f.Arguments[0].MappedType()
	assert.NoError(t, err)
	assert.Equal(t, "::sapi::v::IntBase<Color>", got)
}

func TestArgumentType_MappedTypeRecordByValueIsUnsupported(t *testing.T) {
	tu := parseSource(t, `
typedef struct Point { int x; int y; } Point;
extern "C" void f(Point p);
`)
	f := mustFunction(t, tu, "f")

	_, err := f.Arguments[0].MappedType()
	var target *UnsupportedTypeError
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, "f", target.Function)
	assert.Equal(t, 0, target.Position)
}

func TestReturnType_String(t *testing.T) {
	tuVoid := parseSource(t, `extern "C" void f();`)
	fVoid := mustFunction(t, tuVoid, "f")
	assert.Equal(t, "absl::Status", fVoid.Result.String())

	tuInt := parseSource(t, `extern "C" const int f();`)
	fInt := mustFunction(t, tuInt, "f")
	assert.Equal(t, "absl::StatusOr<int>", fInt.Result.String())
}

func TestFunction_IncludePath(t *testing.T) {
	tu := parseSource(t, `extern "C" void f();`)
	f := mustFunction(t, tu, "f")

	assert.Equal(t, f.AbsolutePath(), f.IncludePath(""))

	got := f.IncludePath("/nonexistent/prefix")
	assert.Equal(t, "/nonexistent/prefix/test.h", got)
}

func TestFunction_MangledNameDeduplicatesAcrossUnits(t *testing.T) {
	tuA := parseSource(t, `extern "C" int shared(int a);`)
	tuB := parseSource(t, `extern "C" int shared(int a);`)

	a := mustFunction(t, tuA, "shared")
	b := mustFunction(t, tuB, "shared")

	assert.Equal(t, a.MangledName(), b.MangledName())
	assert.Len(t, NewGenerator([]*TranslationUnit{tuA, tuB}).functions(nil), 1)
}
