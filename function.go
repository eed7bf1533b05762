package sapigen

import (
	"fmt"
	"strings"

	"github.com/go-clang/v3.9/clang"
)

// typeMapping is the fixed scalar-kind table: every simple C type has a
// direct sapi::v wrapper, and Type.IsSimple is defined as membership in
// this map.
var typeMapping = map[clang.TypeKind]string{
	clang.Type_Void:       "::sapi::v::Void",
	clang.Type_Char_S:     "::sapi::v::Char",
	clang.Type_Char_U:     "::sapi::v::Char",
	clang.Type_Int:        "::sapi::v::Int",
	clang.Type_UInt:       "::sapi::v::UInt",
	clang.Type_Long:       "::sapi::v::Long",
	clang.Type_ULong:      "::sapi::v::ULong",
	clang.Type_UChar:      "::sapi::v::UChar",
	clang.Type_UShort:     "::sapi::v::UShort",
	clang.Type_Short:      "::sapi::v::Short",
	clang.Type_LongLong:   "::sapi::v::LLong",
	clang.Type_ULongLong:  "::sapi::v::ULLong",
	clang.Type_Float:      "::sapi::v::Reg<float>",
	clang.Type_Double:     "::sapi::v::Reg<double>",
	clang.Type_LongDouble: "::sapi::v::Reg<long double>",
	clang.Type_SChar:      "::sapi::v::SChar",
	clang.Type_Bool:       "::sapi::v::Bool",
}

// ArgumentType wraps one parameter of a Function, exposing the
// information the per-function method template needs: declared name,
// call-site expression, argument declaration, and mapped wrapper type.
type ArgumentType struct {
	Type

	function *Function
	pos      int
	name     string
}

func newArgumentType(fn *Function, pos int, argType clang.Type, name string) ArgumentType {
	if name == "" {
		name = fmt.Sprintf("a%d", pos)
	}
	return ArgumentType{
		Type:     newType(fn.tu, argType),
		function: fn,
		pos:      pos,
		name:     name,
	}
}

// Name returns the parameter's name, synthesized as "a<pos>" when the
// declaration didn't supply one.
func (a ArgumentType) Name() string { return a.name }

// Position returns this argument's zero-based index.
func (a ArgumentType) Position() int { return a.pos }

// CallArgument is the expression passed to sandbox_->Call for this
// argument: the bare pointer for sugared-pointer parameters, or a
// reference to the locally constructed wrapper otherwise.
func (a ArgumentType) CallArgument() string {
	if a.IsSugaredPointer() {
		return a.name
	}
	return "&" + a.name + "_"
}

// Declaration renders this argument's declaration in the emitted method
// signature: "::sapi::v::Ptr* name" for sugared pointers, else
// "spelling name" verbatim (const included).
func (a ArgumentType) Declaration() string {
	if a.IsSugaredPointer() {
		return fmt.Sprintf("::sapi::v::Ptr* %s", a.name)
	}
	return fmt.Sprintf("%s %s", a.clangType.Spelling(), a.name)
}

// Wrapped is the local-variable declaration/construction statement used
// inside the method body for every non-pointer argument, eg.
// "::sapi::v::Int x_((x))".
func (a ArgumentType) Wrapped() (string, error) {
	mapped, err := a.MappedType()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s %s_((%s))", mapped, a.name, a.name), nil
}

// MappedType maps this argument's C type onto its sapi::v wrapper type,
// per the table in spec §4.4. Returns UnsupportedTypeError for a
// by-value record/elaborated type or a scalar kind with no table entry.
func (a ArgumentType) MappedType() (string, error) {
	if a.IsSugaredPointer() {
		return fmt.Sprintf("::sapi::v::Reg<%s>", stripConstQualifier(a.clangType.Spelling())), nil
	}

	kind := a.clangType.Kind()
	switch kind {
	case clang.Type_Typedef:
		kind = a.clangType.CanonicalType().Kind()
	case clang.Type_Elaborated:
		kind = a.clangType.CanonicalType().Kind()
	}

	switch kind {
	case clang.Type_Enum:
		return fmt.Sprintf("::sapi::v::IntBase<%s>", a.clangType.Spelling()), nil
	case clang.Type_ConstantArray, clang.Type_IncompleteArray:
		return fmt.Sprintf("::sapi::v::Reg<%s>", a.clangType.Spelling()), nil
	case clang.Type_LValueReference:
		return "LVALUEREFERENCE::NOT_SUPPORTED", nil
	case clang.Type_RValueReference:
		return "RVALUEREFERENCE::NOT_SUPPORTED", nil
	case clang.Type_Record, clang.Type_Elaborated:
		return "", a.unsupported()
	}

	if mapped, ok := typeMapping[kind]; ok {
		return mapped, nil
	}
	return "", a.unsupported()
}

func (a ArgumentType) unsupported() error {
	return newUnsupportedTypeError(a.function.Name, a.pos, a.clangType.Spelling(), locationString(a.function.cursor))
}

// locationString renders a cursor's file:line:column for error messages.
func locationString(cursor clang.Cursor) string {
	file, line, col, _ := cursor.Location().FileLocation()
	if file.IsInvalid() {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", file.Name(), line, col)
}

// ReturnType is a Function's return value: an ArgumentType at position 0
// built without a parameter name (so named "a0"), stringifying as
// absl::Status / absl::StatusOr<T>.
type ReturnType struct {
	ArgumentType
}

func newReturnType(fn *Function, resultType clang.Type) ReturnType {
	return ReturnType{ArgumentType: newArgumentType(fn, 0, resultType, "")}
}

// String renders the C++ return type of the generated method:
// absl::Status for void, else absl::StatusOr<T> with const stripped.
func (r ReturnType) String() string {
	if r.IsVoid() {
		return "absl::Status"
	}
	return fmt.Sprintf("absl::StatusOr<%s>", stripConstQualifier(r.clangType.Spelling()))
}

// Function wraps one exported C-linkage function cursor: its name,
// original signature, return type, and ordered argument list.
type Function struct {
	tu     *TranslationUnit
	cursor clang.Cursor

	Name               string
	OriginalDefinition string
	Result             ReturnType
	Arguments          []ArgumentType
}

func newFunction(tu *TranslationUnit, cursor clang.Cursor) *Function {
	f := &Function{
		tu:     tu,
		cursor: cursor,
		Name:   cursor.Spelling(),
	}
	f.Result = newReturnType(f, cursor.ResultType())
	f.OriginalDefinition = fmt.Sprintf("%s %s", cursor.ResultType().Spelling(), cursor.DisplayName())

	n := cursor.NumArguments()
	f.Arguments = make([]ArgumentType, 0, n)
	for i := int32(0); i < n; i++ {
		param := cursor.Argument(uint32(i))
		f.Arguments = append(f.Arguments, newArgumentType(f, int(i), param.Type(), param.Spelling()))
	}

	return f
}

// MangledName is the cursor's linker-level symbol name.
func (f *Function) MangledName() string { return f.cursor.MangledName() }

// IsExternC reports whether this function has C linkage: its mangled
// name equals its spelling. Overloaded C++ functions fail this check and
// are filtered out of generation.
func (f *Function) IsExternC() bool { return f.MangledName() == f.Name }

// CallArguments returns every argument's call-site expression, in order.
func (f *Function) CallArguments() []string {
	out := make([]string, len(f.Arguments))
	for i, a := range f.Arguments {
		out[i] = a.CallArgument()
	}
	return out
}

// RelatedTypes returns the full set of types this function's return and
// argument types transitively require, threading acc to avoid
// re-emitting a type already seen for a sibling function.
func (f *Function) RelatedTypes(acc map[Type]struct{}) map[Type]struct{} {
	acc = f.Result.RelatedTypes(acc, false)
	for _, a := range f.Arguments {
		acc = a.RelatedTypes(acc, false)
	}
	return acc
}

// IncludePath resolves the #include path emitted for this function's
// declaring header, given a prefix: empty prefix returns the absolute
// path; prefix found within the absolute path yields the prefix followed
// by the part after its first occurrence; otherwise prefix is joined
// with the basename.
func (f *Function) IncludePath(prefix string) string {
	abs := f.AbsolutePath()
	if prefix == "" {
		return abs
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if idx := strings.Index(abs, prefix); idx >= 0 {
		return prefix + abs[idx+len(prefix):]
	}
	return prefix + abs[strings.LastIndex(abs, "/")+1:]
}

// AbsolutePath is the file path of this function's declaration.
func (f *Function) AbsolutePath() string {
	file, _, _, _ := f.cursor.Location().FileLocation()
	return file.Name()
}

// stripConstQualifier strips only a leading "const " qualifier and a
// trailing " const" (or the " const" of a trailing " const *"), never
// an interior substring match. This resolves the Open Question in spec
// §9: the original implementation's bare spelling.replace('const', '')
// also corrupts identifiers like "constant_t".
func stripConstQualifier(spelling string) string {
	s := spelling
	for {
		switch {
		case strings.HasPrefix(s, "const "):
			s = strings.TrimPrefix(s, "const ")
		case strings.HasSuffix(s, " const"):
			s = strings.TrimSuffix(s, " const")
		case strings.HasSuffix(s, " const *"):
			s = strings.TrimSuffix(s, " const *") + " *"
		default:
			return s
		}
	}
}
