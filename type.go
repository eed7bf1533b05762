package sapigen

import "github.com/go-clang/v3.9/clang"

// Type wraps a clang.Type together with a back-reference to the
// TranslationUnit it came from. Equal reports two Types equal iff their
// declarations share the same USR. Used as a map key (the related-type
// accumulators and the TranslationUnit's sets), a Type compares by its
// TranslationUnit and clang type handle instead, not by USR. Types are
// only ordered against other Types from the same TranslationUnit, by
// declaration visitation order.
type Type struct {
	tu        *TranslationUnit
	clangType clang.Type
}

func newType(tu *TranslationUnit, t clang.Type) Type {
	return Type{tu: tu, clangType: t}
}

// Declaration returns the cursor that declares this type, following the
// pointee when the type itself has none: function-pointer types have
// their declaration attached to the pointee, not the pointer.
func (t Type) Declaration() clang.Cursor {
	decl := t.clangType.Declaration()
	if decl.Kind() == clang.Cursor_NoDeclFound && t.IsSugaredPointer() {
		return t.Pointee().Declaration()
	}
	return decl
}

// USR returns the declaration's unified symbol resolution string, the
// identity this Type is compared and hashed by.
func (t Type) USR() string {
	return t.Declaration().USR()
}

// Equal reports whether t and other share the same declaration.
func (t Type) Equal(other Type) bool {
	return t.USR() == other.USR()
}

// Less reports whether t's declaration was visited before other's in
// their (shared) TranslationUnit's preorder walk. Panics if t and other
// belong to different TranslationUnits: comparing across TUs is
// meaningless, the same restriction the Python implementation enforces.
func (t Type) Less(other Type) bool {
	if t.tu != other.tu {
		panic("sapigen: cannot compare types from different translation units")
	}
	a, _ := t.tu.declOrder(t.Declaration())
	b, _ := t.tu.declOrder(other.Declaration())
	return a < b
}

func (t Type) IsVoid() bool            { return t.clangType.Kind() == clang.Type_Void }
func (t Type) IsTypedef() bool         { return t.clangType.Kind() == clang.Type_Typedef }
func (t Type) IsElaborated() bool      { return t.clangType.Kind() == clang.Type_Elaborated }
func (t Type) IsFunction() bool        { return t.clangType.Kind() == clang.Type_FunctionProto }
func (t Type) IsConstArray() bool      { return t.clangType.Kind() == clang.Type_ConstantArray }
func (t Type) IsSugaredPointer() bool  { return t.clangType.CanonicalType().Kind() == clang.Type_Pointer }
func (t Type) IsSugaredEnum() bool     { return t.clangType.CanonicalType().Kind() == clang.Type_Enum }

// IsSugaredRecord reports whether this type's declaration is a struct,
// union, or class (class and struct are otherwise indistinguishable via
// the type kind alone).
func (t Type) IsSugaredRecord() bool {
	switch t.clangType.Declaration().Kind() {
	case clang.Cursor_StructDecl, clang.Cursor_UnionDecl, clang.Cursor_ClassDecl:
		return true
	}
	return false
}

func (t Type) IsStruct() bool { return t.clangType.Declaration().Kind() == clang.Cursor_StructDecl }
func (t Type) IsUnion() bool  { return t.clangType.Declaration().Kind() == clang.Cursor_UnionDecl }
func (t Type) IsClass() bool  { return t.clangType.Declaration().Kind() == clang.Cursor_ClassDecl }

// IsSimple reports whether this type has a direct entry in typeMapping.
func (t Type) IsSimple() bool {
	_, ok := typeMapping[t.clangType.Kind()]
	return ok
}

// Pointee returns the type pointed to, for pointer-ish kinds.
func (t Type) Pointee() Type {
	return newType(t.tu, t.clangType.PointeeType())
}

func (t Type) Spelling() string { return t.clangType.Spelling() }

// Stringify renders this type's declaration back to source text via the
// Token Renderer, preserving brace-driven indentation and preprocessor
// line formatting.
func (t Type) Stringify() string {
	return stringifyTokens(tokensOf(t.tu.tu, t.Declaration()), "\n")
}

// ContainsDeclaration reports whether other's declaration extent lies
// entirely within t's declaration extent: used to detect a typedef whose
// textual body embeds the struct it names, eg. "typedef struct {...} x;".
func (t Type) ContainsDeclaration(other Type) bool {
	selfExtent := t.Declaration().Extent()
	otherExtent := other.Declaration().Extent()

	otherStartFile, _, _, _ := otherExtent.Start().FileLocation()
	if otherStartFile.IsInvalid() {
		return false
	}

	return extentContains(selfExtent, otherExtent.Start()) &&
		extentContains(selfExtent, otherExtent.End())
}

func extentContains(extent clang.SourceRange, loc clang.SourceLocation) bool {
	startFile, startLine, startCol, _ := extent.Start().FileLocation()
	endFile, endLine, endCol, _ := extent.End().FileLocation()
	locFile, locLine, locCol, _ := loc.FileLocation()

	if startFile.IsInvalid() || endFile.IsInvalid() || locFile.IsInvalid() {
		return false
	}
	if startFile.Name() != locFile.Name() || endFile.Name() != locFile.Name() {
		return false
	}

	after := locLine > startLine || (locLine == startLine && locCol >= startCol)
	before := locLine < endLine || (locLine == endLine && locCol <= endCol)
	return after && before
}

// RelatedTypes returns the set of declarations that must be emitted
// before this type for it to be well-formed: typedef chains, pointee
// records, function-pointer argument/result types, struct/union fields,
// and enums. acc accumulates across the whole call tree so a type
// already emitted for a sibling argument isn't emitted twice.
func (t Type) RelatedTypes(acc map[Type]struct{}, skipSelf bool) map[Type]struct{} {
	if acc == nil {
		acc = make(map[Type]struct{})
	}

	if _, seen := acc[t]; seen || t.IsSimple() || t.IsClass() {
		return acc
	}

	if t.IsTypedef() {
		return t.relatedTypesOfTypedef(acc)
	}

	if t.IsElaborated() {
		named := newType(t.tu, t.clangType.NamedType())
		return named.RelatedTypes(acc, skipSelf)
	}

	if t.IsConstArray() {
		elem := newType(t.tu, t.clangType.ArrayElementType())
		return elem.RelatedTypes(acc, false)
	}

	switch t.clangType.Kind() {
	case clang.Type_Pointer, clang.Type_MemberPointer,
		clang.Type_LValueReference, clang.Type_RValueReference:
		return t.Pointee().RelatedTypes(acc, skipSelf)
	}

	if t.IsStruct() || t.IsUnion() {
		return t.relatedTypesOfRecord(acc, skipSelf)
	}

	if t.IsFunction() {
		return t.relatedTypesOfFunction(acc)
	}

	if t.IsSugaredEnum() {
		if !skipSelf {
			acc[t] = struct{}{}
			t.tu.searchForMacroName(t.Declaration())
		}
		return acc
	}

	// Unexposed AST node kinds: nothing more to add.
	return acc
}

func (t Type) relatedTypesOfTypedef(acc map[Type]struct{}) map[Type]struct{} {
	acc[t] = struct{}{}
	decl := t.Declaration()
	t.tu.searchForMacroName(decl)

	underlying := newType(t.tu, decl.UnderlyingTypedefType())
	if underlying.IsSugaredPointer() {
		underlying = underlying.Pointee()
	}

	if !underlying.IsSimple() {
		skipChild := t.ContainsDeclaration(underlying)
		if underlying.IsSugaredRecord() && skipChild {
			t.tu.markTypeSkipped(underlying)
		}
		for k := range underlying.RelatedTypes(acc, skipChild) {
			acc[k] = struct{}{}
		}
	}

	return acc
}

func (t Type) relatedTypesOfRecord(acc map[Type]struct{}, skipSelf bool) map[Type]struct{} {
	decl := t.Declaration()
	if decl.Spelling() != "" && !skipSelf {
		t.tu.searchForMacroName(decl)
		acc[t] = struct{}{}
	}

	for _, field := range recordFields(decl) {
		t.tu.searchForMacroName(field)
		fieldType := newType(t.tu, field.Type())
		for k := range fieldType.RelatedTypes(acc, false) {
			acc[k] = struct{}{}
		}
	}

	return acc
}

func (t Type) relatedTypesOfFunction(acc map[Type]struct{}) map[Type]struct{} {
	n := t.clangType.NumArgTypes()
	for i := int32(0); i < n; i++ {
		arg := newType(t.tu, t.clangType.ArgType(uint32(i)))
		for k := range arg.RelatedTypes(acc, false) {
			acc[k] = struct{}{}
		}
	}
	result := newType(t.tu, t.clangType.ResultType())
	for k := range result.RelatedTypes(acc, false) {
		acc[k] = struct{}{}
	}
	return acc
}

// recordFields visits decl's direct children for field declarations, the
// Go equivalent of cindex.Type.get_fields() (libclang itself has no
// direct "list of fields" accessor).
func recordFields(decl clang.Cursor) []clang.Cursor {
	var fields []clang.Cursor
	decl.Visit(func(cursor, parent clang.Cursor) clang.ChildVisitResult {
		if cursor.Kind() == clang.Cursor_FieldDecl {
			fields = append(fields, cursor)
		}
		return clang.ChildVisit_Continue
	})
	return fields
}
