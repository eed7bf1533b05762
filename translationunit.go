package sapigen

import (
	"path/filepath"

	"github.com/go-clang/v3.9/clang"
)

// TranslationUnit wraps a parsed clang.TranslationUnit and memoizes
// everything the Type Model and Generator need from a single preorder
// walk: declaration order by cursor hash, discovered functions,
// forward-declared structs, macro definitions by name, and the set of
// macro names actually referenced from retained types.
//
// Two TranslationUnits are never compared against each other; Type
// ordering is only meaningful within the TU that owns the declaration.
type TranslationUnit struct {
	path           string
	absPath        string
	limitScanDepth bool

	tu clang.TranslationUnit

	processed bool

	order         map[uint32]int
	functions     map[string]*Function // keyed by mangled name
	forwardDecls  map[Type]clang.Cursor
	defines       map[string]clang.Cursor
	requiredDefs  map[string]struct{}
	typesToSkip   map[Type]struct{}
}

func newTranslationUnit(path string, tu clang.TranslationUnit, limitScanDepth bool) *TranslationUnit {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &TranslationUnit{
		path:           path,
		absPath:        filepath.Clean(abs),
		limitScanDepth: limitScanDepth,
		tu:             tu,
		order:          make(map[uint32]int),
		functions:      make(map[string]*Function),
		forwardDecls:   make(map[Type]clang.Cursor),
		defines:        make(map[string]clang.Cursor),
		requiredDefs:   make(map[string]struct{}),
		typesToSkip:    make(map[Type]struct{}),
	}
}

// Functions triggers the lazy preorder walk on first call and returns
// every retained Function declared in this TU.
func (tu *TranslationUnit) Functions() []*Function {
	tu.process()
	fns := make([]*Function, 0, len(tu.functions))
	for _, f := range tu.functions {
		fns = append(fns, f)
	}
	return fns
}

// ForwardDecl returns the forward-declaration cursor for t and whether
// one was recorded during the walk.
func (tu *TranslationUnit) ForwardDecl(t Type) (clang.Cursor, bool) {
	tu.process()
	c, ok := tu.forwardDecls[t]
	return c, ok
}

// RequiredDefines returns the macro names referenced, directly or
// transitively, by any type emitted from this TU so far. Grows
// monotonically as the Type Model's related-type closure walks more
// declarations; never shrinks.
func (tu *TranslationUnit) RequiredDefines() map[string]struct{} {
	return tu.requiredDefs
}

func (tu *TranslationUnit) defineCursor(name string) (clang.Cursor, bool) {
	tu.process()
	c, ok := tu.defines[name]
	return c, ok
}

// markTypeSkipped records t as a type whose declaration is rendered
// inline by its typedef parent and must not also be emitted standalone.
func (tu *TranslationUnit) markTypeSkipped(t Type) {
	tu.typesToSkip[t] = struct{}{}
}

// IsSkipped reports whether t was recorded by markTypeSkipped.
func (tu *TranslationUnit) IsSkipped(t Type) bool {
	_, ok := tu.typesToSkip[t]
	return ok
}

// declOrder returns the declaration's position in the preorder walk; callers
// must only compare values obtained from the same TranslationUnit.
func (tu *TranslationUnit) declOrder(cursor clang.Cursor) (int, bool) {
	tu.process()
	idx, ok := tu.order[cursor.Hash()]
	return idx, ok
}

// process performs the single preorder walk described by spec §4.2: it
// indexes every readable declaration and macro definition by visitation
// order, records forward-declared structs, and discovers extern-C
// functions (optionally limited to those declared in the TU's own top
// file).
func (tu *TranslationUnit) process() {
	if tu.processed {
		return
	}
	tu.processed = true

	index := 0
	root := tu.tu.TranslationUnitCursor()
	root.Visit(func(cursor, parent clang.Cursor) clang.ChildVisitResult {
		kind, ok := safeKind(cursor)
		if !ok {
			// Undecodable cursor kind: a front-end version mismatch.
			// Skipped rather than aborting, for forward/backward
			// compatibility.
			return clang.ChildVisit_Recurse
		}

		i := index
		index++

		if kind.IsDeclaration() {
			tu.order[cursor.Hash()] = i
		}

		if kind == clang.Cursor_MacroDefinition && hasFileLocation(cursor) {
			tu.order[cursor.Hash()] = i
			tu.defines[cursor.Spelling()] = cursor
		}

		if kind == clang.Cursor_StructDecl && !cursor.IsDefinition() {
			tu.forwardDecls[newType(tu, cursor.Type())] = cursor
		}

		if kind == clang.Cursor_FunctionDecl && cursor.Linkage() != clang.Linkage_Internal {
			if !tu.limitScanDepth || tu.declaredInTopFile(cursor) {
				f := newFunction(tu, cursor)
				if f.IsExternC() {
					tu.functions[f.MangledName()] = f
				}
			}
		}

		return clang.ChildVisit_Recurse
	})
}

// declaredInTopFile normalizes both sides of the scan-depth comparison
// to absolute, cleaned paths before comparing, addressing the relative-
// vs-absolute mismatch flagged in spec §9.
func (tu *TranslationUnit) declaredInTopFile(cursor clang.Cursor) bool {
	file, _, _, _ := cursor.Location().FileLocation()
	if file.IsInvalid() {
		return false
	}
	abs, err := filepath.Abs(file.Name())
	if err != nil {
		abs = file.Name()
	}
	return filepath.Clean(abs) == tu.absPath
}

// searchForMacroName scans cursor's tokens for spellings that match a
// known macro definition, adding each to requiredDefines and recursing
// into that macro's own definition cursor. Idempotent and terminating
// because requiredDefines only grows.
func (tu *TranslationUnit) searchForMacroName(cursor clang.Cursor) {
	for _, tok := range tokenSpellings(tu.tu, cursor) {
		if _, alreadyRequired := tu.requiredDefs[tok]; alreadyRequired {
			continue
		}
		def, ok := tu.defineCursor(tok)
		if !ok {
			continue
		}
		tu.requiredDefs[tok] = struct{}{}
		tu.searchForMacroName(def)
	}
}

func hasFileLocation(cursor clang.Cursor) bool {
	file, _, _, _ := cursor.Location().FileLocation()
	return !file.IsInvalid()
}

// safeKind guards against cursor kinds the linked libclang version
// doesn't expose through the binding: the Python implementation catches
// ValueError from cursor.kind for the same reason.
func safeKind(cursor clang.Cursor) (kind clang.CursorKind, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return cursor.Kind(), true
}
