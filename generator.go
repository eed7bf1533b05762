package sapigen

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const autoGeneratedBanner = "// AUTO-GENERATED by the Sandboxed API generator.\n" +
	"// Edits will be discarded when regenerating this file.\n"

var fixedIncludes = []string{
	"absl/status/status.h",
	"absl/status/statusor.h",
	"sandboxed_api/sandbox.h",
	"sandboxed_api/util/status_macros.h",
	"sandboxed_api/vars.h",
}

// Generator orchestrates emission of one interface header from a set of
// parsed translation units: picking functions by name, computing and
// ordering the union of related types, collecting forward declarations
// and required macros, and rendering the final header.
type Generator struct {
	units []*TranslationUnit
}

// NewGenerator builds a Generator over the given translation units. The
// Generator exclusively owns this slice; callers must not mutate it
// after construction.
func NewGenerator(units []*TranslationUnit) *Generator {
	return &Generator{units: units}
}

// Generate renders the complete interface header described by opts.
func (g *Generator) Generate(opts GeneratorOptions) (string, error) {
	log.Infow("generating interface", "name", opts.Name, "units", len(g.units))

	functions := g.functions(opts.FunctionNames)
	relatedTypes := g.relatedTypes(functions)

	forwardDecls := g.forwardDecls(relatedTypes)
	defines := g.defines()

	typeDecls := make([]string, len(relatedTypes))
	for i, t := range relatedTypes {
		typeDecls[i] = t.Stringify() + ";"
	}

	renderedTypes := append(append(defines, forwardDecls...), typeDecls...)

	functionBodies := make([]string, 0, len(functions))
	for _, f := range functions {
		body, err := g.formatFunction(f)
		if err != nil {
			return "", err
		}
		functionBodies = append(functionBodies, body)
	}

	return g.render(opts, renderedTypes, functionBodies)
}

// functions gathers the union of non-mangled extern-C functions across
// every TU, filtered by names (empty means keep all), deduplicated by
// mangled name, and sorted by spelling.
func (g *Generator) functions(names []string) []*Function {
	whitelist := toSet(names)

	byMangled := make(map[string]*Function)
	for _, tu := range g.units {
		for _, f := range tu.Functions() {
			if len(whitelist) > 0 {
				if _, ok := whitelist[f.Name]; !ok {
					continue
				}
			}
			byMangled[f.MangledName()] = f
		}
	}

	out := make([]*Function, 0, len(byMangled))
	for _, f := range byMangled {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

// relatedTypes computes, per function in iteration order, the closure of
// types it needs; each closure is sorted by its owning TU's visitation
// order before being concatenated, and a type already processed for an
// earlier function is never re-emitted. Finally, every type recorded in
// any TU's skip set (typedef-embedded structs) is dropped.
func (g *Generator) relatedTypes(functions []*Function) []Type {
	processed := make(map[Type]struct{})
	var ordered []Type
	skip := make(map[Type]struct{})

	for _, f := range functions {
		closure := f.RelatedTypes(nil)

		fresh := make([]Type, 0, len(closure))
		for t := range closure {
			if _, seen := processed[t]; !seen {
				fresh = append(fresh, t)
			}
		}
		sort.Slice(fresh, func(i, j int) bool { return fresh[i].Less(fresh[j]) })
		ordered = append(ordered, fresh...)

		for t := range closure {
			processed[t] = struct{}{}
		}
		for t := range f.tu.typesToSkip {
			skip[t] = struct{}{}
		}
	}

	out := ordered[:0]
	for _, t := range ordered {
		if _, skipped := skip[t]; !skipped {
			out = append(out, t)
		}
	}

	return out
}

// forwardDecls emits, in types' order, the tokenized forward declaration
// for every type present in any TU's forward-decl map.
func (g *Generator) forwardDecls(types []Type) []string {
	var out []string
	done := make(map[Type]struct{})

	for _, t := range types {
		if _, ok := done[t]; ok {
			continue
		}
		for _, tu := range g.units {
			if cursor, ok := tu.ForwardDecl(t); ok {
				out = append(out, stringifyTokens(tokensOf(tu.tu, cursor), "\n")+";")
				done[t] = struct{}{}
				break
			}
		}
	}

	return out
}

// defines emits, per TU, the #define directives whose names are both
// required and actually defined, sorted by visitation order.
func (g *Generator) defines() []string {
	var out []string

	for _, tu := range g.units {
		type namedCursor struct {
			name  string
			order int
		}
		var candidates []namedCursor
		for name := range tu.RequiredDefines() {
			if _, ok := tu.defines[name]; ok {
				order, _ := tu.declOrder(tu.defines[name])
				candidates = append(candidates, namedCursor{name: name, order: order})
			}
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].order < candidates[j].order })

		for _, c := range candidates {
			tokens := tokensOf(tu.tu, tu.defines[c.name])
			out = append(out, "#define "+stringifyTokens(tokens, " \\\n"))
		}
	}

	return out
}

// formatFunction renders one method of the Api class from the template
// in spec §4.7: the original declaration as a comment, the method
// signature, a mapped-type local for every non-pointer argument, the
// sandbox call, and the appropriately shaped return statement.
func (g *Generator) formatFunction(f *Function) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "  // %s\n", f.OriginalDefinition)

	args := make([]string, len(f.Arguments))
	for i, a := range f.Arguments {
		args[i] = a.Declaration()
	}
	fmt.Fprintf(&b, "  %s %s(%s) {\n", f.Result.String(), f.Name, strings.Join(args, ", "))

	resultMapped, err := f.Result.MappedType()
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "    %s ret;\n", resultMapped)

	for _, a := range f.Arguments {
		if a.IsSugaredPointer() {
			continue
		}
		wrapped, err := a.Wrapped()
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "    %s;\n", wrapped)
	}

	callArgs := f.CallArguments()
	callArgsStr := ""
	if len(callArgs) > 0 {
		callArgsStr = ", " + strings.Join(callArgs, ", ")
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "    SAPI_RETURN_IF_ERROR(sandbox_->Call(\"%s\", &ret%s));\n", f.Name, callArgsStr)

	switch {
	case f.Result.IsVoid():
		b.WriteString("    return absl::OkStatus();\n")
	case f.Result.IsSugaredEnum():
		fmt.Fprintf(&b, "    return static_cast<%s>(ret.GetValue());\n", f.Result.Spelling())
	default:
		b.WriteString("    return ret.GetValue();\n")
	}
	b.WriteString("  }")

	return b.String(), nil
}

// render assembles the final header text in the fixed order: banner,
// optional guard, fixed includes, optional embed include, namespace
// opens, type declarations, optional embed class, the Api class, one
// method per function, namespace closes, guard close.
func (g *Generator) render(opts GeneratorOptions, relatedTypes []string, functionBodies []string) (string, error) {
	var b strings.Builder
	b.WriteString(autoGeneratedBanner)

	var guard string
	if opts.OutputFile != "" {
		var err error
		guard, err = HeaderGuard(opts.OutputFile)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "#ifndef %s\n#define %s\n", guard, guard)
	}

	for _, inc := range fixedIncludes {
		fmt.Fprintf(&b, "#include \"%s\"\n", inc)
	}

	if opts.EmbedName != "" {
		embedDir := opts.EmbedDir
		fmt.Fprintf(&b, "#include \"%s\"\n", path.Join(embedDir, opts.EmbedName)+"_embed.h")
	}

	namespaces := splitNamespace(opts.Namespace)
	if len(namespaces) > 0 {
		b.WriteString("\n")
		for _, n := range namespaces {
			fmt.Fprintf(&b, "namespace %s {\n", n)
		}
	}

	if len(relatedTypes) > 0 {
		b.WriteString("\n")
		for _, t := range relatedTypes {
			b.WriteString(t)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")

	if opts.EmbedName != "" {
		embedName := strings.ReplaceAll(opts.EmbedName, "-", "_")
		fmt.Fprintf(&b, "class %sSandbox : public ::sapi::Sandbox {\n public:\n  %sSandbox() : ::sapi::Sandbox(%s_embed_create()) {}\n};\n", opts.Name, opts.Name, embedName)
	}

	fmt.Fprintf(&b, "class %sApi {\n", opts.Name)
	b.WriteString(" public:\n")
	fmt.Fprintf(&b, "  explicit %sApi(::sapi::Sandbox* sandbox) : sandbox_(sandbox) {}\n", opts.Name)
	b.WriteString("  // Deprecated\n")
	b.WriteString("  ::sapi::Sandbox* GetSandbox() const { return sandbox(); }\n")
	b.WriteString("  ::sapi::Sandbox* sandbox() const { return sandbox_; }\n")

	for _, body := range functionBodies {
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}

	b.WriteString("\n private:\n")
	b.WriteString("  ::sapi::Sandbox* sandbox_;\n")
	b.WriteString("};\n")

	if len(namespaces) > 0 {
		for i := len(namespaces) - 1; i >= 0; i-- {
			fmt.Fprintf(&b, "}  // namespace %s\n", namespaces[i])
		}
	}

	if guard != "" {
		fmt.Fprintf(&b, "#endif  // %s\n", guard)
	}

	log.Infow("generation complete", "name", opts.Name)

	return b.String(), nil
}

func splitNamespace(ns string) []string {
	if ns == "" {
		return nil
	}
	return strings.Split(ns, "::")
}

func toSet(names []string) map[string]struct{} {
	out := make(map[string]struct{}, len(names))
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// HeaderGuard derives a header-guard macro name from an output path: the
// prefix before "genfiles/" is dropped, a trailing ".gen" is dropped,
// then the result is upper-cased with '.', '-', '/' replaced by '_' and
// a trailing underscore appended.
func HeaderGuard(outputPath string) (string, error) {
	if outputPath == "" {
		return "", errors.Wrap(ErrInvalidArgument, "cannot derive header guard from empty path")
	}

	p := outputPath
	if idx := strings.Index(p, "genfiles/"); idx >= 0 {
		p = p[idx+len("genfiles/"):]
	}
	p = strings.TrimSuffix(p, ".gen")

	p = strings.ToUpper(p)
	replacer := strings.NewReplacer(".", "_", "-", "_", "/", "_")
	p = replacer.Replace(p)

	return p + "_", nil
}
