package sapigen

// GeneratorOptions configures one Generate call. It's the Go analogue of
// the sapi_* flag set, decoupled from the flag package so the core never
// depends on how its caller parses arguments.
type GeneratorOptions struct {
	// Name is the base name of the generated class: "Foo" yields "FooApi".
	Name string

	// FunctionNames whitelists functions to export; empty means "all
	// non-mangled extern-C functions discovered across every TU".
	FunctionNames []string

	// Namespace is "::"-separated, eg. "my::project". Empty means the
	// generated class isn't wrapped in a namespace.
	Namespace string

	// OutputFile is used only to derive the header guard; the Generator
	// never writes to it itself. Empty means no guard is emitted.
	OutputFile string

	// EmbedDir and EmbedName configure the optional embedded-sandboxee
	// support class. EmbedName empty means no embed class is emitted.
	EmbedDir  string
	EmbedName string
}
