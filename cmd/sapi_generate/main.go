// Command sapi_generate parses one or more C/C++ headers and emits a
// Sandboxed API interface header wrapping the chosen exported functions.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	sapigen "github.com/google/sandboxed-api"
)

// stringList collects a flag repeated on the command line, or a single
// comma-separated value, into a []string: "-sapi_in a.h -sapi_in b.h" and
// "-sapi_in a.h,b.h" both work.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

type args struct {
	name           *string
	in             stringList
	out            *string
	namespace      *string
	isystem        *string
	functions      stringList
	embedDir       *string
	embedName      *string
	limitScanDepth *bool
}

func readArgs() *args {
	a := &args{
		name:           flag.String("sapi_name", "", "library name"),
		out:            flag.String("sapi_out", "", "output header file"),
		namespace:      flag.String("sapi_ns", "", "namespace"),
		isystem:        flag.String("sapi_isystem", "", "file listing system include directories, one per line"),
		embedDir:       flag.String("sapi_embed_dir", "", "directory with embed includes"),
		embedName:      flag.String("sapi_embed_name", "", "name of the embed object"),
		limitScanDepth: flag.Bool("sapi_limit_scan_depth", false, "scan only functions from top level file in compilation unit"),
	}
	flag.Var(&a.in, "sapi_in", "input files to analyze (repeatable)")
	flag.Var(&a.functions, "sapi_functions", "function list to analyze (repeatable, empty means all)")
	flag.Parse()
	return a
}

func main() {
	a := readArgs()

	if *a.name == "" || len(a.in) == 0 {
		log.Fatal("sapi_name and sapi_in are required")
	}

	// Positional arguments after the flags (conventionally separated by
	// "--" on the command line) are forwarded verbatim as compiler flags.
	compileFlags := append([]string{}, flag.Args()...)
	compileFlags = extractIsystem(*a.isystem, compileFlags)

	units := make([]*sapigen.TranslationUnit, 0, len(a.in))
	for _, path := range a.in {
		tu, err := sapigen.ParseFile(path, compileFlags, nil, *a.limitScanDepth)
		if err != nil {
			log.Fatalf("parsing %s: %v", path, err)
		}
		units = append(units, tu)
	}

	generator := sapigen.NewGenerator(units)
	result, err := generator.Generate(sapigen.GeneratorOptions{
		Name:          *a.name,
		FunctionNames: a.functions,
		Namespace:     *a.namespace,
		OutputFile:    *a.out,
		EmbedDir:      *a.embedDir,
		EmbedName:     *a.embedName,
	})
	if err != nil {
		log.Fatalf("generating interface: %v", err)
	}

	if *a.out == "" {
		fmt.Print(result)
		return
	}
	if err := os.WriteFile(*a.out, []byte(result), 0644); err != nil {
		log.Fatalf("writing %s: %v", *a.out, err)
	}
}

// extractIsystem reads path, appending "-isystem <line>" per line to
// flags. A missing path is tolerated silently.
func extractIsystem(path string, flags []string) []string {
	if path == "" {
		return flags
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return flags
	}
	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		flags = append(flags, "-isystem", line)
	}
	return flags
}
