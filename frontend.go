package sapigen

import (
	"os"
	"strings"
	"sync"

	"github.com/go-clang/v3.9/clang"
	"github.com/pkg/errors"
)

// libclangVersionProbe lists the suffixes this tool tries, in order,
// when confirming the libclang front end it's linked against is usable.
// Mirrors the versioned fallback list the original Python implementation
// walks with ctypes.util.find_library before settling on one.
var libclangVersionProbe = []string{"", "12", "11", "10", "9", "8", "7", "6.0", "5.0", "4.0"}

var initLibclangOnce sync.Once

// initLibclang confirms the linked libclang front end is reachable.
// Idempotent and safe to call from every entry point: the real
// initialization cost (cgo link against libclang) happens once at
// program load, so this only needs to run the version probe and log the
// resolved version a single time per process.
func initLibclang() {
	initLibclangOnce.Do(func() {
		version := clang.GetClangVersion()
		for _, suffix := range libclangVersionProbe {
			if suffix == "" || strings.Contains(version, suffix) {
				log.Debugw("libclang front end resolved", "version", version)
				return
			}
		}
		log.Warnw("libclang version did not match any known probe suffix, proceeding anyway", "version", version)
	})
}

// parseOptions is the fixed set of TranslationUnit parse flags required
// by the generator: skip function bodies (we never need them), tolerate
// incomplete parses (headers routinely can't be parsed standalone), and
// retain a detailed preprocessing record so macro definitions show up as
// AST cursors.
func parseOptions() uint32 {
	return uint32(clang.TranslationUnit_SkipFunctionBodies) |
		uint32(clang.TranslationUnit_Incomplete) |
		uint32(clang.TranslationUnit_DetailedPreprocessingRecord)
}

// UnsavedFile is an in-memory overlay for a path that may or may not
// exist on disk. It's consumed only by the test harness, the same way
// the Python implementation's unsaved_files parameter is documented as
// test-only.
type UnsavedFile struct {
	Filename string
	Contents string
}

// ParseFile drives the front end to parse path with compileFlags,
// returning a TranslationUnit ready for querying. If unsaved contains an
// entry for path, the path is not required to exist on disk.
func ParseFile(path string, compileFlags []string, unsaved []UnsavedFile, limitScanDepth bool) (*TranslationUnit, error) {
	initLibclang()

	if !hasUnsavedOverlay(path, unsaved) {
		if _, err := os.Stat(path); err != nil {
			return nil, errors.Wrapf(ErrIO, "path %s", path)
		}
	}

	lang := "-xc++"
	if strings.HasSuffix(path, ".c") {
		lang = "-xc"
	}
	args := append([]string{lang}, compileFlags...)
	args = append(args, "-I.")

	idx := clang.NewIndex(0, 0)

	var clangUnsaved []clang.UnsavedFile
	for _, u := range unsaved {
		clangUnsaved = append(clangUnsaved, clang.UnsavedFile{
			Filename: u.Filename,
			Contents: u.Contents,
		})
	}

	var tu clang.TranslationUnit
	if cErr := idx.ParseTranslationUnit2(path, args, clangUnsaved, parseOptions(), &tu); clang.ErrorCode(cErr) != clang.Error_Success {
		return nil, errors.Errorf("parsing %s: %s", path, clang.ErrorCode(cErr).Spelling())
	}

	logDiagnostics(path, tu)

	return newTranslationUnit(path, tu, limitScanDepth), nil
}

// logDiagnostics surfaces front-end diagnostics as parse-warning log
// entries. They never abort generation; per spec they're "currently
// surfaced only via logging, not fatal".
func logDiagnostics(path string, tu clang.TranslationUnit) {
	n := tu.NumDiagnostics()
	for i := uint32(0); i < n; i++ {
		d := tu.Diagnostic(i)
		log.Warnw("parse-warning", "path", path, "diagnostic", d.Spelling())
	}
}

func hasUnsavedOverlay(path string, unsaved []UnsavedFile) bool {
	for _, u := range unsaved {
		if u.Filename == path {
			return true
		}
	}
	return false
}
