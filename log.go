package sapigen

import "go.uber.org/zap"

// log is the package-level logger used by the Parser Driver and the
// Generator for progress tracing and non-fatal parse-warning
// diagnostics. It starts as a zap production logger; SetLogger replaces
// it.
var log = zap.Must(zap.NewProduction()).Sugar()

// SetLogger replaces the package-level logger, eg. with
// zaptest.NewLogger(t).Sugar() from a test, or a quieter config for CLI
// use. Passing nil installs a no-op logger.
func SetLogger(l *zap.SugaredLogger) {
	if l == nil {
		log = zap.NewNop().Sugar()
		return
	}
	log = l
}
