package diagnostics

import (
	"fmt"
	"io"
	"os"

	"github.com/crosshair-go/symex/internal/config"
)

// Logger narrates analyzer progress. It is not a general logging facility;
// the core only ever logs path-attempt summaries and status bubbling, so
// this stays a thin wrapper rather than pulling in a structured-logging
// library the rest of the engine has no other use for.
type Logger struct {
	out io.Writer
}

// NewLogger returns a Logger writing to w, or to os.Stderr if w is nil.
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}
	return &Logger{out: w}
}

// Pathf logs one path-attempt outcome. Suppressed in test mode so fixtures
// stay quiet, mirroring config.IsTestMode's use elsewhere in the engine.
func (l *Logger) Pathf(format string, args ...any) {
	if config.IsTestMode || l == nil {
		return
	}
	fmt.Fprintf(l.out, "[symex] "+format+"\n", args...)
}
