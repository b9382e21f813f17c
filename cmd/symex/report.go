package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mattn/go-isatty"

	"github.com/crosshair-go/symex/internal/diagnostics"
)

// colorEnabled mirrors the teacher's detectColorLevel guard
// (internal/evaluator/builtins_term.go): no color when NO_COLOR is set, and
// none at all unless stdout is a real terminal.
func colorEnabled(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

const (
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiReset  = "\x1b[0m"
)

// reporter prints one analyze run's results to w, colorizing verdicts only
// when w is a terminal.
type reporter struct {
	w     io.Writer
	color bool
}

func newReporter(w io.Writer) *reporter {
	return &reporter{w: w, color: colorEnabled(w)}
}

func (r *reporter) paint(code, s string) string {
	if !r.color {
		return s
	}
	return code + s + ansiReset
}

// Report prints one target's findings. A target with no messages is
// reported Confirmed; any Refuted/PostFail-kind message marks it failed,
// cannot_confirm marks it unknown.
func (r *reporter) Report(target string, msgs []*diagnostics.Message) {
	if len(msgs) == 0 {
		fmt.Fprintf(r.w, "%s  %s\n", r.paint(ansiGreen, "OK"), target)
		return
	}
	label := r.paint(ansiRed, "FAIL")
	if onlyCannotConfirm(msgs) {
		label = r.paint(ansiYellow, "UNKNOWN")
	}
	fmt.Fprintf(r.w, "%s  %s\n", label, target)
	for _, m := range msgs {
		site := ""
		if m.File != "" {
			site = fmt.Sprintf(" (%s:%d:%d)", m.File, m.Line, m.Column)
		}
		fmt.Fprintf(r.w, "       [%s] %s%s\n", m.Kind, m.Text, site)
	}
}

func onlyCannotConfirm(msgs []*diagnostics.Message) bool {
	for _, m := range msgs {
		if m.Kind != diagnostics.CannotConfirm {
			return false
		}
	}
	return true
}

// Summary prints a final tally sorted by target name.
func (r *reporter) Summary(results map[string][]*diagnostics.Message) {
	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	failed := 0
	for _, name := range names {
		if len(results[name]) > 0 && !onlyCannotConfirm(results[name]) {
			failed++
		}
	}
	fmt.Fprintf(r.w, "\n%d targets, %d failed\n", len(names), failed)
}
