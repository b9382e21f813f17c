// Package diagnostics defines the messages the engine reports back to its
// caller, and a small progress logger (Logger) that no other package
// constructs.
package diagnostics

import (
	"strconv"

	"github.com/google/uuid"
)

// Kind classifies an AnalysisMessage, per spec §3's Call Analysis model.
type Kind string

const (
	Syntax        Kind = "syntax"         // malformed condition source
	PreUnsat      Kind = "pre_unsat"      // every path failed its preconditions
	CannotConfirm Kind = "cannot_confirm" // deadline/budget exhausted with no verdict
	ExecErr       Kind = "exec_err"       // undeclared exception from the target body
	PostErr       Kind = "post_err"       // postcondition raised, or mutation audit failed
	PostFail      Kind = "post_fail"      // postcondition evaluated false
)

// Message is one reportable finding. ID is a fresh UUID, so messages stay
// distinct without a shared counter; search-tree nodes carry no ID of
// their own, and the replay log travels in ExecutionLog.
type Message struct {
	ID     uuid.UUID
	Kind   Kind
	Text   string
	File   string
	Line   int
	Column int

	// Traceback is the Go-formatted stack captured at the point the
	// triggering exception/panic was recovered, empty for messages that
	// don't originate from one (e.g. PostFail).
	Traceback string

	// TestFn, ConditionSrc, and ExecutionLog are optional context a
	// driver can use to build a regression test or a deterministic
	// replay, per spec §6.
	TestFn       string
	ConditionSrc string
	ExecutionLog []bool
}

// New builds a Message with a fresh ID.
func New(kind Kind, text string) *Message {
	return &Message{ID: uuid.New(), Kind: kind, Text: text}
}

// WithSite sets the message's source location, following spec §7: messages
// are located at the failing expression's own site if that site is inside
// the target function, else remapped to the target's definition site.
func (m *Message) WithSite(file string, line, column int) *Message {
	m.File, m.Line, m.Column = file, line, column
	return m
}

// WithTraceback attaches a captured Go stack trace.
func (m *Message) WithTraceback(tb string) *Message {
	m.Traceback = tb
	return m
}

// WithExecutionLog attaches the recorded fork bit-sequence for replay.
func (m *Message) WithExecutionLog(log []bool) *Message {
	m.ExecutionLog = append([]bool(nil), log...)
	return m
}

// key is used by the calltree analyzer to deduplicate near-identical
// messages, mirroring the original implementation's per-(file, line,
// column, kind) collapsing.
func (m *Message) key() string {
	return string(m.Kind) + "@" + m.File + ":" + strconv.Itoa(m.Line) + ":" + strconv.Itoa(m.Column)
}

// Key exposes the dedup key for callers outside the package (the calltree
// analyzer lives in a sibling package).
func (m *Message) Key() string { return m.key() }
