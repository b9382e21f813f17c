package symbolic

import (
	"fmt"
	"strings"

	"github.com/crosshair-go/symex/internal/smt"
)

// StrConcat, StrLen, StrContains implement the solver-native string
// operators of spec §4.4.
func StrConcat(a, b Str) Str { return NewStr(a.Snapshot(), smt.Concat(a.expr, b.expr)) }
func StrLen(a Str) Int       { return NewInt(a.Snapshot(), smt.Length(a.expr)) }
func StrContains(a, sub Str) Bool {
	return NewBool(a.Snapshot(), smt.Contains(a.expr, sub.expr))
}
func StrEq(a, b Str) Bool  { return NewBool(a.Snapshot(), smt.Eq(a.expr, b.expr)) }
func StrLt(a, b Str) Bool  { return NewBool(a.Snapshot(), smt.Lt(a.expr, b.expr)) }

// StrSlice implements `s[start:stop]` via `extract(var, start, stop-start)`
// (spec §4.4); callers normalize start/stop with ProcessSlice first.
func StrSlice(s Str, start, stop Int) Str {
	length := smt.Sub(stop.expr, start.expr)
	return NewStr(s.Snapshot(), smt.Extract(s.expr, start.expr, length))
}

// StrRepeat works on concrete values rather than adding a repetition
// theory to the solver. n must already be a concrete Go value by the time
// this is called (the caller is responsible for having forced it via the
// state space's FindModelValue). This package has no string-formatting
// (%) counterpart.
func StrRepeat(s string, n int64) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("symbolic: string repeat count must be non-negative, got %d", n)
	}
	return strings.Repeat(s, int(n)), nil
}
