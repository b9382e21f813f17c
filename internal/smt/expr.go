package smt

// Op is an expression node tag. The set is closed and small on purpose:
// every symbolic-value variant operator in internal/symbolic lowers to one
// of these rather than growing the algebra ad hoc.
type Op uint8

const (
	OpConst Op = iota
	OpVar

	OpNot
	OpAnd
	OpOr
	OpImplies

	OpEq
	OpLt
	OpLe
	OpGt
	OpGe

	OpAdd
	OpSub
	OpMul
	OpDiv     // real division
	OpFloorDiv
	OpMod
	OpNeg

	OpConcat
	OpExtract // (str, start, length)
	OpContains
	OpLength
	OpRepeat

	OpSelect // (array, key)
	OpStore  // (array, key, value) -> new array

	OpSome
	OpNone
	OpIsSome
	OpUnwrap

	OpIssubclass // (typeval, typeval)

	OpApply // (funcVar, arg...)

	OpIte // (cond, then, else)
)

// Expr is an SMT expression. Const leaves carry a Go value in Value;
// Var leaves carry their declared name in Value (a string).
type Expr struct {
	Op    Op
	Sort  Sort
	Args  []Expr
	Value any
}

func BoolConst(b bool) Expr  { return Expr{Op: OpConst, Sort: Bool(), Value: b} }
func IntConst(n int64) Expr  { return Expr{Op: OpConst, Sort: Int(), Value: n} }
func RealConst(r float64) Expr { return Expr{Op: OpConst, Sort: Real(), Value: r} }
func StrConst(s string) Expr { return Expr{Op: OpConst, Sort: Str(), Value: s} }

func Var(name string, sort Sort) Expr { return Expr{Op: OpVar, Sort: sort, Value: name} }

// ConstOf wraps an already-evaluated Go value (as returned by Model.Eval)
// back into a Const leaf of the given sort, for re-asserting a materialized
// value as an equality constraint (statespace.State.FindModelValue).
func ConstOf(sort Sort, value any) Expr { return Expr{Op: OpConst, Sort: sort, Value: value} }

func Not(e Expr) Expr      { return Expr{Op: OpNot, Sort: Bool(), Args: []Expr{e}} }
func And(es ...Expr) Expr  { return Expr{Op: OpAnd, Sort: Bool(), Args: es} }
func Or(es ...Expr) Expr   { return Expr{Op: OpOr, Sort: Bool(), Args: es} }
func Implies(a, b Expr) Expr { return Expr{Op: OpImplies, Sort: Bool(), Args: []Expr{a, b}} }

func Eq(a, b Expr) Expr { return Expr{Op: OpEq, Sort: Bool(), Args: []Expr{a, b}} }
func Lt(a, b Expr) Expr { return Expr{Op: OpLt, Sort: Bool(), Args: []Expr{a, b}} }
func Le(a, b Expr) Expr { return Expr{Op: OpLe, Sort: Bool(), Args: []Expr{a, b}} }
func Gt(a, b Expr) Expr { return Expr{Op: OpGt, Sort: Bool(), Args: []Expr{a, b}} }
func Ge(a, b Expr) Expr { return Expr{Op: OpGe, Sort: Bool(), Args: []Expr{a, b}} }

func Add(a, b Expr) Expr      { return Expr{Op: OpAdd, Sort: a.Sort, Args: []Expr{a, b}} }
func Sub(a, b Expr) Expr      { return Expr{Op: OpSub, Sort: a.Sort, Args: []Expr{a, b}} }
func Mul(a, b Expr) Expr      { return Expr{Op: OpMul, Sort: a.Sort, Args: []Expr{a, b}} }
func Div(a, b Expr) Expr      { return Expr{Op: OpDiv, Sort: Real(), Args: []Expr{a, b}} }
func FloorDiv(a, b Expr) Expr { return Expr{Op: OpFloorDiv, Sort: Int(), Args: []Expr{a, b}} }
func Mod(a, b Expr) Expr      { return Expr{Op: OpMod, Sort: Int(), Args: []Expr{a, b}} }
func Neg(a Expr) Expr         { return Expr{Op: OpNeg, Sort: a.Sort, Args: []Expr{a}} }

func Concat(a, b Expr) Expr            { return Expr{Op: OpConcat, Sort: Str(), Args: []Expr{a, b}} }
func Extract(s, start, length Expr) Expr { return Expr{Op: OpExtract, Sort: Str(), Args: []Expr{s, start, length}} }
func Contains(s, sub Expr) Expr        { return Expr{Op: OpContains, Sort: Bool(), Args: []Expr{s, sub}} }
func Length(s Expr) Expr               { return Expr{Op: OpLength, Sort: Int(), Args: []Expr{s}} }
func Repeat(s, n Expr) Expr            { return Expr{Op: OpRepeat, Sort: Str(), Args: []Expr{s, n}} }

func Select(arr, key Expr) Expr {
	return Expr{Op: OpSelect, Sort: *arr.Sort.Elem, Args: []Expr{arr, key}}
}

func Store(arr, key, val Expr) Expr {
	return Expr{Op: OpStore, Sort: arr.Sort, Args: []Expr{arr, key, val}}
}

func Some(v Expr) Expr  { return Expr{Op: OpSome, Sort: Optional(v.Sort), Args: []Expr{v}} }
func NoneOf(elem Sort) Expr { return Expr{Op: OpNone, Sort: Optional(elem)} }
func IsSome(opt Expr) Expr { return Expr{Op: OpIsSome, Sort: Bool(), Args: []Expr{opt}} }
func Unwrap(opt Expr) Expr { return Expr{Op: OpUnwrap, Sort: *opt.Sort.Elem, Args: []Expr{opt}} }

func Issubclass(sub, sup Expr) Expr {
	return Expr{Op: OpIssubclass, Sort: Bool(), Args: []Expr{sub, sup}}
}

func Apply(fn Expr, args ...Expr) Expr {
	return Expr{Op: OpApply, Sort: *fn.Sort.Ret, Args: append([]Expr{fn}, args...)}
}

func Ite(cond, then, els Expr) Expr {
	return Expr{Op: OpIte, Sort: then.Sort, Args: []Expr{cond, then, els}}
}

// Vars returns the set of free Var leaves reachable from e, keyed by name.
func (e Expr) Vars(out map[string]Expr) {
	if e.Op == OpVar {
		out[e.Value.(string)] = e
		return
	}
	for _, a := range e.Args {
		a.Vars(out)
	}
}
