package smt

import "fmt"

// optVal is the runtime representation of an Optional<V> value: the
// present|missing sum wrapping Dict/Set array ranges (spec §3).
type optVal struct {
	present bool
	value   any
}

func eval(e Expr, m *Model) (any, error) {
	switch e.Op {
	case OpConst:
		return e.Value, nil
	case OpVar:
		name := e.Value.(string)
		if v, ok := m.Assignment[name]; ok {
			return v, nil
		}
		// Reference-shaped sorts default to their own identity; an
		// un-asserted Array defaults to "nothing stored yet".
		switch e.Sort.Kind {
		case KindHeapRef, KindPyType:
			m.Assignment[name] = name
			return name, nil
		case KindArray, KindFunc:
			return nil, nil
		case KindOptional:
			return optVal{present: false}, nil
		default:
			return nil, fmt.Errorf("smt: unassigned variable %q", name)
		}

	case OpNot:
		v, err := evalBool(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		return !v, nil
	case OpAnd:
		for _, a := range e.Args {
			v, err := evalBool(a, m)
			if err != nil {
				return nil, err
			}
			if !v {
				return false, nil
			}
		}
		return true, nil
	case OpOr:
		for _, a := range e.Args {
			v, err := evalBool(a, m)
			if err != nil {
				return nil, err
			}
			if v {
				return true, nil
			}
		}
		return false, nil
	case OpImplies:
		a, err := evalBool(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		if !a {
			return true, nil
		}
		return evalBool(e.Args[1], m)

	case OpEq:
		return evalEq(e.Args[0], e.Args[1], m)
	case OpLt, OpLe, OpGt, OpGe:
		return evalCompare(e, m)

	case OpAdd, OpSub, OpMul, OpDiv, OpFloorDiv, OpMod, OpNeg:
		return evalArith(e, m)

	case OpConcat:
		a, err := evalStr(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		b, err := evalStr(e.Args[1], m)
		if err != nil {
			return nil, err
		}
		return a + b, nil
	case OpExtract:
		s, err := evalStr(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		start, err := evalInt(e.Args[1], m)
		if err != nil {
			return nil, err
		}
		length, err := evalInt(e.Args[2], m)
		if err != nil {
			return nil, err
		}
		if start < 0 || length < 0 || start+length > int64(len(s)) {
			return nil, fmt.Errorf("smt: extract out of range")
		}
		return s[start : start+length], nil
	case OpContains:
		s, err := evalStr(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		sub, err := evalStr(e.Args[1], m)
		if err != nil {
			return nil, err
		}
		return containsStr(s, sub), nil
	case OpLength:
		s, err := evalStr(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		return int64(len(s)), nil
	case OpRepeat:
		s, err := evalStr(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		n, err := evalInt(e.Args[1], m)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			n = 0
		}
		out := ""
		for i := int64(0); i < n; i++ {
			out += s
		}
		return out, nil

	case OpSelect:
		return evalSelect(e.Args[0], e.Args[1], m)
	case OpStore:
		// Arrays are represented lazily as their build expression; Store
		// is never evaluated to a concrete value on its own, only walked
		// by a later Select.
		return e, nil

	case OpSome:
		v, err := eval(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		return optVal{present: true, value: v}, nil
	case OpNone:
		return optVal{present: false}, nil
	case OpIsSome:
		o, err := evalOpt(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		return o.present, nil
	case OpUnwrap:
		o, err := evalOpt(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		if !o.present {
			return nil, fmt.Errorf("smt: unwrap of missing optional")
		}
		return o.value, nil

	case OpIssubclass:
		a, err := eval(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		b, err := eval(e.Args[1], m)
		if err != nil {
			return nil, err
		}
		sub, _ := a.(string)
		sup, _ := b.(string)
		if sub == sup {
			return true, nil
		}
		if m.Issubclass != nil {
			return m.Issubclass(sub, sup), nil
		}
		return false, nil

	case OpApply:
		return evalApply(e, m)

	case OpIte:
		c, err := evalBool(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		if c {
			return eval(e.Args[1], m)
		}
		return eval(e.Args[2], m)
	}
	return nil, fmt.Errorf("smt: unhandled op %v", e.Op)
}

func evalSelect(arr, key Expr, m *Model) (any, error) {
	k, err := eval(key, m)
	if err != nil {
		return nil, err
	}
	for {
		switch arr.Op {
		case OpStore:
			sk, err := eval(arr.Args[1], m)
			if err != nil {
				return nil, err
			}
			if equalValues(sk, k) {
				return eval(arr.Args[2], m)
			}
			arr = arr.Args[0]
			continue
		case OpIte:
			c, err := evalBool(arr.Args[0], m)
			if err != nil {
				return nil, err
			}
			if c {
				arr = arr.Args[1]
			} else {
				arr = arr.Args[2]
			}
			continue
		case OpVar, OpConst:
			// Nothing stored at k on this branch: the range default.
			if arr.Sort.Elem != nil && arr.Sort.Elem.Kind == KindOptional {
				return optVal{present: false}, nil
			}
			return zeroOf(*arr.Sort.Elem), nil
		default:
			return nil, fmt.Errorf("smt: select over unsupported array expression")
		}
	}
}

func zeroOf(s Sort) any {
	switch s.Kind {
	case KindBool:
		return false
	case KindInt:
		return int64(0)
	case KindReal:
		return float64(0)
	case KindStr:
		return ""
	case KindOptional:
		return optVal{present: false}
	default:
		return nil
	}
}

func evalApply(e Expr, m *Model) (any, error) {
	fn, ok := e.Args[0].Value.(string)
	if !ok {
		return nil, fmt.Errorf("smt: apply target is not a declared function variable")
	}
	args := make([]any, 0, len(e.Args)-1)
	for _, a := range e.Args[1:] {
		v, err := eval(a, m)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	key := m.applyKey(fn, args)
	if v, ok := m.funcCalls[key]; ok {
		return v, nil
	}
	v := zeroOf(e.Sort)
	m.funcCalls[key] = v
	return v, nil
}

func evalBool(e Expr, m *Model) (bool, error) {
	v, err := eval(e, m)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("smt: expected bool, got %T", v)
	}
	return b, nil
}

func evalStr(e Expr, m *Model) (string, error) {
	v, err := eval(e, m)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("smt: expected str, got %T", v)
	}
	return s, nil
}

func evalOpt(e Expr, m *Model) (optVal, error) {
	v, err := eval(e, m)
	if err != nil {
		return optVal{}, err
	}
	o, ok := v.(optVal)
	if !ok {
		return optVal{}, fmt.Errorf("smt: expected optional, got %T", v)
	}
	return o, nil
}

func evalInt(e Expr, m *Model) (int64, error) {
	v, err := eval(e, m)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("smt: expected numeric, got %T", v)
	}
}

func evalFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func equalValues(a, b any) bool {
	af, aok := evalFloat(a)
	bf, bok := evalFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func evalEq(ae, be Expr, m *Model) (any, error) {
	a, err := eval(ae, m)
	if err != nil {
		return nil, err
	}
	b, err := eval(be, m)
	if err != nil {
		return nil, err
	}
	if oa, ok := a.(optVal); ok {
		ob, ok2 := b.(optVal)
		if !ok2 {
			return false, nil
		}
		if oa.present != ob.present {
			return false, nil
		}
		if !oa.present {
			return true, nil
		}
		return equalValues(oa.value, ob.value), nil
	}
	return equalValues(a, b), nil
}

func evalCompare(e Expr, m *Model) (any, error) {
	a, err := eval(e.Args[0], m)
	if err != nil {
		return nil, err
	}
	b, err := eval(e.Args[1], m)
	if err != nil {
		return nil, err
	}
	if sa, ok := a.(string); ok {
		sb := b.(string)
		switch e.Op {
		case OpLt:
			return sa < sb, nil
		case OpLe:
			return sa <= sb, nil
		case OpGt:
			return sa > sb, nil
		case OpGe:
			return sa >= sb, nil
		}
	}
	af, ok1 := evalFloat(a)
	bf, ok2 := evalFloat(b)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("smt: comparison of incompatible values %T, %T", a, b)
	}
	switch e.Op {
	case OpLt:
		return af < bf, nil
	case OpLe:
		return af <= bf, nil
	case OpGt:
		return af > bf, nil
	case OpGe:
		return af >= bf, nil
	}
	return nil, fmt.Errorf("smt: unreachable comparison op")
}

// evalArith implements §4.4's numeric promotion lattice (bool -> int ->
// float) and the sign-aware floor-division/modulo rewrite.
func evalArith(e Expr, m *Model) (any, error) {
	if e.Op == OpNeg {
		v, err := eval(e.Args[0], m)
		if err != nil {
			return nil, err
		}
		switch n := v.(type) {
		case int64:
			return -n, nil
		case float64:
			return -n, nil
		}
		return nil, fmt.Errorf("smt: neg of non-numeric %T", v)
	}

	a, err := eval(e.Args[0], m)
	if err != nil {
		return nil, err
	}
	b, err := eval(e.Args[1], m)
	if err != nil {
		return nil, err
	}

	ai, aIsInt := asInt(a)
	bi, bIsInt := asInt(b)

	switch e.Op {
	case OpFloorDiv:
		if !aIsInt || !bIsInt {
			return nil, fmt.Errorf("smt: floor-div requires integral operands")
		}
		if bi == 0 {
			return nil, fmt.Errorf("smt: division by zero")
		}
		return floorDiv(ai, bi), nil
	case OpMod:
		if !aIsInt || !bIsInt {
			return nil, fmt.Errorf("smt: mod requires integral operands")
		}
		if bi == 0 {
			return nil, fmt.Errorf("smt: division by zero")
		}
		return ai - floorDiv(ai, bi)*bi, nil
	case OpDiv:
		af, _ := evalFloat(a)
		bf, _ := evalFloat(b)
		if bf == 0 {
			return nil, fmt.Errorf("smt: division by zero")
		}
		return af / bf, nil
	}

	if aIsInt && bIsInt {
		switch e.Op {
		case OpAdd:
			return ai + bi, nil
		case OpSub:
			return ai - bi, nil
		case OpMul:
			return ai * bi, nil
		}
	}
	af, _ := evalFloat(a)
	bf, _ := evalFloat(b)
	switch e.Op {
	case OpAdd:
		return af + bf, nil
	case OpSub:
		return af - bf, nil
	case OpMul:
		return af * bf, nil
	}
	return nil, fmt.Errorf("smt: unhandled arithmetic op")
}

func asInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// floorDiv implements Python's x // y: it takes Go's truncated quotient and
// subtracts one when the remainder is nonzero and its sign differs from
// y's (Go's integer division truncates toward zero, which disagrees with
// floor division whenever the operands have opposite signs and don't
// divide evenly).
func floorDiv(x, y int64) int64 {
	q := x / y
	r := x % y
	if r != 0 && ((r < 0) != (y < 0)) {
		q--
	}
	return q
}

func containsStr(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
