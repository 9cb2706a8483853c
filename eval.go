package shunting

import (
	"math"
	"strconv"
)

// Eval evaluates the expression with the given variables and returns the
// result. Division by zero and other exceptional operations produce infinities
// or NaN as usual for float64 arithmetic. If the expression uses a variable
// that v does not define, the error is a *NameError. v may be nil if the
// expression has no variables.
//
// Eval does not modify e, so it is safe to evaluate the same expression
// concurrently, each goroutine using its own Vars.
func (e *Expr) Eval(v Vars) (float64, error) {
	stack := make([]float64, 0, e.depth)
	for i := range e.code {
		in := &e.code[i]
		if len(stack) < in.pops() {
			return 0, underflow(i, in, len(stack))
		}
		switch in.op {
		case opNum:
			stack = append(stack, in.val)
		case opVar:
			if v == nil {
				return 0, &NameError{Name: in.name}
			}
			x, ok := v.Get(in.name)
			if !ok {
				return 0, &NameError{Name: in.name}
			}
			stack = append(stack, x)
		case opCall:
			k := len(stack) - in.argc
			r := in.fn.Call(stack[k:])
			stack = append(stack[:k], r)
		case opNeg:
			stack[len(stack)-1] = -stack[len(stack)-1]
		case opAdd, opSub, opMul, opDiv, opPow:
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			l := &stack[len(stack)-1]
			*l = arith(in.op, *l, r)
		default:
			return 0, &InternalError{Index: i, Reason: "invalid instruction " + in.op.String()}
		}
	}
	if len(stack) != 1 {
		return 0, &InternalError{Index: len(e.code), Reason: "inconsistent stack: " + strconv.Itoa(len(stack)) + " items"}
	}
	return stack[0], nil
}

// arith applies a binary operator.
func arith(op opcode, l, r float64) float64 {
	switch op {
	case opAdd:
		return l + r
	case opSub:
		return l - r
	case opMul:
		return l * r
	case opDiv:
		return l / r
	case opPow:
		return math.Pow(l, r)
	default:
		panic("shunting: not a binary operator: " + op.String())
	}
}

func underflow(i int, in *instr, n int) error {
	return &InternalError{
		Index:  i,
		Reason: in.op.String() + " needs " + strconv.Itoa(in.pops()) + " operands but the stack has " + strconv.Itoa(n),
	}
}

// Eval evaluates an expression with the given variables. It is the same as
// e.Eval(v).
func Eval(e *Expr, v Vars) (float64, error) {
	return e.Eval(v)
}

// EvalString is a shortcut to parse and evaluate an expression using the
// default functions.
func EvalString(src string, v Vars) (float64, error) {
	e, err := Parse(src)
	if err != nil {
		return 0, err
	}
	return e.Eval(v)
}
