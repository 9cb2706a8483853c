package shunting

import (
	"math"
	"math/big"
	"strconv"

	"github.com/zephyrtronium/bigfloat"
)

// EvalBig evaluates the expression with the given variables to prec bits of
// precision. If prec is 0, the precision is 64. Numeric literals are parsed
// from their original text at the given precision, so "0.1" is not limited to
// the nearest float64. Variables are converted exactly from their float64
// values. Functions without a precise implementation are evaluated in float64.
//
// Unlike Eval, operations which would produce NaN, e.g. 0/0 or inf-inf,
// result in a *DomainError, since big.Float cannot represent NaN. Infinities
// are still allowed.
func (e *Expr) EvalBig(v Vars, prec uint) (*big.Float, error) {
	if prec == 0 {
		prec = 64
	}
	stack := make([]*big.Float, 0, e.depth)
	push := func() *big.Float {
		r := new(big.Float).SetPrec(prec)
		stack = append(stack, r)
		return r
	}
	for i := range e.code {
		in := &e.code[i]
		if len(stack) < in.pops() {
			return nil, underflow(i, in, len(stack))
		}
		switch in.op {
		case opNum:
			r := push()
			if _, _, err := r.Parse(in.name, 10); err != nil {
				// Literals beyond the exponent range of big.Float have
				// already been rounded to ±inf or zero by the parser.
				r.SetFloat64(in.val)
			}
		case opVar:
			if v == nil {
				return nil, &NameError{Name: in.name}
			}
			x, ok := v.Get(in.name)
			if !ok {
				return nil, &NameError{Name: in.name}
			}
			if math.IsNaN(x) {
				return nil, &DomainError{Func: in.name}
			}
			push().SetFloat64(x)
		case opCall:
			k := len(stack) - in.argc
			r := new(big.Float).SetPrec(prec)
			if err := callBig(in, r, stack[k:]); err != nil {
				return nil, err
			}
			stack = append(stack[:k], r)
		case opNeg:
			x := stack[len(stack)-1]
			x.Neg(x)
		case opAdd, opSub, opMul, opDiv, opPow:
			r := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			l := stack[len(stack)-1]
			if err := arithBig(in.op, l, r); err != nil {
				return nil, err
			}
		default:
			return nil, &InternalError{Index: i, Reason: "invalid instruction " + in.op.String()}
		}
	}
	if len(stack) != 1 {
		return nil, &InternalError{Index: len(e.code), Reason: "inconsistent stack: " + strconv.Itoa(len(stack)) + " items"}
	}
	return stack[0], nil
}

// arithBig sets l to l op r.
func arithBig(op opcode, l, r *big.Float) error {
	switch op {
	case opAdd:
		return guard("+", r, func() error { l.Add(l, r); return nil })
	case opSub:
		return guard("-", r, func() error { l.Sub(l, r); return nil })
	case opMul:
		return guard("*", r, func() error { l.Mul(l, r); return nil })
	case opDiv:
		return guard("/", r, func() error { l.Quo(l, r); return nil })
	case opPow:
		return guard("^", l, func() error { return powBig(l, l, r) })
	default:
		panic("shunting: not a binary operator: " + op.String())
	}
}

// powBig sets z to x^y. bigfloat.Pow only handles finite positive bases, so
// other cases are handled here.
func powBig(z, x, y *big.Float) error {
	switch {
	case y.Sign() == 0:
		// Anything to the zero is one, even NaN would be.
		z.SetInt64(1)
	case x.Sign() == 0, x.IsInf(), y.IsInf():
		// Zeros and infinities have exact results; use the float64 rules.
		fx, _ := x.Float64()
		fy, _ := y.Float64()
		return setFloat(z, math.Pow(fx, fy), "^", x)
	case x.Sign() < 0:
		if !y.IsInt() {
			return &DomainError{X: new(big.Float).Copy(x), Func: "^"}
		}
		odd := false
		if n, _ := y.Int(nil); n.Bit(0) == 1 {
			odd = true
		}
		abs := new(big.Float).Abs(x)
		z.Set(bigfloat.Pow(z, abs, y))
		if odd {
			z.Neg(z)
		}
	default:
		z.Set(bigfloat.Pow(z, x, y))
	}
	return nil
}

// callBig calls a function at r's precision.
func callBig(in *instr, r *big.Float, args []*big.Float) error {
	if f, ok := in.fn.(bigFunc); ok {
		return f.callBig(r, args)
	}
	fargs := make([]float64, len(args))
	for i, x := range args {
		fargs[i], _ = x.Float64()
	}
	return setFloat(r, in.fn.Call(fargs), in.name, nil)
}

// setFloat sets z to a float64 result, returning a *DomainError if the result
// is NaN.
func setFloat(z *big.Float, f float64, name string, x *big.Float) error {
	if math.IsNaN(f) {
		if x != nil {
			x = new(big.Float).Copy(x)
		}
		return &DomainError{X: x, Func: name}
	}
	z.SetFloat64(f)
	return nil
}

// guard runs f and converts a big.ErrNaN panic into a *DomainError naming
// name and x.
func guard(name string, x *big.Float, f func() error) (err error) {
	x = new(big.Float).Copy(x)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if _, ok := r.(big.ErrNaN); !ok {
			panic(r)
		}
		err = &DomainError{X: x, Func: name}
	}()
	return f()
}
