package shunting

import (
	"math"
	"math/big"

	"github.com/zephyrtronium/bigfloat"
)

// Func is a function from reals to reals that expressions can call.
// Implementations must be safe for concurrent use, since a single Expr may be
// evaluated on many goroutines at once.
type Func interface {
	// Call evaluates the function. args has a length for which CanCall
	// returned true. Call may modify the elements of args but must not retain
	// the slice.
	Call(args []float64) float64

	// CanCall returns whether the function can be called with n arguments.
	// The parser uses this to check calls: "f(a, b)" is accepted only if
	// CanCall(2). If CanCall(0), the function name may also appear without
	// an argument list, as with constants like pi.
	CanCall(n int) bool
}

// bigFunc is a Func that can also evaluate to arbitrary precision.
type bigFunc interface {
	Func
	// callBig sets r to the function result at r's precision.
	callBig(r *big.Float, args []*big.Float) error
}

var globalfuncs = map[string]Func{
	"sqrt":  bigMonadic{"sqrt", math.Sqrt, sqrtBig},
	"exp":   bigMonadic{"exp", math.Exp, expBig},
	"ln":    bigMonadic{"ln", math.Log, lnBig},
	"log":   logfn{},
	"abs":   bigMonadic{"abs", math.Abs, absBig},
	"floor": Monadic(math.Floor),
	"ceil":  Monadic(math.Ceil),

	"sin":  Monadic(math.Sin),
	"cos":  Monadic(math.Cos),
	"tan":  Monadic(math.Tan),
	"asin": Monadic(math.Asin),
	"acos": Monadic(math.Acos),
	"atan": Monadic(math.Atan),
	"sinh": Monadic(math.Sinh),
	"cosh": Monadic(math.Cosh),
	"tanh": Monadic(math.Tanh),

	"min": Variadic(1, func(args []float64) float64 {
		r := args[0]
		for _, x := range args[1:] {
			r = math.Min(r, x)
		}
		return r
	}),
	"max": Variadic(1, func(args []float64) float64 {
		r := args[0]
		for _, x := range args[1:] {
			r = math.Max(r, x)
		}
		return r
	}),

	// constants
	"pi": bigNiladic{math.Pi, bigfloat.Pi},
	"e":  bigNiladic{math.E, eBig},
}

type monadic struct {
	f func(float64) float64
}

func (m monadic) Call(args []float64) float64 {
	return m.f(args[0])
}

func (m monadic) CanCall(n int) bool {
	return n == 1
}

// Monadic wraps a function of one variable into a Func.
func Monadic(f func(float64) float64) Func {
	return monadic{f}
}

type dyadic struct {
	f func(x, y float64) float64
}

func (d dyadic) Call(args []float64) float64 {
	return d.f(args[0], args[1])
}

func (d dyadic) CanCall(n int) bool {
	return n == 2
}

// Dyadic wraps a function of two variables into a Func, e.g. math.Atan2.
func Dyadic(f func(x, y float64) float64) Func {
	return dyadic{f}
}

type niladic struct {
	f func() float64
}

func (n niladic) Call(args []float64) float64 {
	return n.f()
}

func (n niladic) CanCall(k int) bool {
	return k == 0
}

// Niladic wraps a function of zero variables, generally a function which
// computes a constant, into a Func.
func Niladic(f func() float64) Func {
	return niladic{f}
}

type variadic struct {
	min int
	f   func([]float64) float64
}

func (v variadic) Call(args []float64) float64 {
	return v.f(args)
}

func (v variadic) CanCall(n int) bool {
	return n >= v.min
}

// Variadic wraps a function of at least min variables into a Func.
func Variadic(min int, f func(args []float64) float64) Func {
	return variadic{min, f}
}

// bigMonadic is a builtin function of one variable with a precise version.
type bigMonadic struct {
	name string
	f    func(float64) float64
	big  func(out, in *big.Float) error
}

func (m bigMonadic) Call(args []float64) float64 {
	return m.f(args[0])
}

func (m bigMonadic) CanCall(n int) bool {
	return n == 1
}

func (m bigMonadic) callBig(r *big.Float, args []*big.Float) error {
	return guard(m.name, args[0], func() error { return m.big(r, args[0]) })
}

// bigNiladic is a builtin constant with a precise version.
type bigNiladic struct {
	v   float64
	big func(out *big.Float) *big.Float
}

func (n bigNiladic) Call(args []float64) float64 {
	return n.v
}

func (n bigNiladic) CanCall(k int) bool {
	return k == 0
}

func (n bigNiladic) callBig(r *big.Float, args []*big.Float) error {
	n.big(r)
	return nil
}

// logfn is the logarithm: log(x) is base 10, log(x, b) is base b.
type logfn struct{}

func (logfn) Call(args []float64) float64 {
	if len(args) == 1 {
		return math.Log10(args[0])
	}
	return math.Log(args[0]) / math.Log(args[1])
}

func (logfn) CanCall(n int) bool {
	return n == 1 || n == 2
}

func (logfn) callBig(r *big.Float, args []*big.Float) error {
	base := new(big.Float).SetPrec(r.Prec()).SetInt64(10)
	if len(args) == 2 {
		base.Set(args[1])
	}
	for _, x := range [...]*big.Float{args[0], base} {
		if x.Sign() < 0 {
			return &DomainError{X: new(big.Float).Copy(x), Func: "log"}
		}
	}
	lnBig(r, args[0])
	lnBig(base, base)
	return guard("log", base, func() error {
		r.Quo(r, base)
		return nil
	})
}

func sqrtBig(out, in *big.Float) error {
	if in.Sign() < 0 {
		return &DomainError{X: new(big.Float).Copy(in), Func: "sqrt"}
	}
	if in.IsInf() {
		out.SetInf(false)
		return nil
	}
	out.Sqrt(in)
	return nil
}

func expBig(out, in *big.Float) error {
	switch {
	case in.IsInf() && in.Signbit():
		out.SetInt64(0)
	case in.IsInf():
		out.SetInf(false)
	default:
		bigfloat.Exp(out, in)
	}
	return nil
}

func lnBig(out, in *big.Float) error {
	switch {
	case in.Sign() < 0:
		return &DomainError{X: new(big.Float).Copy(in), Func: "ln"}
	case in.Sign() == 0:
		out.SetInf(true)
	case in.IsInf():
		out.SetInf(false)
	default:
		bigfloat.Log(out, in)
	}
	return nil
}

func absBig(out, in *big.Float) error {
	out.Abs(in)
	return nil
}

func eBig(out *big.Float) *big.Float {
	one := new(big.Float).SetPrec(out.Prec()).SetInt64(1)
	return bigfloat.Exp(out, one)
}
