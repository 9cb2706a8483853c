package shunting_test

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/zephyrtronium/shunting"
)

// near reports whether got is within the evaluation tolerance of want.
func near(got, want float64) bool {
	switch {
	case got == want:
		return true
	case math.IsNaN(want):
		return math.IsNaN(got)
	case math.IsInf(want, 0):
		return false
	}
	return math.Abs(got-want) <= 1e-8*math.Max(1, math.Abs(want))
}

var markets = shunting.MapVars{
	"BTC":      3.0,
	"ETH":      3.5,
	"XRP":      2.0,
	"BTC_USDT": 515.0,
	"USDT_USD": 1.010,
	"ETH_USD":  20.23,
	"BTC_USD":  516.2,
}

func TestEval(t *testing.T) {
	type vv struct {
		n string
		v float64
	}
	type vc struct {
		vars []vv
		r    float64
	}
	cases := []struct {
		name string
		src  string
		r    []vc
	}{
		{"num", "1", []vc{{nil, 1}}},
		{"frac", ".5", []vc{{nil, 0.5}}},
		{"exponent", "1.5e-3", []vc{{nil, 1.5e-3}}},
		{"ident", "x", []vc{
			{[]vv{{"x", 4}}, 4},
			{[]vv{{"x", 5}}, 5},
			{[]vv{{"x", 6}}, 6},
		}},
		{"neg", "-x", []vc{
			{[]vv{{"x", 4}}, -4},
			{[]vv{{"x", 5}}, -5},
			{[]vv{{"x", 6}}, -6},
		}},
		{"negneg", "--x", []vc{{[]vv{{"x", 4}}, 4}}},
		{"add", "1 + 2", []vc{{nil, 3}}},
		{"add3", "4+5+6", []vc{{nil, 15}}},
		{"sub", "4-5-6", []vc{{nil, -7}}},
		{"mul", "4*5*6", []vc{{nil, 120}}},
		{"div", "4/5/6", []vc{{nil, 4.0 / 5.0 / 6.0}}},
		{"pow", "4^3^2", []vc{{nil, 262144}}},
		{"prec", "2 + 3 * 4", []vc{{nil, 14}}},
		{"paren", "(2 + 3) * 4", []vc{{nil, 20}}},
		{"negpow", "-2^2", []vc{{nil, -4}}},
		{"parennegpow", "(-2)^2", []vc{{nil, 4}}},
		{"powneg", "2^-1", []vc{{nil, 0.5}}},
		{"negmul", "-2*3", []vc{{nil, -6}}},
		{"subneg", "1 - -2", []vc{{nil, 3}}},
		{"long", "0 - (-4294.1235 + 353.5100 / (1521.551 - 1/12.751))", []vc{{nil, 4293.891152729428}}},
		{"quad", "a*x^2 + b*x + c", []vc{
			{[]vv{{"a", 1}, {"b", 2}, {"c", 1}, {"x", -1}}, 0},
			{[]vv{{"a", 1}, {"b", 2}, {"c", 1}, {"x", 1}}, 4},
			{[]vv{{"a", 2}, {"b", 0}, {"c", -8}, {"x", 2}}, 0},
		}},
		{"unused", "1", []vc{{[]vv{{"x", 4}}, 1}}},
		{"pi", "pi", []vc{{nil, math.Pi}}},
		{"pi-call", "pi()", []vc{{nil, math.Pi}}},
		{"e", "e", []vc{{nil, math.E}}},
		{"exp", "exp(1)", []vc{{nil, math.E}}},
		{"sqrt", "sqrt(16)", []vc{{nil, 4}}},
		{"log", "log(1000)", []vc{{nil, 3}}},
		{"log-base", "log(8, 2)", []vc{{nil, 3}}},
		{"ln", "ln(e^2)", []vc{{nil, 2}}},
		{"abs", "abs(-x)", []vc{{[]vv{{"x", 4}}, 4}, {[]vv{{"x", -4}}, 4}}},
		{"floor", "floor(2.5) + ceil(2.5)", []vc{{nil, 5}}},
		{"trig", "sin(pi/2) + cos(0)", []vc{{nil, 2}}},
		{"max", "max(1, x, 3)", []vc{{[]vv{{"x", 2}}, 3}, {[]vv{{"x", 4}}, 4}}},
		{"min", "min(x)", []vc{{[]vv{{"x", 2}}, 2}}},
		{"call-expr", "max(1, 2 + 3, x) * 2", []vc{{[]vv{{"x", 0}}, 10}}},
		// IEEE division
		{"div-zero", "1/0", []vc{{nil, math.Inf(1)}}},
		{"div-negzero", "-1/0", []vc{{nil, math.Inf(-1)}}},
		{"div-zero-zero", "0/0", []vc{{nil, math.NaN()}}},
		{"div-var", "x/y", []vc{
			{[]vv{{"x", 1}, {"y", 0}}, math.Inf(1)},
			{[]vv{{"x", 0}, {"y", 0}}, math.NaN()},
		}},
		{"inf-sub", "1/0 - 1/0", []vc{{nil, math.NaN()}}},
		{"sqrt-neg", "sqrt(-1)", []vc{{nil, math.NaN()}}},
		{"pow-neg", "(-1)^0.5", []vc{{nil, math.NaN()}}},
		{"pow-neg-int", "(-2)^3", []vc{{nil, -8}}},
		{"huge", "1e400", []vc{{nil, math.Inf(1)}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := shunting.Parse(c.src)
			if err != nil {
				t.Fatal(c.src, "failed to parse:", err)
			}
			for _, v := range c.r {
				ctx := shunting.NewContext()
				for _, x := range v.vars {
					ctx.Set(x.n, x.v)
				}
				r, err := a.Eval(ctx)
				if err != nil {
					t.Error("evaluation error:", err)
				}
				if !near(r, v.r) {
					t.Errorf("wrong result from %q with %v: want %g, got %g", c.src, v.vars, v.r, r)
				}
			}
		})
	}
}

func TestEvalMarkets(t *testing.T) {
	cases := []struct {
		src string
		r   float64
	}{
		{"(BTC + ETH + XRP) / 3", 2.8333333333333335},
		{"BTC_USDT * USDT_USD / ETH_USD", 25.711814137419672},
		{"BTC_USD / USDT_USD", 511.0891089108911},
	}
	for _, c := range cases {
		r, err := shunting.EvalString(c.src, markets)
		if err != nil {
			t.Errorf("%q: %v", c.src, err)
			continue
		}
		if !near(r, c.r) {
			t.Errorf("%q: want %v, got %v", c.src, c.r, r)
		}
	}
}

func TestEvalReuse(t *testing.T) {
	a, err := shunting.Parse("(x + 1) * (x - 1)")
	if err != nil {
		t.Fatal(err)
	}
	s := a.String()
	ctx := shunting.NewContext()
	for i := 0; i < 10; i++ {
		x := float64(i)
		r, err := a.Eval(ctx.Set("x", x))
		if err != nil {
			t.Fatalf("eval %d: %v", i, err)
		}
		if r != x*x-1 {
			t.Errorf("eval %d: want %g, got %g", i, x*x-1, r)
		}
		// Evaluating again with the same variables gives the same result.
		if q, _ := a.Eval(ctx); q != r {
			t.Errorf("eval %d again: want %g, got %g", i, r, q)
		}
	}
	if a.String() != s {
		t.Errorf("evaluation changed the expression: was %s, now %s", s, a)
	}
}

func TestEvalUndefNames(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    []string
	}{
		{"x", "x", []string{"x"}},
		{"neg", "-x", []string{"x"}},
		{"add-lhs", "x+1", []string{"x"}},
		{"add-rhs", "1+x", []string{"x"}},
		{"sub-lhs", "x-1", []string{"x"}},
		{"sub-rhs", "1-x", []string{"x"}},
		{"mul-lhs", "x*1", []string{"x"}},
		{"mul-rhs", "1*x", []string{"x"}},
		{"div-lhs", "x/1", []string{"x"}},
		{"div-rhs", "1/x", []string{"x"}},
		{"pow-lhs", "x^1", []string{"x"}},
		{"pow-rhs", "1^x", []string{"x"}},
		{"call", "exp(x)", []string{"x"}},
		{"two", "x + y", []string{"x", "y"}},
		{"market", "ETH_USD * 2", []string{"ETH_USD"}},
	}
	ure := regexp.MustCompile(`(?i)\bundef`)
	vre := regexp.MustCompile(`(?i)\bvar`)
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := shunting.Parse(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			if v := a.Vars(); !reflect.DeepEqual(c.r, v) {
				t.Errorf("%q gave wrong variables: want %q, got %q", c.src, c.r, v)
			}
			for _, vars := range []shunting.Vars{nil, shunting.NewContext(), shunting.MapVars{"z": 1}} {
				r, err := a.Eval(vars)
				if err == nil {
					t.Fatalf("evaluating %q gave no error and result %g", c.src, r)
				}
				u, ok := err.(*shunting.NameError)
				if !ok {
					t.Fatalf("error was %#v, not NameError", err)
				}
				msg := err.Error()
				if !ure.MatchString(msg) {
					t.Errorf(`%q doesn't mention "undef"`, msg)
				}
				if !vre.MatchString(msg) {
					t.Errorf(`%q doesn't mention "var"`, msg)
				}
				if u.Name != c.r[0] {
					t.Errorf("NameError on %q, want the first variable used, %q", u.Name, c.r[0])
				}
				if !strings.Contains(msg, u.Name) {
					t.Errorf(`%q doesn't mention %q`, msg, u.Name)
				}
			}
		})
	}
}

func TestEvalNoVars(t *testing.T) {
	r, err := shunting.EvalString("1 + 2", nil)
	if err != nil || r != 3 {
		t.Errorf("want 3, got %g with error %v", r, err)
	}
	var ctx *shunting.Context
	r, err = shunting.EvalString("2 * 3", ctx)
	if err != nil || r != 6 {
		t.Errorf("want 6 with nil context, got %g with error %v", r, err)
	}
}

func TestEvalStringParseError(t *testing.T) {
	_, err := shunting.EvalString("1 +", nil)
	if _, ok := err.(*shunting.OperatorError); !ok {
		t.Errorf("want *OperatorError, got %#v", err)
	}
}

func TestEvalConcurrent(t *testing.T) {
	a, err := shunting.Parse("BTC_USDT * USDT_USD / x + max(x, 1)")
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			ctx := shunting.NewContext(shunting.SetVars(markets))
			for i := 1; i <= 100; i++ {
				x := float64(g*100 + i)
				r, err := a.Eval(ctx.Set("x", x))
				if err != nil {
					t.Errorf("goroutine %d: %v", g, err)
					return
				}
				want := 515.0*1.010/x + math.Max(x, 1)
				if !near(r, want) {
					t.Errorf("goroutine %d with x=%g: want %g, got %g", g, x, want, r)
					return
				}
			}
		}(g)
	}
	wg.Wait()
}

func TestContextVars(t *testing.T) {
	ctx := shunting.NewContext(shunting.SetVar("x", 0))
	if x, ok := ctx.Get("x"); !ok || x != 0 {
		t.Errorf("x should be 0 but is %g, %t", x, ok)
	}
	if y, ok := ctx.Get("y"); ok {
		t.Errorf("context has y: %g", y)
	}
	ctx.Set("y", 1)
	if x, ok := ctx.Get("x"); !ok || x != 0 {
		t.Errorf("x should be 0 but is %g, %t", x, ok)
	}
	if y, ok := ctx.Get("y"); !ok || y != 1 {
		t.Errorf("y should be 1 but is %g, %t", y, ok)
	}
	ctx.Set("x", 1)
	if x, ok := ctx.Get("x"); !ok || x != 1 {
		t.Errorf("x should be 1 but is %g, %t", x, ok)
	}
	if n := ctx.Names(); !reflect.DeepEqual(n, []string{"x", "y"}) {
		t.Errorf("wrong names: %q", n)
	}
	if ctx.Delete("x").Len() != 1 {
		t.Errorf("wrong length after delete: %d", ctx.Len())
	}
	if _, ok := ctx.Get("x"); ok {
		t.Errorf("x still defined after delete")
	}
}

func TestContextClone(t *testing.T) {
	ctx := shunting.NewContext(shunting.SetVars(map[string]float64{"x": 1, "y": 2}))
	c := ctx.Clone(shunting.SetVar("x", 3), shunting.SetVar("z", 4))
	c.Set("y", 5)
	want := map[string]float64{"x": 1, "y": 2}
	for k, v := range want {
		if r, ok := ctx.Get(k); !ok || r != v {
			t.Errorf("original %s should be %g but is %g, %t", k, v, r, ok)
		}
	}
	if _, ok := ctx.Get("z"); ok {
		t.Errorf("clone option leaked into original")
	}
	want = map[string]float64{"x": 3, "y": 5, "z": 4}
	for k, v := range want {
		if r, ok := c.Get(k); !ok || r != v {
			t.Errorf("clone %s should be %g but is %g, %t", k, v, r, ok)
		}
	}
	// Later options win.
	c = shunting.NewContext(shunting.SetVar("x", 1), shunting.SetVars(map[string]float64{"x": 2}))
	if x, _ := c.Get("x"); x != 2 {
		t.Errorf("later option should win, x is %g", x)
	}
}

func TestNilContext(t *testing.T) {
	var ctx *shunting.Context
	if _, ok := ctx.Get("x"); ok {
		t.Error("nil context defines x")
	}
	if ctx.Len() != 0 || ctx.Names() != nil {
		t.Errorf("nil context has variables %q", ctx.Names())
	}
	if d := ctx.Delete("x"); d != nil {
		t.Errorf("Delete on nil context gave %v", d)
	}
	c := ctx.Clone(shunting.SetVar("x", 1))
	if x, ok := c.Get("x"); !ok || x != 1 {
		t.Errorf("clone of nil context should have x=1, has %g, %t", x, ok)
	}
}

func TestVars(t *testing.T) {
	cases := []struct {
		name string
		src  string
		vars []string
	}{
		{"none", "1+2+3", nil},
		{"one", "1+2+x", []string{"x"}},
		{"sort", "z+y+x+w+v+u+t+s+r+q+p+o+n+m+l+k+j+i+h+g+f+e+d+c+b+a", strings.Fields("a b c d e f g h i j k l m n o p q r s t u v w x y z")},
		{"reuse", "a+b+c+b+a", []string{"a", "b", "c"}},
		{"call", "max(b, a)", []string{"a", "b"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := shunting.Parse(c.src, shunting.DisableDefaultFuncs(), shunting.ParseFunc("max", shunting.Variadic(1, func(x []float64) float64 { return x[0] })))
			if err != nil {
				t.Fatalf("%q didn't parse: %v", c.src, err)
			}
			vars := a.Vars()
			if len(vars) == 0 {
				vars = nil
			}
			if !reflect.DeepEqual(vars, c.vars) {
				t.Errorf("%q gave wrong variable names:\n\twant %q\n\tgot  %q", c.src, c.vars, vars)
			}
		})
	}
}

func TestMissing(t *testing.T) {
	a, err := shunting.Parse("BTC + DOGE * x")
	if err != nil {
		t.Fatal(err)
	}
	if m := a.Missing(markets); !reflect.DeepEqual(m, []string{"DOGE", "x"}) {
		t.Errorf("wrong missing names: %q", m)
	}
	if m := a.Missing(nil); !reflect.DeepEqual(m, []string{"BTC", "DOGE", "x"}) {
		t.Errorf("wrong missing names with nil vars: %q", m)
	}
	ctx := shunting.NewContext(shunting.SetVars(markets)).Set("DOGE", 1).Set("x", 2)
	if m := a.Missing(ctx); m != nil {
		t.Errorf("names missing from full context: %q", m)
	}
}

func BenchmarkEval(b *testing.B) {
	cases := []struct {
		name string
		src  string
	}{
		{"nums", "2+3+4"},
		{"arith", "0 - (-4294.1235 + 353.5100 / (1521.551 - 1/12.751))"},
		{"avg", "(BTC + ETH + XRP) / 3"},
		{"cross", "BTC_USDT * USDT_USD / ETH_USD"},
		{"rate", "BTC_USD / USDT_USD"},
	}
	ctx := shunting.NewContext(shunting.SetVars(markets))
	for _, c := range cases {
		b.Run(c.name, func(b *testing.B) {
			b.ReportAllocs()
			a, err := shunting.Parse(c.src)
			if err != nil {
				b.Fatal(err)
			}
			for i := 0; i < b.N; i++ {
				a.Eval(ctx)
			}
		})
	}
}

func Example() {
	a, _ := shunting.Parse("x^3/2 - x")
	b, _ := shunting.Parse("3*x^2/2 - 1")
	c, _ := shunting.Parse("3*x")

	ctx := shunting.NewContext()
	for i := 0; i < 4; i++ {
		x := float64(i)
		ctx.Set("x", x)
		y, _ := a.Eval(ctx)
		yp, _ := b.Eval(ctx)
		ypp, _ := c.Eval(ctx)
		fmt.Printf("x = %g   y = %-4g  y' = %-4g  y'' = %g\n", x, y, yp, ypp)
	}

	// Output:
	// x = 0   y = 0     y' = -1    y'' = 0
	// x = 1   y = -0.5  y' = 0.5   y'' = 3
	// x = 2   y = 2     y' = 5     y'' = 6
	// x = 3   y = 10.5  y' = 12.5  y'' = 9
}
