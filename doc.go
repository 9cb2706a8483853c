// Package shunting compiles arithmetic expressions once and evaluates them
// many times.
//
// Parse turns text like "(BTC + ETH + XRP) / 3" into an *Expr using the
// shunting-yard algorithm. An Expr is a flat postfix program, so evaluating
// it is a single pass over an operand stack with no recursion. The same Expr
// can be evaluated against any number of variable sets, concurrently if each
// goroutine brings its own:
//
//	e, err := shunting.Parse("BTC_USDT * USDT_USD / ETH_USD")
//	ctx := shunting.NewContext().Set("BTC_USDT", 515).Set("USDT_USD", 1.01).Set("ETH_USD", 20.23)
//	r, err := e.Eval(ctx)
//
// Operators are + - * / ^ and unary -. "^" binds tightest and groups to the
// right, so "-2^3^2" is "-(2^(3^2))". Arithmetic follows float64 rules:
// "1/0" is +Inf, not an error. A small set of functions such as sqrt, log,
// min, and max is available by default; see ParseFunc to add more.
//
// EvalBig evaluates the same Expr with math/big at any precision.
package shunting
