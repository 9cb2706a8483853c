package shunting

import (
	"math/big"
	"strconv"
)

// CharError is an error indicating a rune that cannot begin any token. It
// implements ParseError.
type CharError struct {
	// Col is the position of the rune.
	Col int
	// Char is the invalid rune.
	Char rune
}

func (err *CharError) Error() string {
	return errpos(err.Col, "invalid character "+strconv.QuoteRune(err.Char))
}

func (err *CharError) Pos() int {
	return err.Col
}

// NumberError is an error indicating a malformed numeric literal, e.g. one
// with two decimal points or an exponent marker with no digits. It implements
// ParseError.
type NumberError struct {
	// Col is the position of the start of the number.
	Col int
	// Text is the number scanned up to and including the invalid rune.
	Text string
}

func (err *NumberError) Error() string {
	return errpos(err.Col, "malformed number "+strconv.Quote(err.Text))
}

func (err *NumberError) Pos() int {
	return err.Col
}

// TokenError is an error indicating a token that cannot appear where it does,
// e.g. two operands with no operator between them. It implements ParseError.
type TokenError struct {
	// Col is the position of the token.
	Col int
	// Token is the token text.
	Token string
}

func (err *TokenError) Error() string {
	return errpos(err.Col, "unexpected token "+strconv.Quote(err.Token))
}

func (err *TokenError) Pos() int {
	return err.Col
}

// OperatorError is an error indicating an operator with no operand following
// it. It implements ParseError.
type OperatorError struct {
	// Col is the position of the operator.
	Col int
	// Operator is the dangling operator.
	Operator string
}

func (err *OperatorError) Error() string {
	return errpos(err.Col, "operator "+strconv.Quote(err.Operator)+" has no operand")
}

func (err *OperatorError) Pos() int {
	return err.Col
}

// BracketError is an error indicating mismatched parentheses. It implements
// ParseError.
type BracketError struct {
	// Col is the position of the unmatched parenthesis.
	Col int
	// Open is true if the unmatched parenthesis is an open one.
	Open bool
}

func (err *BracketError) Error() string {
	if err.Open {
		return errpos(err.Col, "open parenthesis with no close parenthesis")
	}
	return errpos(err.Col, "close parenthesis with no open parenthesis")
}

func (err *BracketError) Pos() int {
	return err.Col
}

// SeparatorError is an error indicating a comma outside of a function's
// argument list, or an empty argument. It implements ParseError.
type SeparatorError struct {
	// Col is the position of the separator.
	Col int
}

func (err *SeparatorError) Error() string {
	return errpos(err.Col, `invalid occurrence of separator ","`)
}

func (err *SeparatorError) Pos() int {
	return err.Col
}

// CallError is an error indicating a function call with the wrong number of
// arguments. It implements ParseError.
type CallError struct {
	// Col is the position of the function name.
	Col int
	// Func is the function name that was called.
	Func string
	// Len is the number of arguments the function call tried to imply.
	Len int
}

func (err *CallError) Error() string {
	return errpos(err.Col, "cannot call "+err.Func+" with "+strconv.Itoa(err.Len)+" arguments")
}

func (err *CallError) Pos() int {
	return err.Col
}

// EmptyExpressionError is an error indicating an empty expression or
// subexpression.
type EmptyExpressionError struct {
	// Col is the position of the token that ended the subexpression.
	Col int
	// End is the token that ended the subexpression.
	End string
}

func (err *EmptyExpressionError) Error() string {
	if err.End == "" {
		if err.Col <= 1 {
			return errpos(err.Col, "no expression")
		}
		return errpos(err.Col, "no expression at end")
	}
	return errpos(err.Col, "no expression up to "+strconv.Quote(err.End))
}

func (err *EmptyExpressionError) Pos() int {
	return err.Col
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// ParseError is an error with position information. Every error resulting from
// invalid input to Parse implements ParseError.
type ParseError interface {
	error
	// Pos returns the position of the error as the 1-based rune column of the
	// start of the token that caused the error.
	Pos() int
}

var (
	_ ParseError = (*CharError)(nil)
	_ ParseError = (*NumberError)(nil)
	_ ParseError = (*TokenError)(nil)
	_ ParseError = (*OperatorError)(nil)
	_ ParseError = (*BracketError)(nil)
	_ ParseError = (*SeparatorError)(nil)
	_ ParseError = (*CallError)(nil)
	_ ParseError = (*EmptyExpressionError)(nil)
)

// NameError is an error from a lookup for a variable that is missing from the
// evaluation variables.
type NameError struct {
	// Name is the name that was missing.
	Name string
}

func (err *NameError) Error() string {
	return "undefined variable: " + strconv.Quote(err.Name)
}

// InternalError indicates that an Expr did not leave exactly one value on the
// stack, or tried to pop from an empty one. Parse never produces such an Expr,
// so an InternalError always means a bug or a corrupted Expr.
type InternalError struct {
	// Index is the index of the instruction at which the problem was found.
	Index int
	// Reason describes the problem.
	Reason string
}

func (err *InternalError) Error() string {
	return "shunting: internal error at instruction " + strconv.Itoa(err.Index) + ": " + err.Reason + " (bad Expr?)"
}

// DomainError is returned from EvalBig when an operation has no finite or
// infinite result, such as 0/0 or a negative number to a fractional power.
type DomainError struct {
	// X is the out-of-domain argument.
	X *big.Float
	// Func is a name identifying the operator or function.
	Func string
}

func (err *DomainError) Error() string {
	r := "outside domain"
	if err.X != nil {
		r = err.X.String() + " " + r
	}
	if err.Func != "" {
		r += " of " + err.Func
	}
	return r
}
