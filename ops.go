package shunting

// operator is an entry in the operator table.
type operator struct {
	// prec is the precedence value. Higher is more binding.
	prec int8
	// right indicates right-associativity.
	right bool
	// unary indicates a prefix operator taking one operand.
	unary bool
	// op is the instruction to emit when this operator is applied.
	op opcode
}

// outranks returns whether top, already on the operator stack, must be
// applied before next is pushed.
func (top operator) outranks(next operator) bool {
	if top.prec != next.prec {
		return top.prec > next.prec
	}
	return !next.right
}

// The operator table. Precedence from loosest to tightest is additive,
// multiplicative, negation, exponentiation.
var (
	opAddition       = operator{prec: 1, op: opAdd}
	opSubtraction    = operator{prec: 1, op: opSub}
	opMultiplication = operator{prec: 2, op: opMul}
	opDivision       = operator{prec: 2, op: opDiv}
	opNegation       = operator{prec: 3, right: true, unary: true, op: opNeg}
	opPower          = operator{prec: 4, right: true, op: opPow}
)

// binop gets a binary operator for a token string. If there is no such binary
// operator, then the result has an op of opNone.
func binop(text string) operator {
	switch text {
	case "+":
		return opAddition
	case "-":
		return opSubtraction
	case "*":
		return opMultiplication
	case "/":
		return opDivision
	case "^":
		return opPower
	default:
		return operator{}
	}
}

// unop gets a unary operator for a token string. If there is no such unary
// operator, then the result has an op of opNone.
func unop(text string) operator {
	if text == "-" {
		return opNegation
	}
	return operator{}
}
