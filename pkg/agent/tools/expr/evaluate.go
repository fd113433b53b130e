package expr

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSyntax is matched by every *SyntaxError.
	ErrSyntax = errors.New("invalid expression")

	// ErrDivisionByZero indicates '/', '//' or '%' with a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrTooDeep indicates parentheses or unary operators nested beyond
	// the evaluator's depth limit.
	ErrTooDeep = errors.New("expression nested too deeply")

	// ErrNotFinite indicates the result overflowed or is undefined.
	ErrNotFinite = errors.New("result is not a finite number")
)

// SyntaxError reports malformed input.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid expression at position %d: %s", e.Pos, e.Msg)
}

// Is makes errors.Is(err, ErrSyntax) hold for any *SyntaxError.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Evaluator evaluates arithmetic expressions.
type Evaluator struct {
	maxDepth int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxDepth bounds nesting of parentheses and unary operators.
// Default: 64.
func WithMaxDepth(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxDepth = n
		}
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{maxDepth: 64}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate parses and evaluates input.
func (e *Evaluator) Evaluate(input string) (float64, error) {
	toks, err := lex(input)
	if err != nil {
		return 0, err
	}

	p := &parser{toks: toks, maxDepth: e.maxDepth}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return 0, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, ErrNotFinite
	}
	return v, nil
}

// Eval evaluates input with the default Evaluator.
func Eval(input string) (float64, error) {
	return New().Evaluate(input)
}

type parser struct {
	toks     []token
	pos      int
	depth    int
	maxDepth int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return ErrTooDeep
	}
	return nil
}

func (p *parser) leave() { p.depth-- }

func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		switch p.peek().kind {
		case tokPlus:
			p.next()
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left += right
		case tokMinus:
			p.next()
			right, err := p.term()
			if err != nil {
				return 0, err
			}
			left -= right
		default:
			return left, nil
		}
	}
}

func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		op := p.peek().kind
		if op != tokStar && op != tokSlash && op != tokFloorDiv && op != tokPercent {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		if left, err = apply(op, left, right); err != nil {
			return 0, err
		}
	}
}

func apply(op tokenKind, left, right float64) (float64, error) {
	switch op {
	case tokStar:
		return left * right, nil
	case tokSlash:
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return left / right, nil
	case tokFloorDiv:
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return math.Floor(left / right), nil
	case tokPercent:
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		r := math.Mod(left, right)
		if r != 0 && (r < 0) != (right < 0) {
			r += right
		}
		return r, nil
	}
	return 0, fmt.Errorf("unknown operator %d", op)
}

func (p *parser) unary() (float64, error) {
	switch p.peek().kind {
	case tokPlus, tokMinus:
		if err := p.enter(); err != nil {
			return 0, err
		}
		defer p.leave()

		neg := p.next().kind == tokMinus
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		if neg {
			return -v, nil
		}
		return v, nil
	}
	return p.power()
}

func (p *parser) power() (float64, error) {
	base, err := p.primary()
	if err != nil {
		return 0, err
	}
	if p.peek().kind != tokPow {
		return base, nil
	}
	p.next()
	exp, err := p.unary()
	if err != nil {
		return 0, err
	}
	if base == 0 && exp < 0 {
		return 0, ErrDivisionByZero
	}
	return math.Pow(base, exp), nil
}

func (p *parser) primary() (float64, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return tok.num, nil
	case tokLParen:
		if err := p.enter(); err != nil {
			return 0, err
		}
		defer p.leave()

		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return 0, &SyntaxError{Pos: closing.pos, Msg: "missing closing parenthesis"}
		}
		return v, nil
	case tokEOF:
		return 0, &SyntaxError{Pos: tok.pos, Msg: "unexpected end of expression"}
	default:
		return 0, &SyntaxError{Pos: tok.pos, Msg: fmt.Sprintf("unexpected %q", tok.text)}
	}
}
