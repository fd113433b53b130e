/*
Package expr evaluates plain arithmetic expressions.

# Overview

expr is a small recursive-descent evaluator for numeric expressions typed
by people, such as "15 * 32 + 48" or "(2,5 + 1) / 3". It never resolves
identifiers, calls functions or touches the host environment: the only
inputs are number literals, operators and parentheses.

# Expression Syntax

	<expr>    := <term> (('+' | '-') <term>)*
	<term>    := <unary> (('*' | '/' | '//' | '%') <unary>)*
	<unary>   := ('+' | '-') <unary> | <power>
	<power>   := <primary> ('**' <unary>)?
	<primary> := number | '(' <expr> ')'

Exponentiation is right-associative and binds tighter than a unary minus
on its left, so -2**2 is -4. '//' is floor division and '%' takes the
sign of the divisor.

# Usage

	v, err := expr.Eval("15 * 32 + 48") // 528

Division or modulo by zero returns ErrDivisionByZero. Malformed input
returns a *SyntaxError, which matches ErrSyntax with errors.Is.
*/
package expr
