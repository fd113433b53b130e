package expr

import (
	"strconv"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokFloorDiv
	tokPercent
	tokPow
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	pos  int
	num  float64
	text string
}

// lex splits input into tokens. Decimal points are '.' only; callers
// normalize decimal commas beforehand.
func lex(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			dots := 0
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				if runes[i] == '.' {
					dots++
				}
				i++
			}
			text := string(runes[start:i])
			if dots > 1 || text == "." {
				return nil, &SyntaxError{Pos: start, Msg: "malformed number " + strconv.Quote(text)}
			}
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, &SyntaxError{Pos: start, Msg: "malformed number " + strconv.Quote(text)}
			}
			toks = append(toks, token{kind: tokNumber, pos: start, num: n, text: text})
		case r == '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				toks = append(toks, token{kind: tokPow, pos: i, text: "**"})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokStar, pos: i, text: "*"})
			i++
		case r == '/':
			if i+1 < len(runes) && runes[i+1] == '/' {
				toks = append(toks, token{kind: tokFloorDiv, pos: i, text: "//"})
				i += 2
				continue
			}
			toks = append(toks, token{kind: tokSlash, pos: i, text: "/"})
			i++
		case r == '+':
			toks = append(toks, token{kind: tokPlus, pos: i, text: "+"})
			i++
		case r == '-':
			toks = append(toks, token{kind: tokMinus, pos: i, text: "-"})
			i++
		case r == '%':
			toks = append(toks, token{kind: tokPercent, pos: i, text: "%"})
			i++
		case r == '(':
			toks = append(toks, token{kind: tokLParen, pos: i, text: "("})
			i++
		case r == ')':
			toks = append(toks, token{kind: tokRParen, pos: i, text: ")"})
			i++
		default:
			return nil, &SyntaxError{Pos: i, Msg: "unexpected character " + strconv.QuoteRune(r)}
		}
	}

	return append(toks, token{kind: tokEOF, pos: len(runes)}), nil
}
