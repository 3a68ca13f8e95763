package screens

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// ValidateWidth checks that w is a single non-negative CSS length such as
// "576px" or "40em". A unitless "0" is accepted as well.
func ValidateWidth(w string) error {
	if w == "" {
		return fmt.Errorf("%w: empty", ErrInvalidWidth)
	}
	l := css.NewLexer(parse.NewInputString(w))
	var toks []css.TokenType
	var first []byte
	for {
		tt, data := l.Next()
		if tt == css.ErrorToken {
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return fmt.Errorf("%w %q: %v", ErrInvalidWidth, w, err)
			}
			break
		}
		if len(toks) == 0 {
			first = append(first, data...)
		}
		toks = append(toks, tt)
	}
	if len(toks) != 1 {
		return fmt.Errorf("%w %q: expected a single length", ErrInvalidWidth, w)
	}
	switch toks[0] {
	case css.DimensionToken:
		if first[0] == '-' {
			return fmt.Errorf("%w %q: negative length", ErrInvalidWidth, w)
		}
		return nil
	case css.NumberToken:
		if strings.Trim(string(first), "0.+") == "" {
			return nil
		}
		return fmt.Errorf("%w %q: length is missing a unit", ErrInvalidWidth, w)
	}
	return fmt.Errorf("%w %q: not a length", ErrInvalidWidth, w)
}

// ValidateCondition checks that cond can stand as the prelude of an
// @media block, e.g. "print" or "(prefers-color-scheme: dark)".
func ValidateCondition(cond string) error {
	if strings.TrimSpace(cond) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCondition)
	}

	p := css.NewParser(parse.NewInputString("@media "+cond+"{}"), false)

	// the only acceptable sequence is a begin/end pair followed by EOF
	step := 0
	for {
		gt, _, data := p.Next()

		switch gt {

		case css.ErrorGrammar:
			err := p.Err()
			if errors.Is(err, io.EOF) {
				if step != 2 {
					return fmt.Errorf("%w %q: incomplete", ErrInvalidCondition, cond)
				}
				return nil
			}
			return fmt.Errorf("%w %q: %v", ErrInvalidCondition, cond, err)

		case css.CommentGrammar:
			continue

		case css.BeginAtRuleGrammar:
			if step != 0 || !bytes.Equal(data, []byte("@media")) {
				return fmt.Errorf("%w %q: unexpected block", ErrInvalidCondition, cond)
			}
			if err := checkPrelude(p.Values()); err != nil {
				return fmt.Errorf("%w %q: %v", ErrInvalidCondition, cond, err)
			}
			step = 1

		case css.EndAtRuleGrammar:
			if step != 1 {
				return fmt.Errorf("%w %q: unexpected end of block", ErrInvalidCondition, cond)
			}
			step = 2

		default:
			return fmt.Errorf("%w %q: unexpected %v", ErrInvalidCondition, cond, gt)

		}
	}
}

func checkPrelude(tokens []css.Token) error {
	tokens = trimTokenWs(tokens)
	if len(tokens) == 0 {
		return errors.New("no tokens")
	}
	depth := 0
	for _, tok := range tokens {
		switch tok.TokenType {
		case css.LeftParenthesisToken, css.FunctionToken:
			depth++
		case css.RightParenthesisToken:
			depth--
			if depth < 0 {
				return errors.New("unbalanced ')'")
			}
		case css.SemicolonToken, css.LeftBraceToken, css.RightBraceToken:
			return fmt.Errorf("unexpected %q", tok.Data)
		}
	}
	if depth != 0 {
		return errors.New("unbalanced '('")
	}
	return nil
}

func trimTokenWs(tokens []css.Token) []css.Token {
	for len(tokens) > 0 && tokens[0].TokenType == css.WhitespaceToken {
		tokens = tokens[1:]
	}
	for len(tokens) > 0 && tokens[len(tokens)-1].TokenType == css.WhitespaceToken {
		tokens = tokens[:len(tokens)-1]
	}
	return tokens
}
