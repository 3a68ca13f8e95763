package twscan

import (
	"bufio"
	"bytes"
	"io"
)

// MaxTokenLen is the longest candidate class name the default tokenizer
// returns. Longer runs, as found in minified bundles, are skipped.
const MaxTokenLen = 4096

// Tokenizer returns the next token from a content file.
type Tokenizer interface {
	NextToken() ([]byte, error) // returns a token or error (not both), io.EOF indicates end of stream
}

// isDelim reports whether c ends a candidate class name. Brackets are not
// delimiters, arbitrary values like "min-[800px]:flex" stay in one piece.
func isDelim(c byte) bool {
	switch c {
	case '<', '>', '"', '\'', '`',
		'{', '}', '(', ')', ',', ';',
		'\t', '\n', '\v', '\f', '\r', ' ':
		return true
	}
	return false
}

// DefaultTokenizer splits markup and source code into candidate class
// names. It handles attribute values ("md:px-1"), JSX expressions
// ({`md:flex`}) and call arguments (class=("md:flex", ..)) alike.
type DefaultTokenizer struct {
	r   *bufio.Reader
	buf []byte
	max int
	err error // sticky read error
}

// NewDefaultTokenizer returns a DefaultTokenizer reading from r.
func NewDefaultTokenizer(r io.Reader) *DefaultTokenizer {
	return &DefaultTokenizer{
		r:   bufio.NewReaderSize(r, 32<<10),
		buf: make([]byte, 0, 256),
		max: MaxTokenLen,
	}
}

// NextToken implements Tokenizer. The returned slice is only valid until
// the next call.
func (t *DefaultTokenizer) NextToken() ([]byte, error) {
	for {
		tok, err := t.next()
		if tok = bytes.Trim(tok, `/\:=`); len(tok) > 0 {
			return tok, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// next reads up to the next delimiter. Runs longer than t.max are
// consumed and dropped, returning an empty token.
func (t *DefaultTokenizer) next() ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	t.buf = t.buf[:0]
	skip := false
	for {
		c, err := t.r.ReadByte()
		if err != nil {
			t.err = err
			if skip {
				return nil, err
			}
			return t.buf, err
		}
		if isDelim(c) {
			if skip {
				return nil, nil
			}
			if len(t.buf) > 0 {
				return t.buf, nil
			}
			continue
		}
		if skip {
			continue
		}
		if len(t.buf) == t.max {
			skip = true
			continue
		}
		t.buf = append(t.buf, c)
	}
}
