// Package jsonscan implements a byte-range JSON token scanner: a
// small put-back buffer over a token grammar recognized at the
// lexical level only. Numbers and literals are matched by shape, not
// fully validated, and escapes are recognized syntactically but never
// decoded — the scanner never materializes a decoded string value.
package jsonscan

import (
	"fmt"

	"github.com/ryftone/caggs/internal/simd"
	"github.com/ryftone/caggs/internal/token"
)

// MaxPushback is the depth of the put-back ring.
const MaxPushback = 32

// Parser scans one record buffer into a stream of Tokens.
type Parser struct {
	buf    []byte
	cursor int
	end    int

	pushback [MaxPushback]token.Token
	npushed  int

	quotes     []uint64
	whitespace []uint64
}

// New creates a Parser positioned at the start of buf.
func New(buf []byte) *Parser {
	words := simd.BitmapWords(len(buf))
	p := &Parser{
		buf:        buf,
		end:        len(buf),
		quotes:     make([]uint64, words),
		whitespace: make([]uint64, words),
	}
	simd.Classify(buf, p.quotes, p.whitespace)
	return p
}

// Reset rewinds the parser to the beginning of a new buffer, reusing
// the bitmap allocations when they are large enough, so one Parser can
// be reused across records instead of allocating a fresh one each time.
func (p *Parser) Reset(buf []byte) {
	p.buf = buf
	p.cursor = 0
	p.end = len(buf)
	p.npushed = 0

	words := simd.BitmapWords(len(buf))
	if cap(p.quotes) < words {
		p.quotes = make([]uint64, words)
		p.whitespace = make([]uint64, words)
	} else {
		p.quotes = p.quotes[:words]
		p.whitespace = p.whitespace[:words]
		for i := range p.quotes {
			p.quotes[i] = 0
			p.whitespace[i] = 0
		}
	}
	simd.Classify(buf, p.quotes, p.whitespace)
}

// Bytes returns the raw slice backing a token's span.
func (p *Parser) Bytes(t token.Token) []byte {
	return p.buf[t.Begin:t.End]
}

// Cursor returns the current byte offset into the record buffer.
func (p *Parser) Cursor() int {
	return p.cursor
}

// PutBack pushes a token back onto the parser, to be returned again by
// the next Next() call. At most MaxPushback deep.
func (p *Parser) PutBack(t token.Token) error {
	if p.npushed >= MaxPushback {
		return fmt.Errorf("jsonscan: pushback overflow (max %d)", MaxPushback)
	}
	p.pushback[p.npushed] = t
	p.npushed++
	return nil
}

// Next returns the next token, or an EOF token with Begin==End==cursor
// when no non-whitespace bytes remain.
func (p *Parser) Next() (token.Token, error) {
	if p.npushed > 0 {
		p.npushed--
		return p.pushback[p.npushed], nil
	}

	p.cursor = simd.SkipWhitespace(p.buf, p.whitespace, p.cursor)
	if p.cursor >= p.end {
		return token.Token{Kind: token.EOF, Begin: p.cursor, End: p.cursor}, nil
	}

	c := p.buf[p.cursor]
	switch c {
	case '{':
		return p.single(token.ObjectBeg), nil
	case '}':
		return p.single(token.ObjectEnd), nil
	case '[':
		return p.single(token.ArrayBeg), nil
	case ']':
		return p.single(token.ArrayEnd), nil
	case ':':
		return p.single(token.Colon), nil
	case ',':
		return p.single(token.Comma), nil
	case '"':
		return p.scanString()
	case 'f':
		return p.scanLiteral("false", token.False)
	case 't':
		return p.scanLiteral("true", token.True)
	case 'n':
		return p.scanLiteral("null", token.Null)
	default:
		if isNumberByte(c) {
			return p.scanNumber(), nil
		}
		return token.Token{}, fmt.Errorf("jsonscan: unexpected byte %q at offset %d", c, p.cursor)
	}
}

func (p *Parser) single(k token.Kind) token.Token {
	t := token.Token{Kind: k, Begin: p.cursor, End: p.cursor + 1}
	p.cursor++
	return t
}

func (p *Parser) scanLiteral(lit string, k token.Kind) (token.Token, error) {
	begin := p.cursor
	n := len(lit)
	if p.cursor+n > p.end || string(p.buf[p.cursor:p.cursor+n]) != lit {
		return token.Token{}, fmt.Errorf("jsonscan: invalid literal at offset %d", begin)
	}
	p.cursor += n
	return token.Token{Kind: k, Begin: begin, End: p.cursor}, nil
}

func isNumberByte(b byte) bool {
	return (b >= '0' && b <= '9') || b == '.' || b == '+' || b == '-' || b == 'e' || b == 'E'
}

func (p *Parser) scanNumber() token.Token {
	begin := p.cursor
	for p.cursor < p.end && isNumberByte(p.buf[p.cursor]) {
		p.cursor++
	}
	return token.Token{Kind: token.Number, Begin: begin, End: p.cursor}
}

// scanString consumes a quoted string starting at the opening quote.
// The returned span excludes both quotes.
func (p *Parser) scanString() (token.Token, error) {
	openAt := p.cursor
	p.cursor++ // consume opening quote
	begin := p.cursor
	escaped := false

	for {
		if p.cursor >= p.end {
			return token.Token{}, fmt.Errorf("jsonscan: unterminated string starting at offset %d", openAt)
		}
		if !simd.IsQuote(p.quotes, p.cursor) {
			p.cursor++
			continue
		}
		c := p.buf[p.cursor]
		if c == '\\' {
			escaped = true
			if err := p.scanEscape(); err != nil {
				return token.Token{}, err
			}
			continue
		}
		if c == '"' {
			end := p.cursor
			p.cursor++
			kind := token.String
			if escaped {
				kind = token.StringEsc
			}
			return token.Token{Kind: kind, Begin: begin, End: end}, nil
		}
		p.cursor++
	}
}

// scanEscape consumes a single backslash escape sequence, the cursor
// positioned at the '\'. Validates \uXXXX is hex but does not decode
// any escape: string values are read as raw byte slices.
func (p *Parser) scanEscape() error {
	start := p.cursor
	p.cursor++ // consume '\'
	if p.cursor >= p.end {
		return fmt.Errorf("jsonscan: dangling escape at offset %d", start)
	}
	c := p.buf[p.cursor]
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		p.cursor++
		return nil
	case 'u':
		p.cursor++
		if p.cursor+4 > p.end {
			return fmt.Errorf("jsonscan: truncated \\u escape at offset %d", start)
		}
		for i := 0; i < 4; i++ {
			if !isHexDigit(p.buf[p.cursor+i]) {
				return fmt.Errorf("jsonscan: invalid \\u escape at offset %d", start)
			}
		}
		p.cursor += 4
		return nil
	default:
		return fmt.Errorf("jsonscan: invalid escape %q at offset %d", c, start)
	}
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// SkipObject consumes a balanced sequence of key-colon-value pairs up
// to and including the closing brace. Called after the opening '{'
// has already been consumed.
func (p *Parser) SkipObject() error {
	afterComma := false
	for {
		key, err := p.Next()
		if err != nil {
			return err
		}
		if key.Kind == token.ObjectEnd {
			if afterComma {
				return fmt.Errorf("jsonscan: unexpected '}' after comma at offset %d", key.Begin)
			}
			return nil
		}
		if key.Kind != token.String && key.Kind != token.StringEsc {
			return fmt.Errorf("jsonscan: expected string key at offset %d, got %s", key.Begin, key.Kind)
		}

		colon, err := p.Next()
		if err != nil {
			return err
		}
		if colon.Kind != token.Colon {
			return fmt.Errorf("jsonscan: expected ':' at offset %d, got %s", colon.Begin, colon.Kind)
		}

		if err := p.skipValue(); err != nil {
			return err
		}

		sep, err := p.Next()
		if err != nil {
			return err
		}
		switch sep.Kind {
		case token.Comma:
			afterComma = true
			continue
		case token.ObjectEnd:
			return nil
		default:
			return fmt.Errorf("jsonscan: expected ',' or '}' at offset %d, got %s", sep.Begin, sep.Kind)
		}
	}
}

// SkipArray consumes a balanced sequence of comma-separated values up
// to and including the closing bracket. Called after the opening '['
// has already been consumed.
func (p *Parser) SkipArray() error {
	first, err := p.Next()
	if err != nil {
		return err
	}
	if first.Kind == token.ArrayEnd {
		return nil
	}
	if err := p.PutBack(first); err != nil {
		return err
	}

	for {
		if err := p.skipValue(); err != nil {
			return err
		}
		sep, err := p.Next()
		if err != nil {
			return err
		}
		switch sep.Kind {
		case token.Comma:
			continue
		case token.ArrayEnd:
			return nil
		default:
			return fmt.Errorf("jsonscan: expected ',' or ']' at offset %d, got %s", sep.Begin, sep.Kind)
		}
	}
}

// skipValue consumes exactly one JSON value (primitive, object, or
// array), without recording it anywhere.
func (p *Parser) skipValue() error {
	v, err := p.Next()
	if err != nil {
		return err
	}
	switch v.Kind {
	case token.ObjectBeg:
		return p.SkipObject()
	case token.ArrayBeg:
		return p.SkipArray()
	default:
		if v.Kind.IsPrimitive() {
			return nil
		}
		return fmt.Errorf("jsonscan: unexpected token %s at offset %d", v.Kind, v.Begin)
	}
}
