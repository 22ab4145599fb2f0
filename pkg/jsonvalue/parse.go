package jsonvalue

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MaxDepth bounds container nesting accepted by Parse.
const MaxDepth = 10000

// SyntaxError describes malformed input. Msg is the parser's diagnostic.
type SyntaxError struct {
	Msg    string
	Offset int64 // byte offset where the problem was detected
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s (at offset %d)", e.Msg, e.Offset)
}

// Parse decodes exactly one JSON value from text. Object member order is kept
// as it appears in the source. Trailing non-whitespace is an error. A lone
// surrogate escape such as "\ud800" decodes to U+FFFD, so it serializes as
// the replacement character rather than as the original escape.
func Parse(text string) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	p := &parser{dec: dec, size: int64(len(text))}

	tok, err := dec.Token()
	if err != nil {
		return Value{}, p.wrap(err)
	}
	v, err := p.value(tok, 0)
	if err != nil {
		return Value{}, err
	}

	switch _, err := dec.Token(); {
	case errors.Is(err, io.EOF):
		return v, nil
	case err == nil:
		return Value{}, &SyntaxError{Msg: "unexpected data after top-level value", Offset: dec.InputOffset()}
	default:
		return Value{}, p.wrap(err)
	}
}

type parser struct {
	dec  *json.Decoder
	size int64
}

func (p *parser) wrap(err error) error {
	var se *json.SyntaxError
	switch {
	case errors.As(err, &se):
		return &SyntaxError{Msg: se.Error(), Offset: se.Offset}
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return &SyntaxError{Msg: "unexpected end of JSON input", Offset: p.size}
	default:
		return &SyntaxError{Msg: err.Error(), Offset: p.dec.InputOffset()}
	}
}

func (p *parser) next() (json.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return nil, p.wrap(err)
	}
	return tok, nil
}

func (p *parser) value(tok json.Token, depth int) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(t), nil
	case string:
		return StringValue(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return Value{}, &SyntaxError{Msg: fmt.Sprintf("invalid number literal %q", string(t)), Offset: p.dec.InputOffset()}
		}
		// Out of range literals keep ParseFloat's ±Inf or 0, like the platform parser.
		return NumberValue(f), nil
	case json.Delim:
		if depth >= MaxDepth {
			return Value{}, &SyntaxError{Msg: fmt.Sprintf("exceeded max nesting depth of %d", MaxDepth), Offset: p.dec.InputOffset()}
		}
		switch t {
		case '[':
			return p.array(depth)
		case '{':
			return p.object(depth)
		}
	}
	return Value{}, &SyntaxError{Msg: fmt.Sprintf("unexpected token %v", tok), Offset: p.dec.InputOffset()}
}

func (p *parser) array(depth int) (Value, error) {
	var elems []Value
	for p.dec.More() {
		tok, err := p.next()
		if err != nil {
			return Value{}, err
		}
		v, err := p.value(tok, depth+1)
		if err != nil {
			return Value{}, err
		}
		elems = append(elems, v)
	}
	if _, err := p.next(); err != nil { // ']'
		return Value{}, err
	}
	return Value{kind: Array, elems: elems}, nil
}

func (p *parser) object(depth int) (Value, error) {
	b := newObjectBuilder(0)
	for p.dec.More() {
		keyTok, err := p.next()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, &SyntaxError{Msg: "object key is not a string", Offset: p.dec.InputOffset()}
		}
		tok, err := p.next()
		if err != nil {
			return Value{}, err
		}
		v, err := p.value(tok, depth+1)
		if err != nil {
			return Value{}, err
		}
		b.set(key, v)
	}
	if _, err := p.next(); err != nil { // '}'
		return Value{}, err
	}
	return b.value(), nil
}
