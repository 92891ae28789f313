package aggregate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/coregx/sqldialect/internal/sqltypes"
)

// JSONCodec encodes values as JSON objects keyed by attribute name, in wire
// order. Numbers and booleans are JSON scalars; every other leaf is a string
// in its canonical text form.
type JSONCodec struct {
	e *Embeddable
}

// Format implements Codec.
func (*JSONCodec) Format() Format { return FormatJSON }

// Embeddable implements Codec.
func (c *JSONCodec) Embeddable() *Embeddable { return c.e }

// Encode implements Codec; the result is a string.
func (c *JSONCodec) Encode(v Value) (any, error) {
	var b strings.Builder
	if err := writeJSONEmbeddable(&b, c.e, v); err != nil {
		return nil, err
	}
	return b.String(), nil
}

func writeJSONEmbeddable(b *strings.Builder, e *Embeddable, v Value) error {
	if err := e.check(v); err != nil {
		return err
	}
	b.WriteByte('{')
	for j, i := range e.wire {
		if j > 0 {
			b.WriteByte(',')
		}
		a := e.attrs[i]
		writeJSONString(b, a.Name)
		b.WriteByte(':')
		if err := writeJSONAttribute(b, e, a, v[i], a.Array); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

func writeJSONAttribute(b *strings.Builder, e *Embeddable, a Attribute, x any, array bool) error {
	if x == nil {
		b.WriteString("null")
		return nil
	}
	switch {
	case array:
		items, ok := asValue(x)
		if !ok {
			return e.attrErr(a, fmt.Errorf("array attribute holds %T", x))
		}
		b.WriteByte('[')
		for k, item := range items {
			if k > 0 {
				b.WriteByte(',')
			}
			if err := writeJSONAttribute(b, e, a, item, false); err != nil {
				return err
			}
		}
		b.WriteByte(']')
		return nil
	case a.Composite():
		nested, ok := asValue(x)
		if !ok {
			return e.attrErr(a, fmt.Errorf("composite attribute holds %T", x))
		}
		return writeJSONEmbeddable(b, a.Embeddable, nested)
	}
	s, err := leafText(a.Type, x)
	if err != nil {
		return e.attrErr(a, err)
	}
	if jsonScalar(a.Type) {
		b.WriteString(s)
		return nil
	}
	writeJSONString(b, s)
	return nil
}

// jsonScalar reports whether leaves of code are written unquoted.
func jsonScalar(code sqltypes.Code) bool {
	return code.IsNumeric() || code == sqltypes.Boolean || code == sqltypes.Bit
}

func writeJSONString(b *strings.Builder, s string) {
	out, _ := json.Marshal(s)
	b.Write(out)
}

// Decode implements Codec. src is a string or []byte.
func (c *JSONCodec) Decode(src any) (Value, error) {
	s, err := payload(FormatJSON, src)
	if err != nil {
		return nil, err
	}
	p := &jsonParser{dec: json.NewDecoder(strings.NewReader(s))}
	p.dec.UseNumber()

	tok, err := p.token("")
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, p.end()
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, p.fail("", "expected an object")
	}
	v, err := p.object(c.e)
	if err != nil {
		return nil, err
	}
	if err := p.end(); err != nil {
		return nil, err
	}
	return v, nil
}

type jsonParser struct {
	dec *json.Decoder
}

func (p *jsonParser) fail(key, msg string) error {
	return &ParseError{Format: FormatJSON, Offset: int(p.dec.InputOffset()), Tag: key, Msg: msg}
}

func (p *jsonParser) token(key string) (json.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, p.fail(key, "unexpected end of input")
		}
		return nil, p.fail(key, err.Error())
	}
	return tok, nil
}

func (p *jsonParser) end() error {
	if _, err := p.dec.Token(); !errors.Is(err, io.EOF) {
		return p.fail("", "trailing content after value")
	}
	return nil
}

// object reads the members of an object whose '{' was consumed.
func (p *jsonParser) object(e *Embeddable) (Value, error) {
	out := make(Value, e.Len())
	seen := make([]bool, e.Len())
	for p.dec.More() {
		tok, err := p.token(e.name)
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, p.fail(e.name, "expected a member name")
		}
		i := e.Index(key)
		if i < 0 {
			return nil, p.fail(key, "unknown attribute of "+e.name)
		}
		if seen[i] {
			return nil, p.fail(key, "duplicate attribute")
		}
		seen[i] = true
		if out[i], err = p.attribute(e.attrs[i], key, e.attrs[i].Array); err != nil {
			return nil, err
		}
	}
	if _, err := p.token(e.name); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *jsonParser) attribute(a Attribute, key string, array bool) (any, error) {
	tok, err := p.token(key)
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if d, ok := tok.(json.Delim); ok {
		switch {
		case d == '[' && array:
			items := []any{}
			for p.dec.More() {
				item, err := p.attribute(a, key, false)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			if _, err := p.token(key); err != nil {
				return nil, err
			}
			return items, nil
		case d == '{' && !array && a.Composite():
			return p.object(a.Embeddable)
		}
		return nil, p.fail(key, fmt.Sprintf("unexpected %v", d))
	}
	if array || a.Composite() {
		return nil, p.fail(key, "expected an array or object")
	}
	var text string
	switch x := tok.(type) {
	case json.Number:
		text = x.String()
	case string:
		text = x
	case bool:
		if a.Type == sqltypes.Boolean || a.Type == sqltypes.Bit {
			return x, nil
		}
		return nil, p.fail(key, "unexpected boolean for "+a.Type.String())
	}
	v, err := leafValue(a.Type, text)
	if err != nil {
		return nil, p.fail(key, err.Error())
	}
	return v, nil
}
