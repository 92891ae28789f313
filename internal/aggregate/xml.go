package aggregate

import (
	"fmt"
	"strings"
)

// RootTag wraps every XML aggregate: <e>...</e>. It is also the element name
// of array entries.
const RootTag = "e"

// XMLCodec encodes values as <e><a>1</a><b/></e>: one element per attribute
// in wire order, a self-closing element for NULL, nested elements for
// composite attributes and base64 text for binary leaves.
type XMLCodec struct {
	e *Embeddable
}

// Format implements Codec.
func (*XMLCodec) Format() Format { return FormatXML }

// Embeddable implements Codec.
func (c *XMLCodec) Embeddable() *Embeddable { return c.e }

// Encode implements Codec; the result is a string.
func (c *XMLCodec) Encode(v Value) (any, error) {
	var b strings.Builder
	b.WriteString("<" + RootTag + ">")
	if err := writeXMLEmbeddable(&b, c.e, v); err != nil {
		return nil, err
	}
	b.WriteString("</" + RootTag + ">")
	return b.String(), nil
}

func writeXMLEmbeddable(b *strings.Builder, e *Embeddable, v Value) error {
	if err := e.check(v); err != nil {
		return err
	}
	for _, i := range e.wire {
		a := e.attrs[i]
		if err := writeXMLAttribute(b, e, a, a.Name, v[i], a.Array); err != nil {
			return err
		}
	}
	return nil
}

func writeXMLAttribute(b *strings.Builder, e *Embeddable, a Attribute, tag string, x any, array bool) error {
	if x == nil {
		b.WriteString("<" + tag + "/>")
		return nil
	}
	b.WriteString("<" + tag + ">")
	switch {
	case array:
		items, ok := x.([]any)
		if !ok {
			if v, isValue := x.(Value); isValue {
				items = v
			} else {
				return e.attrErr(a, fmt.Errorf("array attribute holds %T", x))
			}
		}
		for _, item := range items {
			if err := writeXMLAttribute(b, e, a, RootTag, item, false); err != nil {
				return err
			}
		}
	case a.Composite():
		nested, ok := asValue(x)
		if !ok {
			return e.attrErr(a, fmt.Errorf("composite attribute holds %T", x))
		}
		if err := writeXMLEmbeddable(b, a.Embeddable, nested); err != nil {
			return err
		}
	default:
		s, err := leafText(a.Type, x)
		if err != nil {
			return e.attrErr(a, err)
		}
		xmlEscape(b, s)
	}
	b.WriteString("</" + tag + ">")
	return nil
}

func xmlEscape(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			b.WriteString("&lt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteByte(s[i])
		}
	}
}

var xmlEntities = map[string]byte{"lt": '<', "gt": '>', "amp": '&', "quot": '"', "apos": '\''}

// Decode implements Codec. src is a string or []byte.
func (c *XMLCodec) Decode(src any) (Value, error) {
	s, err := payload(FormatXML, src)
	if err != nil {
		return nil, err
	}
	p := &xmlParser{s: s}
	p.skipSpace()
	if p.consume("<"+RootTag+"/>") && strings.TrimSpace(p.s[p.pos:]) == "" {
		return nil, nil
	}
	if !p.consume("<" + RootTag + ">") {
		return nil, p.fail("", "missing <"+RootTag+"> root element")
	}
	v, err := p.embeddable(c.e, RootTag)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.s) {
		return nil, p.fail("", "trailing content after root element")
	}
	return v, nil
}

// xmlParser is a schema-driven scanner: the embeddable decides whether an
// element holds text, nested elements or array entries.
type xmlParser struct {
	s   string
	pos int
}

func (p *xmlParser) fail(tag, msg string) error {
	return &ParseError{Format: FormatXML, Offset: p.pos, Tag: tag, Msg: msg}
}

func (p *xmlParser) consume(lit string) bool {
	if strings.HasPrefix(p.s[p.pos:], lit) {
		p.pos += len(lit)
		return true
	}
	return false
}

func (p *xmlParser) skipSpace() {
	for p.pos < len(p.s) {
		switch p.s[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

// openTag reads <name> or <name/> and reports whether the tag was
// self-closing.
func (p *xmlParser) openTag(parent string) (name string, empty bool, err error) {
	if p.pos >= len(p.s) {
		return "", false, p.fail(parent, "unexpected end of input")
	}
	if p.s[p.pos] != '<' || strings.HasPrefix(p.s[p.pos:], "</") {
		return "", false, p.fail(parent, "expected an element")
	}
	start := p.pos + 1
	for i := start; i < len(p.s); i++ {
		switch p.s[i] {
		case '>':
			if i == start {
				return "", false, p.fail(parent, "empty element name")
			}
			p.pos = i + 1
			return p.s[start:i], false, nil
		case '/':
			if i == start || i+1 >= len(p.s) || p.s[i+1] != '>' {
				return "", false, p.fail(parent, "malformed self-closing element")
			}
			p.pos = i + 2
			return p.s[start:i], true, nil
		case '<', ' ':
			return "", false, p.fail(parent, "malformed element name")
		}
	}
	return "", false, p.fail(parent, "unterminated element")
}

func (p *xmlParser) closeTag(tag string) error {
	if !p.consume("</" + tag + ">") {
		return p.fail(tag, "expected </"+tag+">")
	}
	return nil
}

func (p *xmlParser) embeddable(e *Embeddable, closing string) (Value, error) {
	out := make(Value, e.Len())
	seen := make([]bool, e.Len())
	for {
		p.skipSpace()
		if p.consume("</" + closing + ">") {
			return out, nil
		}
		tag, empty, err := p.openTag(closing)
		if err != nil {
			return nil, err
		}
		i := e.Index(tag)
		if i < 0 {
			return nil, p.fail(tag, "unknown attribute of "+e.name)
		}
		if seen[i] {
			return nil, p.fail(tag, "duplicate attribute")
		}
		seen[i] = true
		if empty {
			continue
		}
		a := e.attrs[i]
		switch {
		case a.Array:
			out[i], err = p.array(a, tag)
		case a.Composite():
			out[i], err = p.embeddable(a.Embeddable, tag)
		default:
			out[i], err = p.leaf(a, tag)
		}
		if err != nil {
			return nil, err
		}
	}
}

func (p *xmlParser) array(a Attribute, closing string) ([]any, error) {
	items := []any{}
	for {
		p.skipSpace()
		if p.consume("</" + closing + ">") {
			return items, nil
		}
		tag, empty, err := p.openTag(closing)
		if err != nil {
			return nil, err
		}
		if tag != RootTag {
			return nil, p.fail(tag, "array entries must be <"+RootTag+"> elements")
		}
		if empty {
			items = append(items, nil)
			continue
		}
		var item any
		if a.Composite() {
			item, err = p.embeddable(a.Embeddable, RootTag)
		} else {
			item, err = p.leaf(a, RootTag)
		}
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
}

func (p *xmlParser) leaf(a Attribute, tag string) (any, error) {
	start := p.pos
	end := strings.IndexByte(p.s[start:], '<')
	if end < 0 {
		return nil, p.fail(tag, "unterminated element")
	}
	raw := p.s[start : start+end]
	text, err := p.unescape(raw, tag)
	if err != nil {
		return nil, err
	}
	p.pos = start + end
	if err := p.closeTag(tag); err != nil {
		return nil, err
	}
	v, err := leafValue(a.Type, text)
	if err != nil {
		return nil, &ParseError{Format: FormatXML, Offset: start, Tag: tag, Msg: err.Error()}
	}
	return v, nil
}

func (p *xmlParser) unescape(raw, tag string) (string, error) {
	if !strings.Contains(raw, "&") {
		return raw, nil
	}
	var b strings.Builder
	b.Grow(len(raw))
	for i := 0; i < len(raw); i++ {
		if raw[i] != '&' {
			b.WriteByte(raw[i])
			continue
		}
		semi := strings.IndexByte(raw[i:], ';')
		if semi < 0 {
			return "", &ParseError{Format: FormatXML, Offset: p.pos + i, Tag: tag, Msg: "unterminated entity"}
		}
		c, ok := xmlEntities[raw[i+1:i+semi]]
		if !ok {
			return "", &ParseError{Format: FormatXML, Offset: p.pos + i, Tag: tag, Msg: "unknown entity &" + raw[i+1:i+semi] + ";"}
		}
		b.WriteByte(c)
		i += semi
	}
	return b.String(), nil
}
