package aggregate

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/coregx/sqldialect/internal/sqltypes"
)

// Struct is a native composite value: the attributes of TypeName in wire
// order. Leaves are driver values; nested composites are *Struct.
type Struct struct {
	TypeName   string
	Attributes []any
}

// StructCodec binds composites as *Struct values for drivers with native
// STRUCT support and reads them back from *Struct values or from the
// PostgreSQL row literal text, e.g. (1,"a b",,"(x,2)").
type StructCodec struct {
	e *Embeddable
}

// Format implements Codec.
func (*StructCodec) Format() Format { return FormatStruct }

// Embeddable implements Codec.
func (c *StructCodec) Embeddable() *Embeddable { return c.e }

// Encode implements Codec; the result is a *Struct.
func (c *StructCodec) Encode(v Value) (any, error) {
	if v == nil {
		return nil, nil
	}
	return encodeStruct(c.e, v)
}

func encodeStruct(e *Embeddable, v Value) (*Struct, error) {
	if err := e.check(v); err != nil {
		return nil, err
	}
	attrs := make([]any, len(v))
	for i, x := range v {
		a := e.attrs[i]
		var err error
		if attrs[i], err = encodeStructAttribute(e, a, x, a.Array); err != nil {
			return nil, err
		}
	}
	return &Struct{TypeName: e.name, Attributes: e.ToWire(attrs)}, nil
}

func encodeStructAttribute(e *Embeddable, a Attribute, x any, array bool) (any, error) {
	if x == nil {
		return nil, nil
	}
	switch {
	case array:
		items, ok := asValue(x)
		if !ok {
			return nil, e.attrErr(a, fmt.Errorf("array attribute holds %T", x))
		}
		out := make([]any, len(items))
		for k, item := range items {
			var err error
			if out[k], err = encodeStructAttribute(e, a, item, false); err != nil {
				return nil, err
			}
		}
		return out, nil
	case a.Composite():
		nested, ok := asValue(x)
		if !ok {
			return nil, e.attrErr(a, fmt.Errorf("composite attribute holds %T", x))
		}
		return encodeStruct(a.Embeddable, nested)
	}
	dv, err := sqltypes.DescriptorFor(a.Type).Bind(x)
	if err != nil {
		return nil, e.attrErr(a, err)
	}
	return dv, nil
}

// Decode implements Codec. src is a *Struct, a wire-order []any, or row
// literal text.
func (c *StructCodec) Decode(src any) (Value, error) {
	switch s := src.(type) {
	case nil:
		return nil, nil
	case string:
		return decodeRow(c.e, s, 0)
	case []byte:
		return decodeRow(c.e, string(s), 0)
	}
	return decodeStruct(c.e, src)
}

func decodeStruct(e *Embeddable, src any) (Value, error) {
	var wire []any
	switch s := src.(type) {
	case *Struct:
		wire = s.Attributes
	case Struct:
		wire = s.Attributes
	case []any:
		wire = s
	default:
		return nil, &ParseError{Format: FormatStruct, Tag: e.name, Msg: fmt.Sprintf("unexpected payload type %T", src)}
	}
	if len(wire) != e.Len() {
		return nil, &ParseError{Format: FormatStruct, Tag: e.name, Msg: fmt.Sprintf("expected %d attributes, got %d", e.Len(), len(wire))}
	}
	v := e.FromWire(wire)
	for i, x := range v {
		a := e.attrs[i]
		var err error
		if v[i], err = decodeStructAttribute(a, x, a.Array); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func decodeStructAttribute(a Attribute, x any, array bool) (any, error) {
	if x == nil {
		return nil, nil
	}
	switch {
	case array:
		items, ok := x.([]any)
		if !ok {
			return nil, &ParseError{Format: FormatStruct, Tag: a.Name, Msg: fmt.Sprintf("array attribute holds %T", x)}
		}
		out := make([]any, len(items))
		for k, item := range items {
			var err error
			if out[k], err = decodeStructAttribute(a, item, false); err != nil {
				return nil, err
			}
		}
		return out, nil
	case a.Composite():
		if s, ok := x.(string); ok {
			return decodeRow(a.Embeddable, s, 0)
		}
		return decodeStruct(a.Embeddable, x)
	}
	v, err := sqltypes.DescriptorFor(a.Type).Extract(x)
	if err != nil {
		return nil, &ParseError{Format: FormatStruct, Tag: a.Name, Msg: err.Error()}
	}
	return v, nil
}

// RowLiteral renders v as PostgreSQL composite literal text.
func (c *StructCodec) RowLiteral(v Value) (string, error) {
	s, err := encodeStruct(c.e, v)
	if err != nil {
		return "", err
	}
	return rowLiteral(c.e, s)
}

// rowLiteral renders s. With a nil embeddable leaf types are taken from the
// Go values alone.
func rowLiteral(e *Embeddable, s *Struct) (string, error) {
	var b strings.Builder
	b.WriteByte('(')
	for j, x := range s.Attributes {
		if j > 0 {
			b.WriteByte(',')
		}
		if x == nil {
			continue
		}
		a := Attribute{Name: s.TypeName, Type: sqltypes.Other}
		if e != nil {
			a = e.attrs[e.wire[j]]
		}
		text, err := rowField(a, x)
		if err != nil {
			return "", fmt.Errorf("%w: %s.%s: %w", ErrValue, s.TypeName, a.Name, err)
		}
		writeRowField(&b, text)
	}
	b.WriteByte(')')
	return b.String(), nil
}

func rowField(a Attribute, x any) (string, error) {
	if a.Array {
		return "", fmt.Errorf("array attributes have no row literal form")
	}
	switch v := x.(type) {
	case *Struct:
		var nested *Embeddable
		if a.Composite() {
			nested = a.Embeddable
		}
		return rowLiteral(nested, v)
	case bool:
		if v {
			return "t", nil
		}
		return "f", nil
	case []byte:
		return `\x` + hex.EncodeToString(v), nil
	case time.Time:
		if a.Type.IsTemporal() {
			return sqltypes.FormatTemporal(a.Type, v)
		}
		return v.Format(time.RFC3339Nano), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case string:
		return v, nil
	}
	return "", fmt.Errorf("cannot render %T in a row literal", x)
}

func writeRowField(b *strings.Builder, s string) {
	if s != "" && !strings.ContainsAny(s, "(),\"\\ \t\n\r") {
		b.WriteString(s)
		return
	}
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"', '\\':
			b.WriteByte(s[i])
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
}

// decodeRow parses row literal text. base is the offset of s within the
// outermost payload, for error positions.
func decodeRow(e *Embeddable, s string, base int) (Value, error) {
	fields, offsets, err := splitRow(s, base, e.name)
	if err != nil {
		return nil, err
	}
	if len(fields) != e.Len() {
		return nil, &ParseError{Format: FormatStruct, Offset: base, Tag: e.name, Msg: fmt.Sprintf("expected %d attributes, got %d", e.Len(), len(fields))}
	}
	wire := make([]any, len(fields))
	for j, f := range fields {
		if f == nil {
			continue
		}
		a := e.attrs[e.wire[j]]
		v, err := rowValue(a, *f, offsets[j])
		if err != nil {
			return nil, err
		}
		wire[j] = v
	}
	return e.FromWire(wire), nil
}

// splitRow splits "(a,"b c",,d)" into its fields; a nil field is NULL.
func splitRow(s string, base int, tag string) ([]*string, []int, error) {
	fail := func(pos int, msg string) error {
		return &ParseError{Format: FormatStruct, Offset: base + pos, Tag: tag, Msg: msg}
	}
	if len(s) < 2 || s[0] != '(' {
		return nil, nil, fail(0, "expected '('")
	}
	var (
		fields  []*string
		offsets []int
		pos     = 1
	)
	for {
		start := pos
		var (
			b      strings.Builder
			quoted bool
		)
	field:
		for pos < len(s) {
			c := s[pos]
			switch {
			case c == '"' && !quoted && b.Len() == 0 && pos == start:
				quoted = true
				pos++
			case quoted && c == '"':
				if pos+1 < len(s) && s[pos+1] == '"' {
					b.WriteByte('"')
					pos += 2
					continue
				}
				pos++
				break field
			case c == '\\':
				if pos+1 >= len(s) {
					return nil, nil, fail(pos, "dangling escape")
				}
				b.WriteByte(s[pos+1])
				pos += 2
			case !quoted && (c == ',' || c == ')'):
				break field
			default:
				b.WriteByte(c)
				pos++
			}
		}
		if pos >= len(s) {
			return nil, nil, fail(pos, "unterminated row literal")
		}
		if quoted || pos > start {
			text := b.String()
			fields = append(fields, &text)
		} else {
			fields = append(fields, nil)
		}
		offsets = append(offsets, base+start)
		switch s[pos] {
		case ',':
			pos++
		case ')':
			if pos != len(s)-1 {
				return nil, nil, fail(pos+1, "trailing content after row literal")
			}
			return fields, offsets, nil
		default:
			return nil, nil, fail(pos, "expected ',' or ')'")
		}
	}
}

// pgTimestampLayouts are the output forms PostgreSQL uses inside composite
// literals.
var pgTimestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999-07:00",
	"15:04:05.999999999-07",
}

func rowValue(a Attribute, text string, offset int) (any, error) {
	fail := func(err error) error {
		return &ParseError{Format: FormatStruct, Offset: offset, Tag: a.Name, Msg: err.Error()}
	}
	if a.Composite() {
		return decodeRow(a.Embeddable, text, offset)
	}
	switch {
	case a.Type.IsBinary():
		if !strings.HasPrefix(text, `\x`) {
			return nil, fail(fmt.Errorf("binary value without \\x prefix"))
		}
		b, err := hex.DecodeString(text[2:])
		if err != nil {
			return nil, fail(err)
		}
		return b, nil
	case a.Type.IsTemporal():
		if t, err := sqltypes.ParseTemporal(a.Type, text); err == nil {
			return t, nil
		}
		for _, layout := range pgTimestampLayouts {
			if t, err := time.Parse(layout, text); err == nil {
				return t, nil
			}
		}
		return nil, fail(fmt.Errorf("unrecognized %s %q", a.Type, text))
	}
	v, err := sqltypes.DescriptorFor(a.Type).Extract(text)
	if err != nil {
		return nil, fail(err)
	}
	return v, nil
}

// Value implements driver.Valuer by rendering the row literal form, for
// drivers that bind composites as text.
func (s *Struct) Value() (driver.Value, error) {
	return rowLiteral(nil, s)
}
