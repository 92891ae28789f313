package aggregate

import (
	"errors"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coregx/sqldialect/internal/sqltypes"
)

func address() *Embeddable {
	return MustEmbeddable("address", []Attribute{
		{Name: "street", Type: sqltypes.VarChar},
		{Name: "number", Type: sqltypes.Integer},
	}, 1, 0)
}

func order() *Embeddable {
	return MustEmbeddable("order_info", []Attribute{
		{Name: "id", Type: sqltypes.BigInt},
		{Name: "amount", Type: sqltypes.Decimal},
		{Name: "placed_on", Type: sqltypes.Date},
		{Name: "placed_at", Type: sqltypes.TimestampWithTimezone},
		{Name: "payload", Type: sqltypes.VarBinary},
		{Name: "note", Type: sqltypes.VarChar},
		{Name: "paid", Type: sqltypes.Boolean},
		{Name: "ref", Type: sqltypes.UUID},
		{Name: "ship_to", Embeddable: address()},
	}, 8, 0, 2, 1, 3, 5, 4, 7, 6)
}

func mustDecimal(t *testing.T, s string) *apd.Decimal {
	t.Helper()
	d, _, err := apd.NewFromString(s)
	require.NoError(t, err)
	return d
}

func sampleOrder(t *testing.T) Value {
	return Value{
		int64(42),
		mustDecimal(t, "1234.50"),
		time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 15, 10, 30, 0, 123456789, time.FixedZone("", 3600)),
		[]byte{0x00, 0x01, 0xfe, 0xff},
		`a<b & "c", d\e`,
		true,
		uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
		Value{"Main St", int64(12)},
	}
}

// assertSameValue compares decoded values by meaning: instants, decimal
// values and nested composites.
func assertSameValue(t *testing.T, want, got any, path string) {
	t.Helper()
	switch w := want.(type) {
	case nil:
		assert.Nil(t, got, path)
	case time.Time:
		g, ok := got.(time.Time)
		require.True(t, ok, "%s: got %T", path, got)
		assert.True(t, w.Equal(g), "%s: want %v, got %v", path, w, g)
	case *apd.Decimal:
		g, ok := got.(*apd.Decimal)
		require.True(t, ok, "%s: got %T", path, got)
		assert.Zero(t, w.Cmp(g), "%s: want %s, got %s", path, w, g)
	case Value:
		g, ok := got.(Value)
		require.True(t, ok, "%s: got %T", path, got)
		require.Len(t, g, len(w), path)
		for i := range w {
			assertSameValue(t, w[i], g[i], path)
		}
	case []any:
		g, ok := got.([]any)
		require.True(t, ok, "%s: got %T", path, got)
		require.Len(t, g, len(w), path)
		for i := range w {
			assertSameValue(t, w[i], g[i], path)
		}
	default:
		assert.Equal(t, want, got, path)
	}
}

func TestCodecs_RoundTrip(t *testing.T) {
	withNulls := sampleOrder(t)
	withNulls[1] = nil
	withNulls[4] = nil
	withNulls[8] = Value{nil, int64(7)}

	emptyText := sampleOrder(t)
	emptyText[5] = ""
	emptyText[8] = nil

	values := map[string]Value{
		"all set":    sampleOrder(t),
		"null leafs": withNulls,
		"empty text": emptyText,
	}
	for _, f := range []Format{FormatStruct, FormatJSON, FormatXML} {
		codec, err := NewCodec(f, order())
		require.NoError(t, err)
		for name, v := range values {
			t.Run(f.String()+"/"+name, func(t *testing.T) {
				enc, err := codec.Encode(v)
				require.NoError(t, err)
				got, err := codec.Decode(enc)
				require.NoError(t, err)
				assertSameValue(t, v, got, name)
			})
		}
	}
}

func TestStructCodec_RowLiteralRoundTrip(t *testing.T) {
	codec := &StructCodec{e: order()}
	for name, v := range map[string]Value{
		"all set": sampleOrder(t),
		"nulls":   {int64(1), nil, nil, nil, nil, nil, nil, nil, nil},
	} {
		t.Run(name, func(t *testing.T) {
			text, err := codec.RowLiteral(v)
			require.NoError(t, err)
			got, err := codec.Decode(text)
			require.NoError(t, err)
			assertSameValue(t, v, got, name)
		})
	}
}

func TestStructCodec_AppliesPermutation(t *testing.T) {
	codec := &StructCodec{e: address()}
	enc, err := codec.Encode(Value{"Main St", int64(12)})
	require.NoError(t, err)
	assert.Equal(t, &Struct{TypeName: "address", Attributes: []any{int64(12), "Main St"}}, enc)

	got, err := codec.Decode([]any{int64(3), "Elm"})
	require.NoError(t, err)
	assert.Equal(t, Value{"Elm", int64(3)}, got)

	lit, err := codec.RowLiteral(Value{"Main St", int64(12)})
	require.NoError(t, err)
	assert.Equal(t, `(12,"Main St")`, lit)
}

func TestStructValue_RowLiteral(t *testing.T) {
	s := &Struct{TypeName: "t", Attributes: []any{int64(1), nil, "", `x"y`, []byte{0xab}, &Struct{Attributes: []any{true, "a,b"}}}}
	v, err := s.Value()
	require.NoError(t, err)
	assert.Equal(t, `(1,,"","x""y","\\xab","(t,""a,b"")")`, v)
}

func TestXMLCodec_Encoding(t *testing.T) {
	codec, err := NewCodec(FormatXML, address())
	require.NoError(t, err)

	enc, err := codec.Encode(Value{"Rue <de> & Paix", nil})
	require.NoError(t, err)
	assert.Equal(t, "<e><number/><street>Rue &lt;de> &amp; Paix</street></e>", enc)

	got, err := codec.Decode("<e>\n  <street>a&gt;b&quot;&apos;</street>\n  <number>3</number>\n</e>")
	require.NoError(t, err)
	assert.Equal(t, Value{`a>b"'`, int64(3)}, got)

	got, err = codec.Decode("<e/>")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestJSONCodec_Encoding(t *testing.T) {
	e := MustEmbeddable("item", []Attribute{
		{Name: "qty", Type: sqltypes.Integer},
		{Name: "price", Type: sqltypes.Numeric},
		{Name: "name", Type: sqltypes.VarChar},
		{Name: "blob", Type: sqltypes.Blob},
		{Name: "on", Type: sqltypes.Date},
	})
	codec, err := NewCodec(FormatJSON, e)
	require.NoError(t, err)

	enc, err := codec.Encode(Value{int64(2), "9.90", `say "hi"`, []byte("hi"), time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.Equal(t, `{"qty":2,"price":9.90,"name":"say \"hi\"","blob":"aGk=","on":"2020-01-02"}`, enc)

	got, err := codec.Decode(`{"name": null, "qty": 5}`)
	require.NoError(t, err)
	assert.Equal(t, Value{int64(5), nil, nil, nil, nil}, got)

	got, err = codec.Decode("null")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCodecs_ArrayAttributes(t *testing.T) {
	e := MustEmbeddable("bag", []Attribute{
		{Name: "tags", Type: sqltypes.VarChar, Array: true},
		{Name: "stops", Embeddable: address(), Array: true},
	})
	v := Value{
		[]any{"a", nil, "c&d"},
		[]any{Value{"Main St", int64(1)}, nil},
	}
	for _, f := range []Format{FormatStruct, FormatJSON, FormatXML} {
		t.Run(f.String(), func(t *testing.T) {
			codec, err := NewCodec(f, e)
			require.NoError(t, err)
			enc, err := codec.Encode(v)
			require.NoError(t, err)
			got, err := codec.Decode(enc)
			require.NoError(t, err)
			assertSameValue(t, v, got, "bag")
		})
	}

	xmlCodec, err := NewCodec(FormatXML, e)
	require.NoError(t, err)
	enc, err := xmlCodec.Encode(Value{[]any{"x", nil}, []any{}})
	require.NoError(t, err)
	assert.Equal(t, "<e><tags><e>x</e><e/></tags><stops></stops></e>", enc)

	_, err = (&StructCodec{e: e}).RowLiteral(v)
	require.ErrorIs(t, err, ErrValue)
}

func TestDecode_MalformedPayloads(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  any
		tag    string
		offset int
	}{
		{"xml without root", FormatXML, "<street>x</street>", "", 0},
		{"xml unknown attribute", FormatXML, "<e><city>x</city></e>", "city", 9},
		{"xml duplicate attribute", FormatXML, "<e><number/><number/></e>", "number", 21},
		{"xml unknown entity", FormatXML, "<e><street>a&nbsp;b</street></e>", "street", 12},
		{"xml unterminated", FormatXML, "<e><street>abc", "street", 11},
		{"xml wrong close tag", FormatXML, "<e><street>abc</city></e>", "street", 14},
		{"xml bad integer", FormatXML, "<e><number>x1</number></e>", "number", 11},
		{"xml trailing content", FormatXML, "<e></e><e></e>", "", 7},
		{"json unknown attribute", FormatJSON, `{"city":"x"}`, "city", 7},
		{"json not an object", FormatJSON, `[1]`, "", 1},
		{"json trailing content", FormatJSON, `{} {}`, "", 4},
		{"json trailing content after members", FormatJSON, `{"number":1} {}`, "", 14},
		{"json wrong scalar", FormatJSON, `{"number":true}`, "number", 14},
		{"row too few fields", FormatStruct, `(1)`, "address", 0},
		{"row unterminated", FormatStruct, `(1,"abc`, "address", 7},
		{"row bad integer", FormatStruct, `(x,abc)`, "number", 1},
		{"struct wrong type", FormatStruct, 42, "address", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			codec, err := NewCodec(tt.format, address())
			require.NoError(t, err)
			v, err := codec.Decode(tt.input)
			require.Error(t, err)
			assert.Nil(t, v)
			assert.ErrorIs(t, err, ErrMalformed)

			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.format, pe.Format)
			assert.Equal(t, tt.tag, pe.Tag)
			assert.Equal(t, tt.offset, pe.Offset)
		})
	}
}

func TestEncode_InvalidValues(t *testing.T) {
	for _, f := range []Format{FormatStruct, FormatJSON, FormatXML} {
		codec, err := NewCodec(f, address())
		require.NoError(t, err)

		_, err = codec.Encode(Value{"only one"})
		assert.ErrorIs(t, err, ErrValue, f.String())

		_, err = codec.Encode(Value{"x", "not a number"})
		assert.ErrorIs(t, err, ErrValue, f.String())
	}
}

func TestNewEmbeddable(t *testing.T) {
	attrs := []Attribute{{Name: "a", Type: sqltypes.Integer}, {Name: "b", Type: sqltypes.VarChar}, {Name: "c", Type: sqltypes.Date}}

	e, err := NewEmbeddable("abc", attrs, 2, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0, 1}, e.WireOrder())
	assert.Equal(t, 1, e.WirePosition(0))
	assert.Equal(t, 2, e.WirePosition(1))
	assert.Equal(t, 0, e.WirePosition(2))
	assert.Equal(t, []any{"C", "A", "B"}, e.ToWire([]any{"A", "B", "C"}))
	assert.Equal(t, Value{"A", "B", "C"}, e.FromWire(e.ToWire([]any{"A", "B", "C"})))
	assert.Equal(t, 1, e.Index("b"))
	assert.Equal(t, -1, e.Index("z"))

	for name, order := range map[string][]int{
		"repeated index": {0, 0, 1},
		"out of range":   {0, 1, 3},
		"too short":      {0, 1},
	} {
		_, err := NewEmbeddable("abc", attrs, order...)
		assert.Error(t, err, name)
	}

	_, err = NewEmbeddable("dup", []Attribute{{Name: "a"}, {Name: "a"}})
	assert.Error(t, err)
	_, err = NewEmbeddable("", attrs)
	assert.Error(t, err)
	_, err = NewEmbeddable("none", nil)
	assert.Error(t, err)
}

func TestFormat_Text(t *testing.T) {
	for _, f := range []Format{FormatStruct, FormatJSON, FormatXML} {
		b, err := f.MarshalText()
		require.NoError(t, err)
		var back Format
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, f, back)
	}
	var f Format
	assert.ErrorIs(t, f.UnmarshalText([]byte("yaml")), ErrFormat)
	_, err := NewCodec(Format(9), address())
	assert.ErrorIs(t, err, ErrFormat)
}
