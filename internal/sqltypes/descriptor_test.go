package sqltypes

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptor_Bind(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name  string
		code  Code
		value any
		want  any
	}{
		{"int to bigint", BigInt, 42, int64(42)},
		{"uint32 to integer", Integer, uint32(7), int64(7)},
		{"bool to smallint", SmallInt, true, int64(1)},
		{"int to double", Double, 3, float64(3)},
		{"decimal pointer", Decimal, apd.New(12345, -2), "123.45"},
		{"decimal string normalised", Numeric, "1.50", "1.50"},
		{"float to decimal", Decimal, 0.25, "0.25"},
		{"bytes to varchar", VarChar, []byte("abc"), "abc"},
		{"string to varbinary", VarBinary, "abc", []byte("abc")},
		{"time", TimestampWithTimezone, ts, ts},
		{"uuid", UUID, id, id.String()},
		{"uuid string", UUID, "6BA7B810-9DAD-11D1-80B4-00C04FD430C8", id.String()},
		{"json value", JSON, map[string]int{"a": 1}, `{"a":1}`},
		{"json raw", JSON, json.RawMessage(`[1]`), `[1]`},
		{"duration", Duration, 2 * time.Second, int64(2 * time.Second)},
		{"bool", Boolean, false, false},
		{"nil", Integer, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DescriptorFor(tt.code).Bind(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescriptor_BindErrors(t *testing.T) {
	_, err := DescriptorFor(Integer).Bind("12")
	assert.ErrorIs(t, err, ErrConversion)

	_, err = DescriptorFor(BigInt).Bind(uint64(1 << 63))
	assert.ErrorIs(t, err, ErrConversion)

	_, err = DescriptorFor(Decimal).Bind("1.2.3")
	assert.ErrorIs(t, err, ErrConversion)

	_, err = DescriptorFor(UUID).Bind("not-a-uuid")
	assert.ErrorIs(t, err, ErrConversion)

	_, err = DescriptorFor(Other).Bind(struct{}{})
	assert.ErrorIs(t, err, ErrConversion)
}

func TestDescriptor_Extract(t *testing.T) {
	got, err := DescriptorFor(BigInt).Extract([]byte("17"))
	require.NoError(t, err)
	assert.Equal(t, int64(17), got)

	got, err = DescriptorFor(Decimal).Extract("10.010")
	require.NoError(t, err)
	assert.Equal(t, "10.010", got.(*apd.Decimal).Text('f'))

	got, err = DescriptorFor(Boolean).Extract(int64(0))
	require.NoError(t, err)
	assert.Equal(t, false, got)

	got, err = DescriptorFor(Date).Extract("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)

	got, err = DescriptorFor(Timestamp).Extract("2024-02-29T10:11:12.5")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 10, 11, 12, 500000000, time.UTC), got)

	raw := uuid.New()
	got, err = DescriptorFor(UUID).Extract(raw[:])
	require.NoError(t, err)
	assert.Equal(t, raw, got)

	got, err = DescriptorFor(Duration).Extract(int64(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, time.Minute, got)

	_, err = DescriptorFor(Integer).Extract(1.5)
	assert.ErrorIs(t, err, ErrConversion)
}

func TestInfer(t *testing.T) {
	assert.Equal(t, Null, Infer(nil))
	assert.Equal(t, BigInt, Infer(1))
	assert.Equal(t, VarChar, Infer("x"))
	assert.Equal(t, Decimal, Infer(apd.New(1, 0)))
	assert.Equal(t, UUID, Infer(uuid.New()))
	assert.Equal(t, TimestampWithTimezone, Infer(time.Now()))
	assert.Equal(t, Other, Infer(struct{}{}))
}

func TestTemporalFormats(t *testing.T) {
	ts := time.Date(2021, 7, 4, 9, 5, 6, 120000000, time.FixedZone("", 2*3600))

	tests := []struct {
		code Code
		want string
	}{
		{Date, "2021-07-04"},
		{Time, "09:05:06"},
		{Timestamp, "2021-07-04 09:05:06.12"},
		{TimestampWithTimezone, "2021-07-04T09:05:06.12+02:00"},
		{TimestampUTC, "2021-07-04 07:05:06.12"},
	}
	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			got, err := FormatTemporal(tt.code, ts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	back, err := ParseTemporal(TimestampWithTimezone, "2021-07-04T09:05:06.12+02:00")
	require.NoError(t, err)
	assert.True(t, back.Equal(ts))

	_, err = FormatTemporal(VarChar, ts)
	assert.Error(t, err)
	_, err = ParseTemporal(Date, "04/07/2021")
	assert.Error(t, err)
}
