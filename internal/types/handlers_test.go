package types

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postgresRegistry() Lookup {
	r := NewRegistry()
	RegisterBase(r)
	RegisterPostgres(r)
	return r.Freeze()
}

func mustResolve(t *testing.T, l Lookup, key string) Handler {
	t.Helper()
	h, err := l.Resolve(key)
	require.NoError(t, err)
	return h
}

func TestHandlers_Format(t *testing.T) {
	l := postgresRegistry()
	f := stubFormatter{}
	ts := time.Date(2024, 3, 9, 10, 11, 12, 123456789, time.UTC)

	tests := []struct {
		name  string
		key   string
		value any
		want  string
	}{
		{"true keyword", TypeBoolean, true, "TRUE"},
		{"false from string", TypeBoolean, "false", "FALSE"},
		{"int64", TypeInt64, int32(42), "42"},
		{"float", TypeFloat64, 1.5, "1.5"},
		{"decimal", TypeDecimal, decimal.RequireFromString("42.50"), "42.5"},
		{"decimal from string", "numeric", "10.25", "10.25"},
		{"string", TypeString, "PAID", "'PAID'"},
		{"bytes", TypeBytes, []byte{0xde, 0xad}, `'\xdead'`},
		{"timestamp trims to precision", TypeTimestamp, ts, "'2024-03-09T10:11:12.123456'"},
		{"date", TypeDate, ts, "'2024-03-09'"},
		{"time", TypeTime, ts, "'10:11:12.123456'"},
		{"uuid", TypeUUID, uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"), "'6ba7b810-9dad-11d1-80b4-00c04fd430c8'"},
		{"json map", TypeJSON, map[string]any{"a": 1}, `'{"a":1}'`},
		{"bits", "bit", "0101", "B'0101'"},
		{"point", TypePoint, Point{X: 1, Y: 2.5}, "'(1,2.5)'"},
		{"hstore sorted", TypeMap, map[string]string{"b": "2", "a": "1"}, `'"a"=>"1","b"=>"2"'`},
		{"interval", TypeInterval, 90 * time.Second, "'90000000 microseconds'"},
		{"null", TypeString, nil, "NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mustResolve(t, l, tt.key).Format(f, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandlers_FormatInvalid(t *testing.T) {
	l := postgresRegistry()
	f := stubFormatter{}

	tests := []struct {
		key   string
		value any
	}{
		{TypeBoolean, "maybe"},
		{TypeInt32, "forty"},
		{TypeFloat64, math.NaN()},
		{TypeUUID, "not-a-uuid"},
		{TypeJSON, "{broken"},
		{TypeInet, "300.1.1.1"},
		{TypeMacAddr, "zz:zz"},
		{"bit", "0102"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := mustResolve(t, l, tt.key).Format(f, tt.value)
			assert.ErrorIs(t, err, ErrInvalidValue)
		})
	}
}

func TestHandlers_Bind(t *testing.T) {
	l := postgresRegistry()
	f := stubFormatter{loc: time.FixedZone("CET", 3600)}

	b, err := mustResolve(t, l, TypeDecimal).Bind(f, "$2", 42.5)
	require.NoError(t, err)
	assert.Equal(t, pair(b), pair(Binding{Placeholder: "$2", Value: "42.5"}))

	b, err = mustResolve(t, l, "inet").Bind(f, "$1", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, "$1::inet", b.Placeholder)
	assert.Equal(t, "10.0.0.1", b.Value)

	b, err = mustResolve(t, l, "jsonb").Bind(f, "$3", `{"a":true}`)
	require.NoError(t, err)
	assert.Equal(t, "$3::jsonb", b.Placeholder)

	b, err = mustResolve(t, l, TypeString).Bind(f, "$4", nil)
	require.NoError(t, err)
	assert.Nil(t, b.Value)

	ts := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	b, err = mustResolve(t, l, TypeZonedTimestamp).Bind(f, "$5", ts)
	require.NoError(t, err)
	got, ok := b.Value.(time.Time)
	require.True(t, ok)
	assert.True(t, got.Equal(ts))
	assert.Equal(t, "CET", got.Location().String())
}

func pair(b Binding) [2]any { return [2]any{b.Placeholder, b.Value} }

func TestStringHandler_TypeNameInKey(t *testing.T) {
	l := postgresRegistry()
	h := mustResolve(t, l, TypeString)

	assert.Equal(t, "text", h.TypeName(stubFormatter{}, Size{Key: true}))
	assert.Equal(t, "varchar(255)", h.TypeName(stubFormatter{maxKey: 255}, Size{Key: true}))
	assert.Equal(t, "varchar(100)", h.TypeName(stubFormatter{maxKey: 255}, Size{Length: 100, Key: true}))
	assert.Equal(t, "varchar(255)", h.TypeName(stubFormatter{maxKey: 255}, Size{Length: 1000, Key: true}))
	assert.Equal(t, "text", h.TypeName(stubFormatter{maxKey: 255}, Size{}))
	assert.Equal(t, math.MaxInt32, h.MaxLength(stubFormatter{}))
}

func TestTimestampHandler_ClampsPrecision(t *testing.T) {
	h := mustResolve(t, postgresRegistry(), TypeTimestamp)
	assert.Equal(t, "timestamp(6)", h.TypeName(stubFormatter{}, Size{Precision: 9}))
	assert.Equal(t, "timestamp(3)", h.TypeName(stubFormatter{}, Size{Precision: 3}))
	assert.Equal(t, "timestamp", h.TypeName(stubFormatter{}, Size{}))
}

func TestHstoreText_NullValue(t *testing.T) {
	s, err := hstoreText(map[string]any{"k": nil, "q": `a"b`})
	require.NoError(t, err)
	assert.Equal(t, `"k"=>NULL,"q"=>"a\"b"`, s)
}
