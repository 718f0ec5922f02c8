package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Build(t *testing.T) {
	rec, err := NewBuilder().
		Topic("server1.public.orders").
		Operation(Update).
		Key(Field{Name: "id", Type: "INT64", Value: int64(1)}).
		Field(
			Field{Name: "status", Type: "STRING", Optional: true, Value: "PAID"},
			Field{Name: "total", Type: "DECIMAL", Value: "42.50"},
		).
		Build()
	require.NoError(t, err)

	assert.Equal(t, "server1.public.orders", rec.Topic())
	assert.Equal(t, Update, rec.Operation())
	assert.False(t, rec.IsDelete())
	assert.Equal(t, []string{"id"}, rec.KeyFieldNames())
	assert.Equal(t, []string{"status", "total"}, rec.NonKeyFieldNames())

	f, ok := rec.Field("status")
	require.True(t, ok)
	assert.Equal(t, "PAID", f.Value)
	assert.True(t, f.Optional)
}

func TestDescriptor_Lookup(t *testing.T) {
	rec, err := NewBuilder().Field(Field{Name: "Status", Type: "STRING"}).Build()
	require.NoError(t, err)

	_, ok := rec.Field("status")
	assert.False(t, ok)
	f, ok := rec.Lookup("status", false)
	require.True(t, ok)
	assert.Equal(t, "Status", f.Name)
	_, ok = rec.Lookup("status", true)
	assert.False(t, ok)
}

func TestDescriptor_NamesAreCopies(t *testing.T) {
	rec, err := NewBuilder().Key(Field{Name: "id", Type: "INT64"}).Build()
	require.NoError(t, err)

	keys := rec.KeyFieldNames()
	keys[0] = "x"
	assert.Equal(t, []string{"id"}, rec.KeyFieldNames())
	assert.Empty(t, rec.NonKeyFieldNames())
}

func TestBuilder_Errors(t *testing.T) {
	_, err := NewBuilder().Key(Field{Name: "id"}).Field(Field{Name: "id"}).Build()
	assert.ErrorIs(t, err, ErrDuplicateField)

	_, err = NewBuilder().Field(Field{Type: "STRING"}).Build()
	assert.ErrorIs(t, err, ErrEmptyFieldName)
}

func TestParseOperation(t *testing.T) {
	tests := map[string]Operation{
		"c":        Create,
		"INSERT":   Create,
		"update":   Update,
		" d ":      Delete,
		"snapshot": Read,
		"truncate": Truncate,
	}
	for in, want := range tests {
		got, err := ParseOperation(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOperation("merge")
	assert.ErrorIs(t, err, ErrUnknownOperation)

	rec, err := NewBuilder().Operation(Truncate).Build()
	require.NoError(t, err)
	assert.True(t, rec.IsTruncate())
}
