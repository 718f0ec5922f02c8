package builder

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func quote(s string) string { return `"` + s + `"` }

func TestBuilder_AppendList(t *testing.T) {
	b := New()
	b.Append("INSERT INTO t (").AppendList(",", []string{"id", "name"}, quote).Append(")")
	assert.Equal(t, `INSERT INTO t ("id","name")`, b.Build())
}

func TestBuilder_AppendListEmpty(t *testing.T) {
	b := New().Append("x").AppendList(",", nil, quote)
	assert.Equal(t, "x", b.Build())
}

func TestBuilder_AppendLists(t *testing.T) {
	b := New().AppendLists(", ", []string{"a"}, []string{"b", "c"}, strings.ToUpper)
	assert.Equal(t, "A, B, C", b.Build())

	b = New().AppendLists(", ", nil, []string{"b"}, strings.ToUpper)
	assert.Equal(t, "B", b.Build())
}

func TestBuilder_Appendf(t *testing.T) {
	var b Builder
	b.Appendf("$%d", 3)
	assert.Equal(t, "$3", b.Build())
	assert.Equal(t, 2, b.Len())
}

func TestBuilder_AppendListE(t *testing.T) {
	boom := errors.New("boom")
	fn := func(s string) (string, error) {
		if s == "bad" {
			return "", boom
		}
		return quote(s), nil
	}

	b := New().AppendListE(",", []string{"a", "b"}, fn)
	assert.NoError(t, b.Err())
	assert.Equal(t, `"a","b"`, b.Build())

	b = New().AppendListsE(",", []string{"a"}, []string{"bad", "c"}, fn)
	assert.ErrorIs(t, b.Err(), boom)
	assert.Equal(t, `"a"`, b.Build())

	b.AppendListE(",", []string{"z"}, fn)
	assert.Equal(t, `"a"`, b.Build(), "kept error stops further rendering")

	b.Reset()
	assert.NoError(t, b.Err())
	assert.Equal(t, 0, b.Len())
}
