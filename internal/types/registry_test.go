package types

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFormatter mimics a PostgreSQL-like dialect for handler tests.
type stubFormatter struct {
	maxKey int
	loc    *time.Location
}

func (s stubFormatter) FormatBoolean(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func (s stubFormatter) FormatDateTimeWithNanos(v time.Time) string {
	return "'" + v.Format(DateTimeLayout("T", 6)) + "'"
}

func (s stubFormatter) FormatZonedDateTime(v time.Time) string {
	return "'" + v.Format(DateTimeLayout("T", 6)+"Z07:00") + "'"
}

func (s stubFormatter) FormatDate(v time.Time) string { return "'" + v.Format(time.DateOnly) + "'" }

func (s stubFormatter) FormatTime(v time.Time) string { return "'" + v.Format(TimeLayout(6)) + "'" }

func (s stubFormatter) FormatString(v string) string { return "'" + v + "'" }

func (s stubFormatter) ByteArrayFormat() string { return `'\x%s'` }

func (s stubFormatter) MaxTimestampPrecision() int { return 6 }

func (s stubFormatter) MaxVarcharLengthInKey() int {
	if s.maxKey == 0 {
		return math.MaxInt32
	}
	return s.maxKey
}

func (s stubFormatter) TypeName(k Kind, sz Size) string {
	switch k {
	case Varchar:
		if sz.Length > 10485760 {
			return "text"
		}
		return fmt.Sprintf("varchar(%d)", sz.Length)
	case Text:
		return "text"
	case Timestamp:
		if sz.Precision > 0 {
			return fmt.Sprintf("timestamp(%d)", sz.Precision)
		}
		return "timestamp"
	case Boolean:
		return "boolean"
	default:
		return fmt.Sprintf("kind%d", k)
	}
}

func (s stubFormatter) Location() *time.Location {
	if s.loc == nil {
		return time.UTC
	}
	return s.loc
}

func TestRegistry_ResolveUnknown(t *testing.T) {
	r := NewRegistry()
	RegisterBase(r)

	_, err := r.Resolve("geometry")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeNotSupported))

	var tnse *TypeNotSupportedError
	require.True(t, errors.As(err, &tnse))
	assert.Equal(t, "geometry", tnse.TypeID)
}

func TestRegistry_LookupIsCaseSensitive(t *testing.T) {
	r := NewRegistry()
	RegisterBase(r)

	_, err := r.Resolve(TypeString)
	require.NoError(t, err)
	_, err = r.Resolve("string")
	assert.ErrorIs(t, err, ErrTypeNotSupported)
}

func TestRegistry_LaterRegistrationWins(t *testing.T) {
	r := NewRegistry()
	RegisterBase(r)
	base, err := r.Resolve(TypeUUID)
	require.NoError(t, err)

	RegisterPostgres(r)
	pg, err := r.Resolve(TypeUUID)
	require.NoError(t, err)
	assert.NotSame(t, base, pg)

	b, err := pg.Bind(stubFormatter{}, "$1", "6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	require.NoError(t, err)
	assert.Equal(t, "$1::uuid", b.Placeholder)
}

func TestRegistry_CloneAndFreezeAreIsolated(t *testing.T) {
	r := NewRegistry()
	RegisterBase(r)
	frozen := r.Freeze()
	clone := r.Clone()

	RegisterPostgres(clone)

	assert.True(t, clone.handlers["ltree"] != nil)
	assert.False(t, frozen.Has("ltree"))
	_, err := r.Resolve("ltree")
	assert.ErrorIs(t, err, ErrTypeNotSupported)
	assert.Contains(t, frozen.Keys(), TypeBoolean)
}

func TestTypeNotSupportedError_At(t *testing.T) {
	err := (&TypeNotSupportedError{TypeID: "geometry"}).At("public.shapes", "area")
	assert.Equal(t, `type "geometry" of column "area" in table public.shapes is not supported`, err.Error())
}
