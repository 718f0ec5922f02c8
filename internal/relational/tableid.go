// Package relational holds the immutable metadata model of sink tables: table
// identifiers, column descriptors and table descriptors.
package relational

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrInvalidTableID is returned by ParseTableID for malformed names.
var ErrInvalidTableID = errors.New("invalid table identifier")

// TableID identifies a table by up to three name parts. An empty part is absent.
type TableID struct {
	Catalog string
	Schema  string
	Table   string

	quoted bool
}

// NewTableID returns an unquoted identifier.
func NewTableID(catalog, schema, table string) TableID {
	return TableID{Catalog: catalog, Schema: schema, Table: table}
}

// Quoted returns a copy with the case-sensitivity flag set to q.
func (id TableID) Quoted(q bool) TableID {
	id.quoted = q
	return id
}

// IsQuoted reports whether the parts are case sensitive.
func (id TableID) IsQuoted() bool { return id.quoted }

// Normalize lower-cases every part unless the identifier is quoted.
func (id TableID) Normalize() TableID {
	if id.quoted {
		return id
	}
	return id.ToLowerCase()
}

// ToLowerCase returns a copy with every part lower-cased.
func (id TableID) ToLowerCase() TableID {
	return id.mapParts(cases.Lower(language.Und).String)
}

// ToUpperCase returns a copy with every part upper-cased.
func (id TableID) ToUpperCase() TableID {
	return id.mapParts(cases.Upper(language.Und).String)
}

func (id TableID) mapParts(fn func(string) string) TableID {
	id.Catalog = fn(id.Catalog)
	id.Schema = fn(id.Schema)
	id.Table = fn(id.Table)
	return id
}

// Equal compares two identifiers. Comparison is exact only when both sides are
// quoted; otherwise both sides are lower-cased the way Key folds them.
func (id TableID) Equal(other TableID) bool {
	if !id.quoted || !other.quoted {
		id, other = id.ToLowerCase(), other.ToLowerCase()
	}
	return id.Catalog == other.Catalog && id.Schema == other.Schema && id.Table == other.Table
}

// Parts returns the non-empty name parts from outermost to innermost.
func (id TableID) Parts() []string {
	parts := make([]string, 0, 3)
	for _, p := range []string{id.Catalog, id.Schema, id.Table} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// Key is the cache key of the identifier.
func (id TableID) Key() string {
	n := id.Normalize()
	if n.quoted {
		return "q:" + n.String()
	}
	return n.String()
}

func (id TableID) String() string {
	return strings.Join(id.Parts(), ".")
}

// ParseTableID parses "table", "schema.table" or "catalog.schema.table". A part
// wrapped in double quotes marks the whole identifier as quoted.
func ParseTableID(s string) (TableID, error) {
	raw := strings.Split(s, ".")
	if len(raw) > 3 {
		return TableID{}, fmt.Errorf("%w: %q has %d parts", ErrInvalidTableID, s, len(raw))
	}

	var quoted bool
	parts := make([]string, len(raw))
	for i, p := range raw {
		p = strings.TrimSpace(p)
		if len(p) >= 2 && p[0] == '"' && p[len(p)-1] == '"' {
			p = p[1 : len(p)-1]
			quoted = true
		}
		if p == "" {
			return TableID{}, fmt.Errorf("%w: %q has an empty part", ErrInvalidTableID, s)
		}
		parts[i] = p
	}

	var id TableID
	switch len(parts) {
	case 1:
		id.Table = parts[0]
	case 2:
		id.Schema, id.Table = parts[0], parts[1]
	case 3:
		id.Catalog, id.Schema, id.Table = parts[0], parts[1], parts[2]
	}
	return id.Quoted(quoted), nil
}
