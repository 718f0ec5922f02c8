package dialects

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coregx/sqlsink/internal/logger"
	"github.com/coregx/sqlsink/internal/relational"
	"github.com/coregx/sqlsink/internal/security"
	"github.com/coregx/sqlsink/internal/types"
)

// General defaults used when a Vendor leaves a field unset.
const (
	DefaultMaxTimestampPrecision = 6
	DefaultMaxVarcharLengthInKey = 255
	DefaultByteArrayFormat       = "X'%s'"
)

// General is the Dialect implementation shared by every backend. It consults
// its Vendor for each behavior and falls back to portable defaults.
type General struct {
	vendor    Vendor
	cfg       Config
	log       logger.Logger
	types     types.Lookup
	catalog   Catalog
	validator *security.Validator
	loc       *time.Location
}

var _ Dialect = (*General)(nil)

// New builds a dialect for v. The handler registry is assembled from the base
// set plus the vendor extension and frozen. The session time zone comes from
// cfg when set, otherwise it is probed once through s; a failed probe falls back
// to UTC.
func New(ctx context.Context, v Vendor, cfg Config, s Session) (*General, error) {
	g := &General{
		vendor:    v,
		cfg:       cfg,
		validator: security.NewValidator(),
		loc:       time.UTC,
	}
	g.log = logger.With(logger.OrNoop(cfg.Logger), "dialect", g.Name())

	r := types.NewRegistry()
	types.RegisterBase(r)
	if v.RegisterTypes != nil {
		v.RegisterTypes(r)
	}
	g.types = r.Freeze()

	g.catalog = v.Catalog
	if g.catalog == nil {
		g.catalog = generalCatalog
	}

	switch {
	case cfg.DatabaseTimeZone != "":
		loc, err := parseZone(cfg.DatabaseTimeZone)
		if err != nil {
			return nil, err
		}
		g.loc = loc
	case s.Querier != nil:
		if _, ok := g.DatabaseTimeZoneQuery(); ok {
			loc, err := g.DatabaseTimeZone(ctx, s.Querier)
			if err != nil {
				g.log.Warn("database time zone probe failed, assuming UTC", "error", err)
			} else {
				g.loc = loc
			}
		}
	}

	g.log.Debug("dialect initialized",
		"product", s.Detected.Product,
		"version", s.Detected.Version,
		"time_zone", g.loc.String(),
		"quote_identifiers", cfg.QuoteIdentifiers)
	return g, nil
}

// Name is the vendor name, used in logs and as the db.system span attribute.
func (g *General) Name() string {
	if g.vendor.Name == "" {
		return "generic"
	}
	return g.vendor.Name
}

// MaxTimestampPrecision is the largest fractional-second precision of a timestamp column.
func (g *General) MaxTimestampPrecision() int {
	if g.vendor.MaxTimestampPrecision > 0 {
		return g.vendor.MaxTimestampPrecision
	}
	return DefaultMaxTimestampPrecision
}

// MaxVarcharLengthInKey bounds the length of a string column that is part of a key.
func (g *General) MaxVarcharLengthInKey() int {
	if g.vendor.MaxVarcharLengthInKey > 0 {
		return g.vendor.MaxVarcharLengthInKey
	}
	return DefaultMaxVarcharLengthInKey
}

// ByteArrayFormat is the fmt pattern a hex-encoded byte array literal is written with.
func (g *General) ByteArrayFormat() string {
	if g.vendor.ByteArrayFormat != "" {
		return g.vendor.ByteArrayFormat
	}
	return DefaultByteArrayFormat
}

// FormatBoolean renders a boolean literal.
func (g *General) FormatBoolean(v bool) string {
	if g.vendor.FormatBoolean != nil {
		return g.vendor.FormatBoolean(v)
	}
	if v {
		return "1"
	}
	return "0"
}

// FormatDateTimeWithNanos renders a timestamp literal with up to MaxTimestampPrecision fractional digits.
func (g *General) FormatDateTimeWithNanos(v time.Time) string {
	if g.vendor.FormatDateTime != nil {
		return g.vendor.FormatDateTime(v, g.MaxTimestampPrecision())
	}
	return quoteLiteral(v.Format(types.DateTimeLayout("T", g.MaxTimestampPrecision())))
}

// FormatZonedDateTime renders a timestamp literal that keeps its offset.
func (g *General) FormatZonedDateTime(v time.Time) string {
	if g.vendor.FormatZonedDateTime != nil {
		return g.vendor.FormatZonedDateTime(v, g.MaxTimestampPrecision())
	}
	return quoteLiteral(v.Format(types.DateTimeLayout("T", g.MaxTimestampPrecision()) + "Z07:00"))
}

// FormatDate renders a date literal.
func (g *General) FormatDate(v time.Time) string {
	if g.vendor.FormatDate != nil {
		return g.vendor.FormatDate(v)
	}
	return quoteLiteral(v.Format(time.DateOnly))
}

// FormatTime renders a time-of-day literal.
func (g *General) FormatTime(v time.Time) string {
	if g.vendor.FormatTime != nil {
		return g.vendor.FormatTime(v, g.MaxTimestampPrecision())
	}
	return quoteLiteral(v.Format(types.TimeLayout(g.MaxTimestampPrecision())))
}

// FormatString renders a quoted string literal with embedded quotes doubled.
func (g *General) FormatString(v string) string {
	if g.vendor.FormatString != nil {
		return g.vendor.FormatString(v)
	}
	return quoteLiteral(strings.ReplaceAll(v, "'", "''"))
}

// TypeName returns the DDL type for a portable type family.
func (g *General) TypeName(k types.Kind, s types.Size) string {
	if g.vendor.TypeName != nil {
		if name := g.vendor.TypeName(k, s); name != "" {
			return name
		}
	}
	return generalTypeName(k, s)
}

func generalTypeName(k types.Kind, s types.Size) string {
	switch k {
	case types.Boolean:
		return "boolean"
	case types.SmallInt:
		return "smallint"
	case types.Integer:
		return "integer"
	case types.BigInt:
		return "bigint"
	case types.Real:
		return "real"
	case types.Double:
		return "double precision"
	case types.Decimal:
		return sized("decimal", s.Precision, s.Scale)
	case types.Varchar:
		return fmt.Sprintf("varchar(%d)", s.Length)
	case types.Text:
		return "text"
	case types.Binary:
		return "blob"
	case types.Date:
		return "date"
	case types.Time:
		return precise("time", s.Precision, "")
	case types.TimeWithTimeZone:
		return precise("time", s.Precision, " with time zone")
	case types.Timestamp:
		return precise("timestamp", s.Precision, "")
	case types.TimestampWithTimeZone:
		return precise("timestamp", s.Precision, " with time zone")
	case types.UUID:
		return "char(36)"
	case types.JSON:
		return "text"
	default:
		return "text"
	}
}

// sized renders name(p,s), name(p) or name depending on which values are set.
func sized(name string, precision, scale int) string {
	switch {
	case precision > 0 && scale > 0:
		return fmt.Sprintf("%s(%d,%d)", name, precision, scale)
	case precision > 0:
		return fmt.Sprintf("%s(%d)", name, precision)
	default:
		return name
	}
}

// precise renders name(p)suffix, or namesuffix without a precision.
func precise(name string, precision int, suffix string) string {
	if precision > 0 {
		return fmt.Sprintf("%s(%d)%s", name, precision, suffix)
	}
	return name + suffix
}

// Location is the session time zone zoned values are rendered in.
func (g *General) Location() *time.Location { return g.loc }

// DatabaseTimeZoneQuery returns the time zone probe, if the vendor has one.
func (g *General) DatabaseTimeZoneQuery() (string, bool) {
	return g.vendor.TimeZoneQuery, g.vendor.TimeZoneQuery != ""
}

// QuoteIdentifier wraps name in the vendor's identifier quotes.
func (g *General) QuoteIdentifier(name string) string {
	if g.vendor.QuoteIdentifier != nil {
		return g.vendor.QuoteIdentifier(name)
	}
	return quoteWith(`"`, `"`)(name)
}

// Placeholder returns the bind marker of the n-th argument, counted from 1.
func (g *General) Placeholder(n int) string {
	if g.vendor.Placeholder != nil {
		return g.vendor.Placeholder(n)
	}
	return "?"
}

// ColumnName renders a column reference, quoted when quoting is enabled.
func (g *General) ColumnName(name string) string {
	if g.cfg.QuoteIdentifiers {
		return g.QuoteIdentifier(name)
	}
	return name
}

// QualifiedTableName renders every present part of id.
func (g *General) QualifiedTableName(id relational.TableID) string {
	parts := id.Parts()
	for i, p := range parts {
		parts[i] = g.ColumnName(p)
	}
	return strings.Join(parts, ".")
}

// Types returns the frozen type handlers of this dialect.
func (g *General) Types() types.Lookup { return g.types }

// FormatValue renders v as an inline literal of the given type.
func (g *General) FormatValue(typeID string, v any) (string, error) {
	h, err := g.types.Resolve(typeID)
	if err != nil {
		return "", err
	}
	return h.Format(g, v)
}

// DatabaseTimeZone runs the time zone probe. Backends without one report UTC.
func (g *General) DatabaseTimeZone(ctx context.Context, q Querier) (*time.Location, error) {
	query, ok := g.DatabaseTimeZoneQuery()
	if !ok {
		return time.UTC, nil
	}
	var name string
	if err := q.QueryRowContext(ctx, query).Scan(&name); err != nil {
		return nil, &ConnectivityError{Op: "query database time zone", Err: err}
	}
	return parseZone(name)
}

func parseZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	switch strings.ToUpper(name) {
	case "", "SYSTEM":
		return nil, fmt.Errorf("%w: %q", ErrUnknownTimeZone, name)
	case "UTC", "Z", "GMT", "ETC/UTC":
		return time.UTC, nil
	}

	if name[0] == '+' || name[0] == '-' {
		t, err := time.Parse("-07:00", name)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTimeZone, name)
		}
		_, offset := t.Zone()
		return time.FixedZone(name, offset), nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrUnknownTimeZone, name, err)
	}
	return loc, nil
}

// CatalogID returns the identifier ReadTable and TableExists look up.
func (g *General) CatalogID(id relational.TableID) relational.TableID { return g.fold(id) }

// fold applies the catalog case rule: quoted identifiers are matched exactly,
// unquoted ones in the case the backend stores them in.
func (g *General) fold(id relational.TableID) relational.TableID {
	if g.cfg.QuoteIdentifiers || id.IsQuoted() {
		return id.Quoted(true)
	}
	switch g.vendor.UnquotedCase {
	case CaseUpper:
		return id.ToUpperCase()
	case CasePreserve:
		return id
	default:
		return id.Normalize()
	}
}

// IsUndefinedTable reports whether err is the vendor's "table does not exist" error.
func (g *General) IsUndefinedTable(err error) bool {
	return g.vendor.IsUndefinedTable != nil && g.vendor.IsUndefinedTable(err)
}

// identifier renders name for a statement. Unquoted names must pass validation.
func (g *General) identifier(table relational.TableID, name string) (string, error) {
	if g.cfg.QuoteIdentifiers {
		return g.QuoteIdentifier(name), nil
	}
	if err := g.validator.ValidateIdentifier(name); err != nil {
		return "", &StatementError{Table: table, Field: name, Err: err}
	}
	return name, nil
}

func (g *General) tableName(id relational.TableID) (string, error) {
	if !g.cfg.QuoteIdentifiers {
		if err := g.validator.ValidateIdentifiers(id.Parts()...); err != nil {
			return "", &StatementError{Table: id, Err: err}
		}
	}
	return g.QualifiedTableName(id), nil
}

func (g *General) resolveHandler(table relational.TableID, field, typeID string) (types.Handler, error) {
	h, err := g.types.Resolve(typeID)
	if err != nil {
		var tnse *types.TypeNotSupportedError
		if errors.As(err, &tnse) {
			err = tnse.At(table.String(), field)
		}
		return nil, &StatementError{Table: table, Field: field, Type: typeID, Err: err}
	}
	return h, nil
}
