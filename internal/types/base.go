package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// handler is a Handler assembled from functions. Nil functions fall back to
// passing the value through unchanged.
type handler struct {
	keys      []string
	typeName  func(f Formatter, s Size) string
	format    func(f Formatter, v any) (string, error)
	convert   func(f Formatter, v any) (any, error)
	cast      string
	maxLength func(f Formatter) int
}

func (h *handler) Keys() []string { return h.keys }

func (h *handler) TypeName(f Formatter, s Size) string { return h.typeName(f, s) }

func (h *handler) Format(f Formatter, v any) (string, error) {
	if v == nil {
		return "NULL", nil
	}
	return h.format(f, v)
}

func (h *handler) Bind(f Formatter, placeholder string, v any) (Binding, error) {
	if h.cast != "" {
		placeholder = fmt.Sprintf(h.cast, placeholder)
	}
	if v == nil || h.convert == nil {
		return Binding{Placeholder: placeholder, Value: v}, nil
	}
	val, err := h.convert(f, v)
	if err != nil {
		return Binding{}, err
	}
	return Binding{Placeholder: placeholder, Value: val}, nil
}

func (h *handler) MaxLength(f Formatter) int {
	if h.maxLength == nil {
		return 0
	}
	return h.maxLength(f)
}

func kindName(k Kind) func(Formatter, Size) string {
	return func(f Formatter, s Size) string { return f.TypeName(k, s) }
}

func fixedName(name string) func(Formatter, Size) string {
	return func(Formatter, Size) string { return name }
}

func clampPrecision(f Formatter, p int) int {
	if max := f.MaxTimestampPrecision(); p > max {
		return max
	}
	return p
}

// RegisterBase registers the handlers shared by every dialect.
func RegisterBase(r *Registry) {
	r.Register(booleanHandler(TypeBoolean, "boolean", "bool"))
	r.Register(integerHandler(SmallInt, TypeInt8, "tinyint"))
	r.Register(integerHandler(SmallInt, TypeInt16, "smallint", "int2"))
	r.Register(integerHandler(Integer, TypeInt32, "integer", "int", "int4", "mediumint"))
	r.Register(integerHandler(BigInt, TypeInt64, "bigint", "int8"))
	r.Register(floatHandler(Real, TypeFloat32, "real", "float4", "binary_float"))
	r.Register(floatHandler(Double, TypeFloat64, "double precision", "double", "float8", "float", "binary_double"))
	r.Register(decimalHandler(TypeDecimal, "numeric", "decimal", "number"))
	r.Register(stringHandler(TypeString,
		"character varying", "varchar", "character", "char", "bpchar", "text",
		"nvarchar", "nchar", "ntext", "tinytext", "mediumtext", "longtext",
		"varchar2", "nvarchar2", "clob", "nclob"))
	r.Register(bytesHandler(TypeBytes, "bytea", "blob", "binary", "varbinary", "tinyblob", "mediumblob", "longblob", "image", "raw"))
	r.Register(dateHandler(TypeDate, "date"))
	r.Register(timeHandler(TypeTime, "time", "time without time zone"))
	r.Register(timestampHandler(TypeTimestamp, "timestamp", "timestamp without time zone", "datetime", "datetime2", "smalldatetime"))
	r.Register(zonedTimestampHandler(TypeZonedTimestamp, "timestamp with time zone", "timestamptz", "datetimeoffset", "timestamp with local time zone"))
	r.Register(uuidHandler("", TypeUUID))
	r.Register(jsonHandler(kindName(JSON), "", TypeJSON, "json"))
}

func booleanHandler(keys ...string) *handler {
	return &handler{
		keys:     keys,
		typeName: kindName(Boolean),
		format: func(f Formatter, v any) (string, error) {
			b, ok := toBool(v)
			if !ok {
				return "", invalidValue(TypeBoolean, v)
			}
			return f.FormatBoolean(b), nil
		},
		convert: func(_ Formatter, v any) (any, error) {
			b, ok := toBool(v)
			if !ok {
				return nil, invalidValue(TypeBoolean, v)
			}
			return b, nil
		},
	}
}

func integerHandler(k Kind, keys ...string) *handler {
	return &handler{
		keys:     keys,
		typeName: kindName(k),
		format: func(_ Formatter, v any) (string, error) {
			n, ok := toInt64(v)
			if !ok {
				return "", invalidValue(keys[0], v)
			}
			return strconv.FormatInt(n, 10), nil
		},
		convert: func(_ Formatter, v any) (any, error) {
			n, ok := toInt64(v)
			if !ok {
				return nil, invalidValue(keys[0], v)
			}
			return n, nil
		},
	}
}

func floatHandler(k Kind, keys ...string) *handler {
	return &handler{
		keys:     keys,
		typeName: kindName(k),
		format: func(_ Formatter, v any) (string, error) {
			x, ok := toFloat64(v)
			if !ok || math.IsNaN(x) || math.IsInf(x, 0) {
				return "", invalidValue(keys[0], v)
			}
			return strconv.FormatFloat(x, 'g', -1, 64), nil
		},
		convert: func(_ Formatter, v any) (any, error) {
			x, ok := toFloat64(v)
			if !ok {
				return nil, invalidValue(keys[0], v)
			}
			return x, nil
		},
	}
}

func decimalHandler(keys ...string) *handler {
	return &handler{
		keys:     keys,
		typeName: kindName(Decimal),
		format: func(_ Formatter, v any) (string, error) {
			d, ok := toDecimal(v)
			if !ok {
				return "", invalidValue(TypeDecimal, v)
			}
			return d.String(), nil
		},
		convert: func(_ Formatter, v any) (any, error) {
			d, ok := toDecimal(v)
			if !ok {
				return nil, invalidValue(TypeDecimal, v)
			}
			return d.String(), nil
		},
	}
}

func stringHandler(keys ...string) *handler {
	return &handler{
		keys: keys,
		typeName: func(f Formatter, s Size) string {
			length := s.Length
			if s.Key {
				if max := f.MaxVarcharLengthInKey(); length == 0 || length > max {
					length = max
				}
			}
			if length > 0 {
				return f.TypeName(Varchar, Size{Length: length, Key: s.Key})
			}
			return f.TypeName(Text, s)
		},
		format: func(f Formatter, v any) (string, error) {
			s, ok := toText(v)
			if !ok {
				return "", invalidValue(keys[0], v)
			}
			return f.FormatString(s), nil
		},
		convert:   textConvert(keys[0]),
		maxLength: func(f Formatter) int { return f.MaxVarcharLengthInKey() },
	}
}

func textConvert(typeID string) func(Formatter, any) (any, error) {
	return func(_ Formatter, v any) (any, error) {
		s, ok := toText(v)
		if !ok {
			return nil, invalidValue(typeID, v)
		}
		return s, nil
	}
}

func bytesHandler(keys ...string) *handler {
	return &handler{
		keys:     keys,
		typeName: kindName(Binary),
		format: func(f Formatter, v any) (string, error) {
			b, ok := toBytes(v)
			if !ok {
				return "", invalidValue(TypeBytes, v)
			}
			return hexLiteral(f, b), nil
		},
		convert: func(_ Formatter, v any) (any, error) {
			b, ok := toBytes(v)
			if !ok {
				return nil, invalidValue(TypeBytes, v)
			}
			return b, nil
		},
	}
}

func timeConvert(typeID string) func(Formatter, any) (any, error) {
	return func(_ Formatter, v any) (any, error) {
		t, ok := toTime(v)
		if !ok {
			return nil, invalidValue(typeID, v)
		}
		return t, nil
	}
}

func dateHandler(keys ...string) *handler {
	return &handler{
		keys:     keys,
		typeName: kindName(Date),
		format: func(f Formatter, v any) (string, error) {
			t, ok := toTime(v)
			if !ok {
				return "", invalidValue(TypeDate, v)
			}
			return f.FormatDate(t), nil
		},
		convert: timeConvert(TypeDate),
	}
}

func timeHandler(keys ...string) *handler {
	return &handler{
		keys: keys,
		typeName: func(f Formatter, s Size) string {
			return f.TypeName(Time, Size{Precision: clampPrecision(f, s.Precision)})
		},
		format: func(f Formatter, v any) (string, error) {
			t, ok := toTime(v)
			if !ok {
				return "", invalidValue(TypeTime, v)
			}
			return f.FormatTime(t), nil
		},
		convert: timeConvert(TypeTime),
	}
}

func timestampHandler(keys ...string) *handler {
	return &handler{
		keys: keys,
		typeName: func(f Formatter, s Size) string {
			return f.TypeName(Timestamp, Size{Precision: clampPrecision(f, s.Precision)})
		},
		format: func(f Formatter, v any) (string, error) {
			t, ok := toTime(v)
			if !ok {
				return "", invalidValue(TypeTimestamp, v)
			}
			return f.FormatDateTimeWithNanos(t), nil
		},
		convert: timeConvert(TypeTimestamp),
	}
}

func zonedTimestampHandler(keys ...string) *handler {
	return &handler{
		keys: keys,
		typeName: func(f Formatter, s Size) string {
			return f.TypeName(TimestampWithTimeZone, Size{Precision: clampPrecision(f, s.Precision)})
		},
		format: func(f Formatter, v any) (string, error) {
			t, ok := toTime(v)
			if !ok {
				return "", invalidValue(TypeZonedTimestamp, v)
			}
			return f.FormatZonedDateTime(t.In(f.Location())), nil
		},
		convert: func(f Formatter, v any) (any, error) {
			t, ok := toTime(v)
			if !ok {
				return nil, invalidValue(TypeZonedTimestamp, v)
			}
			return t.In(f.Location()), nil
		},
	}
}

func parseUUID(v any) (uuid.UUID, bool) {
	switch x := v.(type) {
	case uuid.UUID:
		return x, true
	case [16]byte:
		return uuid.UUID(x), true
	case []byte:
		if len(x) == 16 {
			u, err := uuid.FromBytes(x)
			return u, err == nil
		}
		u, err := uuid.ParseBytes(x)
		return u, err == nil
	case string:
		u, err := uuid.Parse(x)
		return u, err == nil
	default:
		return uuid.UUID{}, false
	}
}

// uuidHandler builds a uuid handler; cast wraps the placeholder when non-empty.
func uuidHandler(cast string, keys ...string) *handler {
	return &handler{
		keys:     keys,
		typeName: kindName(UUID),
		cast:     cast,
		format: func(f Formatter, v any) (string, error) {
			u, ok := parseUUID(v)
			if !ok {
				return "", invalidValue(TypeUUID, v)
			}
			return f.FormatString(u.String()), nil
		},
		convert: func(_ Formatter, v any) (any, error) {
			u, ok := parseUUID(v)
			if !ok {
				return nil, invalidValue(TypeUUID, v)
			}
			return u.String(), nil
		},
	}
}

func jsonText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, json.Valid([]byte(x))
	case []byte:
		return string(x), json.Valid(x)
	case json.RawMessage:
		return string(x), json.Valid(x)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(b), true
	}
}

func jsonHandler(typeName func(Formatter, Size) string, cast string, keys ...string) *handler {
	return &handler{
		keys:     keys,
		typeName: typeName,
		cast:     cast,
		format: func(f Formatter, v any) (string, error) {
			s, ok := jsonText(v)
			if !ok {
				return "", invalidValue(TypeJSON, v)
			}
			return f.FormatString(s), nil
		},
		convert: func(_ Formatter, v any) (any, error) {
			s, ok := jsonText(v)
			if !ok {
				return nil, invalidValue(TypeJSON, v)
			}
			return s, nil
		},
	}
}
