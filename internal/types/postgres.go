package types

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Point is a two-dimensional geometric point.
type Point struct {
	X float64
	Y float64
}

func (p Point) String() string {
	return "(" + strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64) + ")"
}

// RegisterPostgres registers the PostgreSQL specific handlers on top of the base set.
func RegisterPostgres(r *Registry) {
	r.Register(&handler{
		keys: []string{TypeZonedTime, "time with time zone", "timetz"},
		typeName: func(f Formatter, s Size) string {
			return f.TypeName(TimeWithTimeZone, Size{Precision: clampPrecision(f, s.Precision)})
		},
		cast: "%s::timetz",
		format: func(f Formatter, v any) (string, error) {
			s, err := zonedTimeText(f, v)
			if err != nil {
				return "", err
			}
			return f.FormatString(s), nil
		},
		convert: func(f Formatter, v any) (any, error) { return zonedTimeText(f, v) },
	})
	r.Register(&handler{
		keys:     []string{TypeInterval, "interval"},
		typeName: fixedName("interval"),
		cast:     "%s::interval",
		format: func(f Formatter, v any) (string, error) {
			s, err := intervalText(v)
			if err != nil {
				return "", err
			}
			return f.FormatString(s), nil
		},
		convert: func(_ Formatter, v any) (any, error) { return intervalText(v) },
	})
	serial := integerHandler(Integer, TypeSerial, "serial", "bigserial", "smallserial")
	serial.typeName = fixedName("serial")
	r.Register(serial)
	r.Register(&handler{
		keys: []string{TypeBits, "bit", "bit varying", "varbit"},
		typeName: func(_ Formatter, s Size) string {
			if s.Length > 1 {
				return fmt.Sprintf("bit varying(%d)", s.Length)
			}
			return "bit"
		},
		cast: "%s::bit varying",
		format: func(_ Formatter, v any) (string, error) {
			s, err := bitsText(v)
			if err != nil {
				return "", err
			}
			return "B'" + s + "'", nil
		},
		convert: func(_ Formatter, v any) (any, error) { return bitsText(v) },
	})
	r.Register(jsonHandler(kindName(JSON), "%s::json", TypeJSON, "json"))
	r.Register(jsonHandler(fixedName("jsonb"), "%s::jsonb", "jsonb"))
	r.Register(uuidHandler("%s::uuid", TypeUUID, "uuid"))
	r.Register(castText(TypeEnum, "text", "", "enum"))
	r.Register(&handler{
		keys:     []string{TypePoint, "point"},
		typeName: fixedName("point"),
		cast:     "%s::point",
		format: func(f Formatter, v any) (string, error) {
			p, ok := toPoint(v)
			if !ok {
				return "", invalidValue(TypePoint, v)
			}
			return f.FormatString(p.String()), nil
		},
		convert: func(_ Formatter, v any) (any, error) {
			p, ok := toPoint(v)
			if !ok {
				return nil, invalidValue(TypePoint, v)
			}
			return p.String(), nil
		},
	})
	r.Register(&handler{
		keys:     []string{TypeMoney, "money"},
		typeName: fixedName("money"),
		cast:     "%s::money",
		format: func(f Formatter, v any) (string, error) {
			d, ok := toDecimal(v)
			if !ok {
				return "", invalidValue(TypeMoney, v)
			}
			return f.FormatString(d.String()), nil
		},
		convert: func(_ Formatter, v any) (any, error) {
			d, ok := toDecimal(v)
			if !ok {
				return nil, invalidValue(TypeMoney, v)
			}
			return d.String(), nil
		},
	})
	r.Register(castText(TypeXML, "xml", "%s::xml", "xml"))
	r.Register(castText(TypeLtree, "ltree", "%s::ltree", "ltree"))
	r.Register(&handler{
		keys:     []string{TypeMap, "hstore"},
		typeName: fixedName("hstore"),
		cast:     "%s::hstore",
		format: func(f Formatter, v any) (string, error) {
			s, err := hstoreText(v)
			if err != nil {
				return "", err
			}
			return f.FormatString(s), nil
		},
		convert: func(_ Formatter, v any) (any, error) { return hstoreText(v) },
	})
	for _, rng := range []string{"int4range", "int8range", "numrange", "tsrange", "tstzrange", "daterange"} {
		r.Register(castText(rng, rng, "%s::"+rng))
	}
	r.Register(networkHandler(TypeCidr, "cidr", func(s string) bool { _, _, err := net.ParseCIDR(s); return err == nil }))
	r.Register(networkHandler(TypeInet, "inet", func(s string) bool {
		if net.ParseIP(s) != nil {
			return true
		}
		_, _, err := net.ParseCIDR(s)
		return err == nil
	}))
	mac := networkHandler(TypeMacAddr, "macaddr", func(s string) bool { _, err := net.ParseMAC(s); return err == nil })
	mac.keys = append(mac.keys, "macaddr8")
	r.Register(mac)
	r.Register(castText(TypeCitext, "citext", "%s::citext", "citext"))
	oid := integerHandler(BigInt, TypeOid, "oid")
	oid.typeName = fixedName("oid")
	oid.cast = "%s::oid"
	r.Register(oid)
}

// castText is a text-valued handler with a fixed DDL type name.
func castText(typeID, typeName, cast string, native ...string) *handler {
	return &handler{
		keys:     append([]string{typeID}, native...),
		typeName: fixedName(typeName),
		cast:     cast,
		format: func(f Formatter, v any) (string, error) {
			s, ok := toText(v)
			if !ok {
				return "", invalidValue(typeID, v)
			}
			return f.FormatString(s), nil
		},
		convert: textConvert(typeID),
	}
}

func networkHandler(typeID, native string, valid func(string) bool) *handler {
	h := castText(typeID, native, "%s::"+native, native)
	check := func(v any) (string, error) {
		s, ok := toText(v)
		if !ok || !valid(s) {
			return "", invalidValue(typeID, v)
		}
		return s, nil
	}
	h.format = func(f Formatter, v any) (string, error) {
		s, err := check(v)
		if err != nil {
			return "", err
		}
		return f.FormatString(s), nil
	}
	h.convert = func(_ Formatter, v any) (any, error) { return check(v) }
	return h
}

func zonedTimeText(f Formatter, v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	t, ok := toTime(v)
	if !ok {
		return "", invalidValue(TypeZonedTime, v)
	}
	return t.Format(TimeLayout(f.MaxTimestampPrecision()) + "Z07:00"), nil
}

func intervalText(v any) (string, error) {
	switch x := v.(type) {
	case time.Duration:
		return strconv.FormatInt(x.Microseconds(), 10) + " microseconds", nil
	case string:
		return x, nil
	default:
		if n, ok := toInt64(v); ok {
			return strconv.FormatInt(n, 10) + " microseconds", nil
		}
		return "", invalidValue(TypeInterval, v)
	}
}

func bitsText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		if strings.Trim(x, "01") != "" {
			return "", invalidValue(TypeBits, v)
		}
		return x, nil
	case bool:
		if x {
			return "1", nil
		}
		return "0", nil
	case []byte:
		var sb strings.Builder
		for _, b := range x {
			fmt.Fprintf(&sb, "%08b", b)
		}
		return sb.String(), nil
	default:
		return "", invalidValue(TypeBits, v)
	}
}

func toPoint(v any) (Point, bool) {
	switch x := v.(type) {
	case Point:
		return x, true
	case *Point:
		if x == nil {
			return Point{}, false
		}
		return *x, true
	case [2]float64:
		return Point{X: x[0], Y: x[1]}, true
	case []float64:
		if len(x) != 2 {
			return Point{}, false
		}
		return Point{X: x[0], Y: x[1]}, true
	case map[string]any:
		px, okx := toFloat64(x["x"])
		py, oky := toFloat64(x["y"])
		return Point{X: px, Y: py}, okx && oky
	default:
		return Point{}, false
	}
}

// hstoreText renders a map as an hstore literal with keys in sorted order.
func hstoreText(v any) (string, error) {
	var m map[string]*string
	switch x := v.(type) {
	case string:
		return x, nil
	case map[string]string:
		m = make(map[string]*string, len(x))
		for k, val := range x {
			m[k] = &val
		}
	case map[string]any:
		m = make(map[string]*string, len(x))
		for k, val := range x {
			if val == nil {
				m[k] = nil
				continue
			}
			s, ok := toText(val)
			if !ok {
				return "", invalidValue(TypeMap, v)
			}
			m[k] = &s
		}
	default:
		return "", invalidValue(TypeMap, v)
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		if m[k] == nil {
			parts[i] = hstoreQuote(k) + "=>NULL"
			continue
		}
		parts[i] = hstoreQuote(k) + "=>" + hstoreQuote(*m[k])
	}
	return strings.Join(parts, ","), nil
}

func hstoreQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}
