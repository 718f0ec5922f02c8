package types

import (
	"fmt"
	"strings"
)

// RegisterMySQL registers the MySQL and MariaDB specific handlers.
func RegisterMySQL(r *Registry) {
	r.Register(castText(TypeEnum, "varchar(255)", "", "enum"))
	set := castText(TypeSet, "varchar(255)", "", "set")
	set.convert = func(_ Formatter, v any) (any, error) { return setText(v) }
	set.format = func(f Formatter, v any) (string, error) {
		s, err := setText(v)
		if err != nil {
			return "", err
		}
		return f.FormatString(s), nil
	}
	r.Register(set)
	year := integerHandler(SmallInt, TypeYear, "year")
	year.typeName = fixedName("year")
	r.Register(year)
	r.Register(jsonHandler(fixedName("json"), "", TypeJSON, "json"))
}

// RegisterSQLServer registers the SQL Server specific handlers.
func RegisterSQLServer(r *Registry) {
	r.Register(booleanHandler(TypeBoolean, "bit"))
	r.Register(uuidHandler("", TypeUUID, "uniqueidentifier"))
	r.Register(castText(TypeXML, "xml", "", "xml"))
	money := decimalHandler(TypeMoney, "money", "smallmoney")
	money.typeName = fixedName("money")
	r.Register(money)
	r.Register(jsonHandler(fixedName("nvarchar(max)"), "", TypeJSON))
}

// RegisterOracle registers the Oracle specific handlers.
func RegisterOracle(r *Registry) {
	// DATE carries a time of day in Oracle.
	r.Register(timestampHandler("date"))
	r.Register(castText(TypeXML, "xmltype", "", "xmltype"))
	r.Register(jsonHandler(fixedName("clob"), "", TypeJSON))
}

// RegisterSQLite registers the SQLite specific handlers.
func RegisterSQLite(r *Registry) {
	// INTEGER affinity columns hold 64-bit values.
	r.Register(integerHandler(BigInt, "integer"))
	r.Register(jsonHandler(fixedName("text"), "", TypeJSON))
}

func setText(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []string:
		return strings.Join(x, ","), nil
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = fmt.Sprint(e)
		}
		return strings.Join(parts, ","), nil
	default:
		return "", invalidValue(TypeSet, v)
	}
}
