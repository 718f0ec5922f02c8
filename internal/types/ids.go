package types

// Logical type identifiers carried by change-record fields. Native catalog type
// names are always lower case, so they never collide with these.
const (
	TypeBoolean        = "BOOLEAN"
	TypeInt8           = "INT8"
	TypeInt16          = "INT16"
	TypeInt32          = "INT32"
	TypeInt64          = "INT64"
	TypeFloat32        = "FLOAT32"
	TypeFloat64        = "FLOAT64"
	TypeDecimal        = "DECIMAL"
	TypeString         = "STRING"
	TypeBytes          = "BYTES"
	TypeDate           = "DATE"
	TypeTime           = "TIME"
	TypeTimestamp      = "TIMESTAMP"
	TypeZonedTime      = "ZONED_TIME"
	TypeZonedTimestamp = "ZONED_TIMESTAMP"
	TypeUUID           = "UUID"
	TypeJSON           = "JSON"

	TypeInterval = "INTERVAL"
	TypeSerial   = "SERIAL"
	TypeBits     = "BITS"
	TypeEnum     = "ENUM"
	TypeSet      = "SET"
	TypeYear     = "YEAR"
	TypePoint    = "POINT"
	TypeMoney    = "MONEY"
	TypeXML      = "XML"
	TypeLtree    = "LTREE"
	TypeMap      = "MAP"
	TypeCidr     = "CIDR"
	TypeInet     = "INET"
	TypeMacAddr  = "MACADDR"
	TypeCitext   = "CITEXT"
	TypeOid      = "OID"
)
