package schema

// builtinTypes maps XSD scalar type local names to SQL Server column types.
// An empty value marks a category the generator does not map (QName, ID,
// ENTITY variants and friends); those resolve to absent rather than to a
// default type.
var builtinTypes = map[string]string{
	"string":   "nvarchar(max)",
	"boolean":  "bit",
	"decimal":  "decimal(18,2)",
	"float":    "float",
	"double":   "float",
	"duration": "time", // no interval type on SQL Server
	"dateTime": "datetime2",
	"time":     "time",
	"date":     "date",

	"gYearMonth": "datetime2",
	"gYear":      "datetime2",
	"gMonthDay":  "datetime2",
	"gDay":       "datetime2",
	"gMonth":     "datetime2",

	"hexBinary":    "varbinary(max)",
	"base64Binary": "varbinary(max)",
	"anyURI":       "nvarchar(max)",

	"QName":    "",
	"NOTATION": "",

	"normalizedString": "nvarchar(max)",
	"token":            "nvarchar(max)",
	"language":         "nvarchar(max)",
	"NMTOKEN":          "",
	"NMTOKENS":         "",
	"Name":             "nvarchar(max)",
	"NCName":           "nvarchar(max)",
	"ID":               "",
	"IDREF":            "",
	"IDREFS":           "",
	"ENTITY":           "",
	"ENTITIES":         "",

	"integer":            "bigint",
	"nonPositiveInteger": "bigint",
	"negativeInteger":    "bigint",
	"long":               "bigint",
	"int":                "int",
	"short":              "smallint",
	"byte":               "tinyint",
	"nonNegativeInteger": "bigint",
	"unsignedLong":       "bigint",
	"unsignedInt":        "int",
	"unsignedShort":      "smallint",
	"unsignedByte":       "tinyint",
	"positiveInteger":    "bigint",
}

// TypeRegistry resolves schema type names to relational column types in two
// strata: the static built-in scalar table above, then user-declared types
// registered by the pre-pass (or loaded from an overrides file). The user
// stratum stores the base scalar name and never shrinks once populated.
type TypeRegistry struct {
	user map[string]string // normalized type name -> base scalar name or column type
}

// NewTypeRegistry creates a registry with an empty user stratum.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{user: make(map[string]string)}
}

// RegisterUser records a user-declared type under its normalized name. The
// base may be an XSD scalar local name ("string") or, for overrides, one of
// the column types the built-in table produces ("nvarchar(max)"); anything
// else stays unresolvable.
func (r *TypeRegistry) RegisterUser(name, base string) {
	r.user[name] = base
}

// Resolve maps a type name to its relational column type. Built-in scalars
// win; otherwise the user stratum is consulted and its base resolved through
// the built-in table (one level, user-to-user chains stay absent). The
// second return value is false when the name has no mapping.
func (r *TypeRegistry) Resolve(name string) (string, bool) {
	if t, ok := builtinTypes[name]; ok && t != "" {
		return t, true
	}
	base, ok := r.user[name]
	if !ok || base == "" {
		return "", false
	}
	if isColumnType(base) {
		return base, true
	}
	if t, ok := builtinTypes[base]; ok && t != "" {
		return t, true
	}
	return "", false
}

// isColumnType reports whether s already is one of the column types the
// built-in table produces.
func isColumnType(s string) bool {
	for _, t := range builtinTypes {
		if t != "" && t == s {
			return true
		}
	}
	return false
}
