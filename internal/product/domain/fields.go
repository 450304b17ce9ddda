package domain

// FieldKind is the value type of a catalog field
type FieldKind int

const (
	KindString FieldKind = iota
	KindNumber
	KindBool
	KindDate
)

// Field describes a queryable product attribute
type Field struct {
	// Path is the API name, dotted for nested attributes
	Path string
	// Column is the relational column backing the attribute
	Column string
	Kind   FieldKind
}

// Fields is the catalog schema shared by the query layer and the storage backends
var Fields = []Field{
	{Path: "_id", Column: "id", Kind: KindString},
	{Path: "user_id", Column: "user_id", Kind: KindString},
	{Path: "name", Column: "name", Kind: KindString},
	{Path: "slug", Column: "slug", Kind: KindString},
	{Path: "price", Column: "price", Kind: KindNumber},
	{Path: "quantity", Column: "quantity", Kind: KindNumber},
	{Path: "isAvailable", Column: "is_available", Kind: KindBool},
	{Path: "releaseDate", Column: "release_date", Kind: KindDate},
	{Path: "brand", Column: "brand", Kind: KindString},
	{Path: "model", Column: "model", Kind: KindString},
	{Path: "category", Column: "category", Kind: KindString},
	{Path: "operatingSystem", Column: "operating_system", Kind: KindString},
	{Path: "connectivity", Column: "connectivity", Kind: KindString},
	{Path: "powerSource", Column: "power_source", Kind: KindString},
	{Path: "features.cameraResolution", Column: "features_camera_resolution", Kind: KindString},
	{Path: "features.storageCapacity", Column: "features_storage_capacity", Kind: KindString},
	{Path: "features.screenSize", Column: "features_screen_size", Kind: KindString},
	{Path: "dimension.height", Column: "dimension_height", Kind: KindNumber},
	{Path: "dimension.width", Column: "dimension_width", Kind: KindNumber},
	{Path: "dimension.depth", Column: "dimension_depth", Kind: KindNumber},
	{Path: "isDeleted", Column: "is_deleted", Kind: KindBool},
	{Path: "createdAt", Column: "created_at", Kind: KindDate},
	{Path: "updatedAt", Column: "updated_at", Kind: KindDate},
}

var fieldsByPath = func() map[string]Field {
	m := make(map[string]Field, len(Fields))
	for _, f := range Fields {
		m[f.Path] = f
	}
	return m
}()

// LookupField finds a field by its API path
func LookupField(path string) (Field, bool) {
	f, ok := fieldsByPath[path]
	return f, ok
}

// SortableFields may appear in sortBy
var SortableFields = []string{
	"name", "price", "quantity", "releaseDate", "brand", "model",
	"category", "operatingSystem", "connectivity", "updatedAt", "createdAt",
}

// SearchableFields are matched by the free-text search parameter
var SearchableFields = []string{
	"name", "brand", "model", "category", "operatingSystem",
}

// FacetFields are reported by the filter options query
var FacetFields = []string{
	"brand", "model", "category", "operatingSystem", "connectivity", "powerSource",
	"features.cameraResolution", "features.storageCapacity", "features.screenSize",
}

// NestedAliases map flat query keys onto nested attributes
var NestedAliases = map[string]string{
	"cameraResolution": "features.cameraResolution",
	"storageCapacity":  "features.storageCapacity",
	"screenSize":       "features.screenSize",
	"height":           "dimension.height",
	"width":            "dimension.width",
	"depth":            "dimension.depth",
}

// Cache keys for catalog reads. Every catalog write invalidates CachePattern.
const (
	CacheKeyList          = "products:list"
	CacheKeyFilterOptions = "products:filter-options"
	CachePattern          = "products:*"
)
