package vars

const (
	// TagKey is the struct tag used when mapping rows and params into structs.
	TagKey = "db"

	// ParamTagKey is the struct tag used when decoding paging params.
	ParamTagKey = "paging"

	// DefaultPageNumber is the first page. Page numbers are 1-based.
	DefaultPageNumber = 1

	// DefaultPageSize is the page size used when none is given.
	DefaultPageSize = 10

	// DefaultMaxPageSize caps any assigned page size.
	DefaultMaxPageSize = 100
)
