package config

const (
	// MaxFolderNameLength is the maximum length for folder names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255) and provide
	// reasonable UX (names should be short and descriptive).
	MaxFolderNameLength = 255

	// MaxFolderDescriptionLength bounds the optional folder description
	MaxFolderDescriptionLength = 1000

	// DefaultSearchLimit is the page size used when a search request
	// does not specify one
	DefaultSearchLimit = 20

	// MaxSearchLimit caps the page size of a single search request
	MaxSearchLimit = 100
)
