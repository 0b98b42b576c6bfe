package loam

// BoardMetadata is the frontmatter of a board document.
// It uses "mapstructure" tags to match the YAML keys.
type BoardMetadata struct {
	// ID is the partition identifier; defaults to the file name.
	ID string `json:"id" mapstructure:"id"`
	// Language is informational; the partition table owns the code mapping.
	Language string      `json:"language" mapstructure:"language"`
	Items    []BoardItem `json:"items" mapstructure:"items"`
}

// BoardItem lists one domain and its publisher cost.
// Cost may be a number or a string cell such as "120.5 €".
type BoardItem struct {
	Name string `json:"name" mapstructure:"name"`
	Cost any    `json:"cost" mapstructure:"cost"`
}
