package result

// Metadata describes where a page sits inside the full result set.
type Metadata struct {
	CurrentPage int `json:"current_page"`
	PageSize    int `json:"page_size"`
	TotalCount  int `json:"total_count"`
	TotalPages  int `json:"total_pages"`
}

// NewMetadata builds the metadata of a page.
// TotalPages is always derived from totalCount and pageSize, so the two cannot drift.
// pageSize must be positive; callers validate it before getting here.
func NewMetadata(totalCount, currentPage, pageSize int) Metadata {

	return Metadata{
		CurrentPage: currentPage,
		PageSize:    pageSize,
		TotalCount:  totalCount,
		TotalPages:  TotalPages(totalCount, pageSize),
	}

}

// TotalPages returns ceil(totalCount / pageSize), or 0 for a non-positive pageSize.
func TotalPages(totalCount, pageSize int) int {

	if pageSize <= 0 || totalCount <= 0 {
		return 0
	}

	return (totalCount + pageSize - 1) / pageSize

}

// HasNext reports whether a page exists after the current one.
func (m Metadata) HasNext() bool {
	return m.CurrentPage < m.TotalPages
}

// HasPrevious reports whether a page exists before the current one.
func (m Metadata) HasPrevious() bool {
	return m.CurrentPage > 1
}
