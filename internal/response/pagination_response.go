package response

// Page is the envelope returned by paginated search.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
}

// NewPage assembles a page; a nil items slice is replaced by an empty one so
// the envelope always serializes "items": [].
func NewPage[T any](items []T, total int64, page, pageSize int) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: TotalPages(total, pageSize),
	}
}

func EmptyPage[T any](page, pageSize int) *Page[T] {
	return NewPage[T](nil, 0, page, pageSize)
}

// TotalPages is ceil(total / pageSize).
func TotalPages(total int64, pageSize int) int64 {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	size := int64(pageSize)
	return (total + size - 1) / size
}
