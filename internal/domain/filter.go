package domain

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// PageFilter bounds list reads with an offset/limit pair.
type PageFilter struct {
	Offset int64
	Limit  int64
}

func NewPageFilter(offset, limit int64) PageFilter {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	return PageFilter{Offset: offset, Limit: limit}
}
