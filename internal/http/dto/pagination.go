package dto

// Pagination describes an offset page of a listing.
type Pagination struct {
	Total      int  `json:"total"`
	Limit      int  `json:"limit"`
	Offset     int  `json:"offset"`
	HasPrev    bool `json:"has_prev"`
	PrevOffset int  `json:"prev_offset"`
	HasNext    bool `json:"has_next"`
	NextOffset int  `json:"next_offset"`
}

func NewPagination(limit, offset, total int) *Pagination {
	if limit < 1 {
		limit = 1
	}
	if offset < 0 {
		offset = 0
	}

	prev := offset - limit
	if prev < 0 {
		prev = 0
	}

	return &Pagination{
		Total:      total,
		Limit:      limit,
		Offset:     offset,
		HasPrev:    offset > 0,
		PrevOffset: prev,
		HasNext:    offset+limit < total,
		NextOffset: offset + limit,
	}
}
