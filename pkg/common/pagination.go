package common

// PaginationResult is the page envelope returned by list endpoints. Page
// numbers start at 1 and a zero NextPage or PrevPage means there is none.
type PaginationResult struct {
	Message     string      `json:"message"`
	Data        interface{} `json:"data"`
	Count       int64       `json:"count"`
	CurrentPage int         `json:"currentPage"`
	NextPage    int         `json:"nextPage"`
	PrevPage    int         `json:"prevPage"`
	LastPage    int         `json:"lastPage"`
}

const maxPageLimit = 100

// NormalizePage clamps page and limit and returns the matching offset.
func NormalizePage(page, limit, defaultLimit int) (int, int, int) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	if page < 1 {
		page = 1
	}
	return page, limit, (page - 1) * limit
}

// PaginateResponse wraps one page of data out of total rows.
func PaginateResponse(data interface{}, total int64, page, limit int, message string) PaginationResult {
	res := PaginationResult{
		Message:     message,
		Data:        data,
		Count:       total,
		CurrentPage: page,
	}
	if limit > 0 {
		res.LastPage = int((total + int64(limit) - 1) / int64(limit))
	}
	if page < res.LastPage {
		res.NextPage = page + 1
	}
	if page > 1 {
		res.PrevPage = page - 1
	}
	return res
}
