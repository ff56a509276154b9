package query

import (
	"net/url"
	"strconv"

	"merchantdir/internal/models"
)

// Paginate cuts page number page of size limit out of items. Pages are
// 1-based. A page past the end yields an empty, non-nil slice; the
// pagination block still describes the whole input.
func Paginate[T any](items []T, page, limit int) ([]T, models.Pagination) {
	page = models.ClampPage(page)
	limit = models.ClampLimit(limit)

	total := len(items)
	totalPages := (total + limit - 1) / limit

	pagination := models.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}

	// Compare pages before multiplying; (page-1)*limit overflows for huge pages.
	if page > totalPages {
		return []T{}, pagination
	}
	start := (page - 1) * limit
	end := min(start+limit, total)
	return items[start:end:end], pagination
}

// BuildLinks returns navigation URLs derived from base. Every query parameter
// of base is kept except page and limit, which are overwritten. Prev exists
// only when page > 1 and Next only when page < totalPages. Last points at
// totalPages even when that is 0.
func BuildLinks(base *url.URL, page, limit, totalPages int) models.Links {
	links := models.Links{
		First: pageURL(base, 1, limit),
		Last:  pageURL(base, totalPages, limit),
	}
	if page > 1 {
		links.Prev = pageURL(base, page-1, limit)
	}
	if page < totalPages {
		links.Next = pageURL(base, page+1, limit)
	}
	return links
}

func pageURL(base *url.URL, page, limit int) string {
	u := *base
	q := base.Query()
	q.Set(models.ParamLimit, strconv.Itoa(limit))
	q.Set(models.ParamPage, strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String()
}
