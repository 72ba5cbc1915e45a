package models

// Page is one window of an ordered result set.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// MapPage converts the items of p while keeping its window metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := Page[U]{
		Items:      make([]U, 0, len(p.Items)),
		Page:       p.Page,
		Limit:      p.Limit,
		TotalItems: p.TotalItems,
		TotalPages: p.TotalPages,
	}
	for _, item := range p.Items {
		out.Items = append(out.Items, fn(item))
	}
	return out
}
