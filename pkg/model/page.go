package model

type Page[T any] struct {
	Data       []T   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

func EmptyPage[T any](limit int, offset int64) Page[T] {
	return Page[T]{Data: []T{}, Limit: limit, Offset: offset}
}
