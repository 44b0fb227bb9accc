package api

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
	Code  string `json:"code,omitempty" example:"not_found"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// Page is the envelope every paginated list endpoint returns.
type Page[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

func NewPage[T any](data []T, params PageParams, total int) Page[T] {
	if data == nil {
		data = []T{}
	}
	return Page[T]{
		Data:       data,
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      total,
		TotalPages: TotalPages(total, params.Limit),
	}
}

// TotalPages is ceil(total / limit); zero when limit is not positive.
func TotalPages(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// MapPage converts the items of a page while keeping its metadata.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Data))
	for _, item := range p.Data {
		out = append(out, fn(item))
	}
	return Page[U]{Data: out, Page: p.Page, Limit: p.Limit, Total: p.Total, TotalPages: p.TotalPages}
}
