package types

// ------------------------------
// Response Types
// ------------------------------

// Pagination is the page snapshot returned with case lists.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// EmailPagination is the page snapshot returned with email lists.
type EmailPagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// CaseListResponse wraps GET /cases.
type CaseListResponse struct {
	Data       []Case     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// DataResponse wraps list endpoints that return {data: [...]}.
type DataResponse[T any] struct {
	Data []T `json:"data"`
}

// FieldListResponse wraps GET /cases/fields.
type FieldListResponse struct {
	SystemFields []CaseField `json:"system_fields"`
	CustomFields []CaseField `json:"custom_fields"`
}

// All returns system fields followed by custom fields.
func (r FieldListResponse) All() []CaseField {
	out := make([]CaseField, 0, len(r.SystemFields)+len(r.CustomFields))
	out = append(out, r.SystemFields...)
	return append(out, r.CustomFields...)
}

// EmailListResponse wraps GET /emails.
type EmailListResponse struct {
	Emails     []Email         `json:"emails"`
	Pagination EmailPagination `json:"pagination"`
}

// LoginResponse is returned by POST /auth/google.
type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// SyncResponse is returned by POST /gmail/sync.
type SyncResponse struct {
	Message string `json:"message,omitempty"`
	Status  string `json:"status,omitempty"`
}

// ErrorResponse is the JSON error body of the backend.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}
