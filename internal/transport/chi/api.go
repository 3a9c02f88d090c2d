package chi

import "time"

// ErrorResponseCode is the machine-readable error code of an API error.
type ErrorResponseCode string

// API error codes.
const (
	ErrorResponseCodeBadRequest           ErrorResponseCode = "bad_request"
	ErrorResponseCodeUnauthorized         ErrorResponseCode = "unauthorized"
	ErrorResponseCodeNotFound             ErrorResponseCode = "not_found"
	ErrorResponseCodeGroupNotFound        ErrorResponseCode = "group_not_found"
	ErrorResponseCodeLoadInProgress       ErrorResponseCode = "load_in_progress"
	ErrorResponseCodeNoActiveLoad         ErrorResponseCode = "no_active_load"
	ErrorResponseCodeInvalidConfiguration ErrorResponseCode = "invalid_configuration"
	ErrorResponseCodeFetchFailed          ErrorResponseCode = "fetch_failed"
	ErrorResponseCodeLoadCancelled        ErrorResponseCode = "load_cancelled"
	ErrorResponseCodeInternalError        ErrorResponseCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
}

// LoadSummary describes one load cycle of a group.
type LoadSummary struct {
	LoadID     string         `json:"load_id"`
	Status     string         `json:"status"`
	Records    int            `json:"records"`
	Items      int            `json:"items"`
	Skipped    map[string]int `json:"skipped,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	DurationMs *int64         `json:"duration_ms,omitempty"`
	Error      *string        `json:"error,omitempty"`
}

// Group is a configured catalog group.
type Group struct {
	Name     string       `json:"name"`
	Kind     string       `json:"kind"`
	URL      string       `json:"url"`
	Status   string       `json:"status"`
	Items    int          `json:"items"`
	LastLoad *LoadSummary `json:"last_load,omitempty"`
}

// GroupListResponse lists all configured groups.
type GroupListResponse struct {
	Items []Group `json:"items"`
}

// LoadAcceptedResponse is returned when a load runs in the background.
type LoadAcceptedResponse struct {
	Group  string `json:"group"`
	LoadID string `json:"load_id"`
}

// Origin is the placement of a model item.
type Origin struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Height    float64 `json:"height"`
}

// Item is a materialized catalog item.
type Item struct {
	ID         string          `json:"id"`
	Group      string          `json:"group"`
	Type       string          `json:"type"`
	URL        string          `json:"url"`
	Name       string          `json:"name"`
	Origin     *Origin         `json:"origin,omitempty"`
	Scale      *float64        `json:"scale,omitempty"`
	Properties *map[string]any `json:"properties,omitempty"`
}

// ItemCursorListResponse is one page of group items.
type ItemCursorListResponse struct {
	Items      []Item  `json:"items"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor,omitempty"`
}

// HealthResponse reports component health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// LoadGroupParams are the query parameters of POST /groups/{group}/load.
type LoadGroupParams struct {
	Wait *bool `form:"wait,omitempty" json:"wait,omitempty"`
}

// ListItemsParams are the query parameters of GET /groups/{group}/items.
type ListItemsParams struct {
	Cursor *string `form:"cursor,omitempty" json:"cursor,omitempty"`
	Limit  *int    `form:"limit,omitempty" json:"limit,omitempty"`
}
