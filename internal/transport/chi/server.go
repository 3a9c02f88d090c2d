package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geocatalog/internal/domain"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
	"github.com/kailas-cloud/geocatalog/internal/domain/outcome"
	cataloguc "github.com/kailas-cloud/geocatalog/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/geocatalog/internal/usecase/health"
)

// Groups is the catalog groups service consumed by the API.
type Groups interface {
	List(ctx context.Context) ([]cataloguc.Group, error)
	Get(ctx context.Context, name string) (cataloguc.Group, error)
	Load(ctx context.Context, name string) (outcome.Summary, error)
	Start(ctx context.Context, name string) (string, error)
	Cancel(ctx context.Context, name string) error
	Items(ctx context.Context, name, cursor string, limit int) ([]item.Item, string, error)
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	groups          Groups
	health          *healthuc.Service
	logger          *zap.Logger
	errorHandlers   []errorHandler
	defaultPageSize int
	maxPageSize     int
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(groups Groups, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		groups:          groups,
		health:          health,
		logger:          logger,
		defaultPageSize: 50,
		maxPageSize:     500,
	}
	s.errorHandlers = []errorHandler{
		configurationErrorHandler,
		fetchErrorHandler,
		sentinelHandler(domain.ErrGroupNotFound, http.StatusNotFound, ErrorResponseCodeGroupNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
		sentinelHandler(domain.ErrLoadInProgress, http.StatusConflict, ErrorResponseCodeLoadInProgress),
		sentinelHandler(domain.ErrNoActiveLoad, http.StatusNotFound, ErrorResponseCodeNoActiveLoad),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorResponseCodeBadRequest),
		sentinelHandler(context.Canceled, http.StatusConflict, ErrorResponseCodeLoadCancelled),
	}
	return s
}

// WithPagination sets the default and maximum item page sizes.
func (s *Server) WithPagination(defaultSize, maxSize int) *Server {
	if defaultSize > 0 {
		s.defaultPageSize = defaultSize
	}
	if maxSize > 0 {
		s.maxPageSize = maxSize
	}
	return s
}

// ListGroups handles GET /groups.
func (s *Server) ListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := s.groups.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]Group, len(groups))
	for i := range groups {
		items[i] = groupToAPI(&groups[i])
	}
	writeJSON(w, http.StatusOK, GroupListResponse{Items: items})
}

// GetGroup handles GET /groups/{group}.
func (s *Server) GetGroup(w http.ResponseWriter, r *http.Request, group string) {
	g, err := s.groups.Get(r.Context(), group)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groupToAPI(&g))
}

// LoadGroup handles POST /groups/{group}/load.
func (s *Server) LoadGroup(w http.ResponseWriter, r *http.Request, group string, params LoadGroupParams) {
	if params.Wait != nil && *params.Wait {
		sum, err := s.groups.Load(r.Context(), group)
		if err != nil {
			s.handleDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, summaryToAPI(&sum))
		return
	}

	id, err := s.groups.Start(r.Context(), group)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Location", "/groups/"+group)
	writeJSON(w, http.StatusAccepted, LoadAcceptedResponse{Group: group, LoadID: id})
}

// CancelLoad handles DELETE /groups/{group}/load.
func (s *Server) CancelLoad(w http.ResponseWriter, r *http.Request, group string) {
	if err := s.groups.Cancel(r.Context(), group); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListItems handles GET /groups/{group}/items.
func (s *Server) ListItems(w http.ResponseWriter, r *http.Request, group string, params ListItemsParams) {
	cursor := ""
	if params.Cursor != nil {
		cursor = *params.Cursor
	}
	limit := s.defaultPageSize
	if params.Limit != nil {
		limit = *params.Limit
	}
	if limit <= 0 {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "limit must be positive")
		return
	}
	limit = min(limit, s.maxPageSize)

	items, nextCursor, err := s.groups.Items(r.Context(), group, cursor, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := ItemCursorListResponse{
		Items:   make([]Item, len(items)),
		HasMore: nextCursor != "",
	}
	for i := range items {
		resp.Items[i] = itemToAPI(&items[i])
	}
	if nextCursor != "" {
		resp.NextCursor = &nextCursor
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// WriteBindError writes the response for a parameter that failed to bind.
func WriteBindError(w http.ResponseWriter, _ *http.Request, err error) {
	msg := "invalid request"
	var pe *InvalidParamFormatError
	if errors.As(err, &pe) {
		msg = "invalid parameter " + pe.ParamName
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrGroupNotFound,
		domain.ErrNotFound,
		domain.ErrLoadInProgress,
		domain.ErrNoActiveLoad,
		domain.ErrInvalidRequest,
		domain.ErrConfiguration,
		domain.ErrFetch,
		context.Canceled,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// configurationErrorHandler reports the offending setting of a ConfigurationError.
func configurationErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrConfiguration) {
		return false
	}
	var ce *domain.ConfigurationError
	if errors.As(err, &ce) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"code":    ErrorResponseCodeInvalidConfiguration,
			"message": ce.Error(),
			"field":   ce.Field,
		})
		return true
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeInvalidConfiguration, msg)
	return true
}

// fetchErrorHandler reports the upstream status of a FetchError.
func fetchErrorHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrFetch) {
		return false
	}
	var fe *domain.FetchError
	if errors.As(err, &fe) && fe.Status != 0 {
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"code":            ErrorResponseCodeFetchFailed,
			"message":         msg,
			"upstream_status": fe.Status,
		})
		return true
	}
	writeError(w, http.StatusBadGateway, ErrorResponseCodeFetchFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}

func groupToAPI(g *cataloguc.Group) Group {
	resp := Group{
		Name:   g.Name,
		Kind:   string(g.Kind),
		URL:    g.URL,
		Status: string(g.Status),
		Items:  g.Items,
	}
	if g.LastLoad != nil {
		sum := summaryToAPI(g.LastLoad)
		resp.LastLoad = &sum
	}
	return resp
}

func summaryToAPI(sum *outcome.Summary) LoadSummary {
	resp := LoadSummary{
		LoadID:    sum.LoadID,
		Status:    string(sum.Status),
		Records:   sum.Records,
		Items:     sum.Items,
		StartedAt: sum.StartedAt,
	}
	if len(sum.Skipped) > 0 {
		resp.Skipped = make(map[string]int, len(sum.Skipped))
		for reason, n := range sum.Skipped {
			resp.Skipped[string(reason)] = n
		}
	}
	if !sum.FinishedAt.IsZero() {
		finished := sum.FinishedAt
		ms := sum.Duration().Milliseconds()
		resp.FinishedAt = &finished
		resp.DurationMs = &ms
	}
	if sum.Error != "" {
		e := sum.Error
		resp.Error = &e
	}
	return resp
}

func itemToAPI(it *item.Item) Item {
	resp := Item{
		ID:    it.ID(),
		Group: it.Group(),
		Type:  string(it.Type()),
		URL:   it.URL(),
		Name:  it.Name(),
		Scale: it.Scale(),
	}
	if o := it.Origin(); o != nil {
		resp.Origin = &Origin{Longitude: o.Longitude, Latitude: o.Latitude, Height: o.Height}
	}
	if p := it.Properties(); len(p) > 0 {
		resp.Properties = &p
	}
	return resp
}
