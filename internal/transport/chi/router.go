package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is the set of API operations served by the router.
type ServerInterface interface {
	// (GET /groups)
	ListGroups(w http.ResponseWriter, r *http.Request)
	// (GET /groups/{group})
	GetGroup(w http.ResponseWriter, r *http.Request, group string)
	// (POST /groups/{group}/load)
	LoadGroup(w http.ResponseWriter, r *http.Request, group string, params LoadGroupParams)
	// (DELETE /groups/{group}/load)
	CancelLoad(w http.ResponseWriter, r *http.Request, group string)
	// (GET /groups/{group}/items)
	ListItems(w http.ResponseWriter, r *http.Request, group string, params ListItemsParams)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// InvalidParamFormatError reports a path or query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// HandlerWithOptions mounts si on the base router and returns it.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	w := &wrapper{handler: si, errorHandler: options.ErrorHandlerFunc}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/groups", w.ListGroups)
		r.Get(options.BaseURL+"/groups/{group}", w.GetGroup)
		r.Post(options.BaseURL+"/groups/{group}/load", w.LoadGroup)
		r.Delete(options.BaseURL+"/groups/{group}/load", w.CancelLoad)
		r.Get(options.BaseURL+"/groups/{group}/items", w.ListItems)
		r.Get(options.BaseURL+"/health", w.HealthCheck)
		r.Get(options.BaseURL+"/metrics", w.Metrics)
	})
	return r
}

// wrapper binds path and query parameters before calling the ServerInterface.
type wrapper struct {
	handler      ServerInterface
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

func (w *wrapper) ListGroups(rw http.ResponseWriter, r *http.Request) {
	w.handler.ListGroups(rw, r)
}

func (w *wrapper) GetGroup(rw http.ResponseWriter, r *http.Request) {
	group, ok := w.bindGroup(rw, r)
	if !ok {
		return
	}
	w.handler.GetGroup(rw, r, group)
}

func (w *wrapper) LoadGroup(rw http.ResponseWriter, r *http.Request) {
	group, ok := w.bindGroup(rw, r)
	if !ok {
		return
	}
	var params LoadGroupParams
	if err := runtime.BindQueryParameter("form", true, false, "wait", r.URL.Query(), &params.Wait); err != nil {
		w.errorHandler(rw, r, &InvalidParamFormatError{ParamName: "wait", Err: err})
		return
	}
	w.handler.LoadGroup(rw, r, group, params)
}

func (w *wrapper) CancelLoad(rw http.ResponseWriter, r *http.Request) {
	group, ok := w.bindGroup(rw, r)
	if !ok {
		return
	}
	w.handler.CancelLoad(rw, r, group)
}

func (w *wrapper) ListItems(rw http.ResponseWriter, r *http.Request) {
	group, ok := w.bindGroup(rw, r)
	if !ok {
		return
	}
	var params ListItemsParams
	if err := runtime.BindQueryParameter("form", true, false, "cursor", r.URL.Query(), &params.Cursor); err != nil {
		w.errorHandler(rw, r, &InvalidParamFormatError{ParamName: "cursor", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		w.errorHandler(rw, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}
	w.handler.ListItems(rw, r, group, params)
}

func (w *wrapper) HealthCheck(rw http.ResponseWriter, r *http.Request) {
	w.handler.HealthCheck(rw, r)
}

func (w *wrapper) Metrics(rw http.ResponseWriter, r *http.Request) {
	w.handler.Metrics(rw, r)
}

func (w *wrapper) bindGroup(rw http.ResponseWriter, r *http.Request) (string, bool) {
	var group string
	err := runtime.BindStyledParameterWithOptions("simple", "group", chi.URLParam(r, "group"), &group,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		w.errorHandler(rw, r, &InvalidParamFormatError{ParamName: "group", Err: err})
		return "", false
	}
	return group, true
}
