package contracts

import (
	"net/http"

	apperrors "brokerage/pkg/errors"
	httputil "brokerage/pkg/http"

	"github.com/julienschmidt/httprouter"
)

// Handler is a group of routes mounted on the service router.
type Handler interface {
	RegisterRoutes(*httprouter.Router)
}

// NewRouter mounts every handler on one router that answers unknown
// routes and methods with the JSON error envelope.
func NewRouter(handlers ...Handler) *httprouter.Router {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httputil.WriteError(w, apperrors.New(apperrors.CodeNotFound, "route not found", http.StatusNotFound))
	})
	router.MethodNotAllowed = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = httputil.WriteError(w, apperrors.New("METHOD_NOT_ALLOWED", r.Method+" is not allowed on "+r.URL.Path, http.StatusMethodNotAllowed))
	})
	for _, h := range handlers {
		h.RegisterRoutes(router)
	}
	return router
}
