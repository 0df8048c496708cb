package handler

import (
	"expvar"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

func (h *Handler) Routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(h.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(h.methodNotAllowed)

	router.HandlerFunc(http.MethodPost, "/api/author/search", h.searchAuthorsHandler)
	router.HandlerFunc(http.MethodPost, "/api/author/books", h.authorBooksHandler)

	router.HandlerFunc(http.MethodPost, "/api/book/search", h.searchTitlesHandler)
	router.HandlerFunc(http.MethodPost, "/api/book/series", h.searchSeriesHandler)
	router.HandlerFunc(http.MethodPost, "/api/book/archive", h.downloadArchiveHandler)
	router.HandlerFunc(http.MethodGet, "/api/book/:id", h.bookRoute)
	router.HandlerFunc(http.MethodGet, "/api/book/:id/download", h.downloadBookHandler)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", h.healthcheckHandler)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	router.HandlerFunc(http.MethodGet, "/debug/vars", h.basicAuth(expvar.Handler().ServeHTTP))

	// Swagger routes
	router.HandlerFunc(http.MethodGet, "/spec", h.handleSwaggerFile())
	router.HandlerFunc(http.MethodGet, "/docs/*any", httpSwagger.Handler(httpSwagger.URL("/spec")))

	return h.recoverPanic(h.metrics(h.enableCORS(h.rateLimit(router))))
}

// bookRoute serves both GET /api/book/langs and GET /api/book/:id; httprouter
// cannot register a static segment next to a parameter on the same method.
func (h *Handler) bookRoute(w http.ResponseWriter, r *http.Request) {
	if h.readIDParam(r, "id") == "langs" {
		h.listLanguagesHandler(w, r)
		return
	}
	h.showBookHandler(w, r)
}
