package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/emzola/flibooks/data/dto"
	"github.com/emzola/flibooks/service"
)

// @Summary Search authors
// @Description Returns author name buckets whose names match the requested phrase
// @Tags authors
// @Accept json
// @Produce json
// @Param request body dto.AuthorRequest true "Author search"
// @Success 200 {array} object
// @Failure 400 {string} string
// @Failure 404 {string} string
// @Router /api/author/search [post]
func (h *Handler) searchAuthorsHandler(w http.ResponseWriter, r *http.Request) {
	var input dto.AuthorRequest
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	result, err := h.service.SearchAuthors(r.Context(), input)
	h.searchResponse(w, r, result, err)
}

// @Summary Books by author
// @Description Returns books of authors whose name starts with the requested phrase
// @Tags authors
// @Accept json
// @Produce json
// @Param request body dto.SearchRequest true "Search"
// @Success 200 {array} object
// @Router /api/author/books [post]
func (h *Handler) authorBooksHandler(w http.ResponseWriter, r *http.Request) {
	var input dto.SearchRequest
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	result, err := h.service.AuthorBooks(r.Context(), input)
	h.searchResponse(w, r, result, err)
}

// @Summary Search titles
// @Tags books
// @Accept json
// @Produce json
// @Param request body dto.SearchRequest true "Search"
// @Success 200 {array} object
// @Router /api/book/search [post]
func (h *Handler) searchTitlesHandler(w http.ResponseWriter, r *http.Request) {
	var input dto.SearchRequest
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	result, err := h.service.SearchTitles(r.Context(), input)
	h.searchResponse(w, r, result, err)
}

// @Summary Search series
// @Tags books
// @Accept json
// @Produce json
// @Param request body dto.SearchRequest true "Search"
// @Success 200 {array} object
// @Router /api/book/series [post]
func (h *Handler) searchSeriesHandler(w http.ResponseWriter, r *http.Request) {
	var input dto.SearchRequest
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	result, err := h.service.SearchSeries(r.Context(), input)
	h.searchResponse(w, r, result, err)
}

// @Summary List languages
// @Tags books
// @Produce json
// @Success 200 {array} object
// @Router /api/book/langs [get]
func (h *Handler) listLanguagesHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.ListLanguages(r.Context())
	h.searchResponse(w, r, result, err)
}

// @Summary Show book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} data.Book
// @Failure 404 {string} string
// @Router /api/book/{id} [get]
func (h *Handler) showBookHandler(w http.ResponseWriter, r *http.Request) {
	id := h.readIDParam(r, "id")
	h.logger.PrintInfo("book requested", map[string]string{"id": id})
	result, err := h.service.GetBook(r.Context(), id)
	h.searchResponse(w, r, result, err)
}

// @Summary Download book
// @Description Extracts a single book from its container archive
// @Tags books
// @Produce octet-stream
// @Param id path string true "Book ID"
// @Success 200 {file} file
// @Failure 404 {string} string
// @Router /api/book/{id}/download [get]
func (h *Handler) downloadBookHandler(w http.ResponseWriter, r *http.Request) {
	h.clearWriteDeadline(w, r)
	id := h.readIDParam(r, "id")
	h.logger.PrintInfo("book download requested", map[string]string{"id": id})
	download, err := h.service.DownloadBook(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.noDataResponse(w, r, err)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	defer download.Close()
	h.serveDownload(w, r, download)
}

// @Summary Download several books
// @Description Bundles the requested books into one zip archive; unknown ids are skipped
// @Tags books
// @Accept json
// @Produce application/zip
// @Param request body dto.DownloadRequest true "Book IDs"
// @Success 200 {file} file
// @Failure 400 {string} string
// @Failure 404 {string} string
// @Router /api/book/archive [post]
func (h *Handler) downloadArchiveHandler(w http.ResponseWriter, r *http.Request) {
	h.clearWriteDeadline(w, r)
	var input dto.DownloadRequest
	if err := h.decodeJSON(w, r, &input); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	download, err := h.service.DownloadArchive(r.Context(), input.IDs)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrRecordNotFound):
			h.noDataResponse(w, r, err)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	defer download.Close()
	h.serveDownload(w, r, download)
}

// searchResponse writes a gateway result or maps its error to a status.
func (h *Handler) searchResponse(w http.ResponseWriter, r *http.Request, result json.RawMessage, err error) {
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFailedValidation):
			h.failedValidationResponse(w, r, err)
		case errors.Is(err, service.ErrRecordNotFound):
			h.noDataResponse(w, r, err)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	h.writeRawJSON(w, http.StatusOK, result)
}
