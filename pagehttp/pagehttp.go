// Package pagehttp reads page requests from query strings and writes pages as JSON.
package pagehttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pagekit"
	"pagekit/log"
	"pagekit/result"
	"pagekit/trace"

	"github.com/spf13/cast"
)

// Query parameters read by ParseRequest.
const (
	ParamPage     = "page"
	ParamPageSize = "page_size"
	ParamSortBy   = "sort_by"
	ParamSortDesc = "sort_desc"
)

// Response headers written by WriteHeaders.
const (
	HeaderTotalCount = "X-Total-Count"
	HeaderTotalPages = "X-Total-Pages"
	HeaderPage       = "X-Page"
	HeaderPageSize   = "X-Page-Size"
)

// StatusClientClosedRequest is reported when the client went away before the page was built.
const StatusClientClosedRequest = 499

// Defaults applies when a query parameter is missing.
type Defaults struct {
	PageSize    int
	MaxPageSize int

	// Log receives handler failures. Nil disables logging.
	Log log.Logger
}

// FetchFunc builds the page described by req.
type FetchFunc[T any] func(ctx context.Context, req *pagekit.Request) (*pagekit.Page[T], error)

// ParseRequest reads the paging query parameters of r into a validated request.
// sort_by accepts the "-column" form; an explicit sort_desc wins over the prefix.
func ParseRequest(r *http.Request, defaults Defaults) (*pagekit.Request, error) {

	q := r.URL.Query()

	req := pagekit.NewRequestWithMax(defaults.MaxPageSize)
	if defaults.PageSize > 0 {
		req.SetPageSize(defaults.PageSize)
	}

	if v := q.Get(ParamPage); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, &pagekit.InvalidArgumentError{Field: "page_number", Message: "must be an integer"}
		}
		req.PageNumber = n
	}

	if v := q.Get(ParamPageSize); v != "" {
		n, err := cast.ToIntE(v)
		if err != nil {
			return nil, &pagekit.InvalidArgumentError{Field: "page_size", Message: "must be an integer"}
		}
		req.SetPageSize(n)
	}

	req.SetSort(q.Get(ParamSortBy))

	if v := q.Get(ParamSortDesc); v != "" {
		desc, err := cast.ToBoolE(v)
		if err != nil {
			return nil, &pagekit.InvalidArgumentError{Field: "sort_descending", Message: "must be a boolean"}
		}
		req.SortDescending = desc
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil

}

// WriteHeaders exposes the paging numbers as response headers.
func WriteHeaders(w http.ResponseWriter, meta result.Metadata) {

	h := w.Header()
	h.Set(HeaderTotalCount, strconv.Itoa(meta.TotalCount))
	h.Set(HeaderTotalPages, strconv.Itoa(meta.TotalPages))
	h.Set(HeaderPage, strconv.Itoa(meta.CurrentPage))
	h.Set(HeaderPageSize, strconv.Itoa(meta.PageSize))

}

// Handler serves the pages built by fetch as JSON.
func Handler[T any](defaults Defaults, fetch FetchFunc[T]) http.Handler {

	logger := defaults.Log
	if logger == nil {
		logger = log.NewMock()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		r = trace.InjectRequestIDFromRequest(r)
		ctx := r.Context()
		w.Header().Set(trace.HeaderRequestID, trace.GetRequestIDFromContext(ctx))

		req, err := ParseRequest(r, defaults)
		if err != nil {
			writeError(w, err)
			return
		}

		page, err := fetch(ctx, req)
		if err != nil {
			logger.With(ctx).WithStack(err).WithParam("error", err.Error()).Warn("failed to fetch page")
			writeError(w, err)
			return
		}

		WriteHeaders(w, page.Metadata())
		writeJSON(w, http.StatusOK, page)

	})

}

// StatusCode maps a paging error to an HTTP status.
func StatusCode(err error) int {

	switch {
	case errors.Is(err, pagekit.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, pagekit.ErrCanceled):
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}

}

func writeError(w http.ResponseWriter, err error) {

	status := StatusCode(err)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = http.StatusText(status)
	}

	writeJSON(w, status, map[string]string{"error": msg})

}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)

}
