package analyses

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/repoflow/repoflow/internal/diagrams"
	"github.com/repoflow/repoflow/internal/githost"
	"github.com/repoflow/repoflow/internal/report"
	"github.com/repoflow/repoflow/internal/search"
)

// RegisterRoutes wires up the analysis REST API endpoints.
func RegisterRoutes(r chi.Router, svc *Service) {
	h := &routeHandler{svc: svc}
	r.Route("/api/analyses", func(r chi.Router) {
		r.Post("/", h.submit)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Delete("/{id}", h.remove)
		r.Get("/{id}/result", h.result)
		r.Get("/{id}/report", h.report)
		r.Get("/{id}/diagram", h.diagram)
		r.Get("/{id}/search", h.search)
		r.Get("/{id}/events", h.events)
	})
}

type routeHandler struct {
	svc *Service
}

type submitRequest struct {
	RepositoryURL string `json:"repository_url"`
}

func (h *routeHandler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.RepositoryURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "repository_url is required"})
		return
	}

	a, err := h.svc.Submit(r.Context(), req.RepositoryURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, a)
}

func (h *routeHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Store().List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []Analysis{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *routeHandler) get(w http.ResponseWriter, r *http.Request) {
	a, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *routeHandler) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.svc.Delete(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("analysis %q not found", id)})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": fmt.Sprintf("analysis %q removed", id)})
}

func (h *routeHandler) result(w http.ResponseWriter, r *http.Request) {
	a, ok := h.completed(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Store().Result(r.Context(), a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if res == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "result missing"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *routeHandler) report(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "", "md", "markdown":
		format = "markdown"
	case "html":
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown format %q", format)})
		return
	}

	a, ok := h.completed(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	store := h.svc.Store()

	content, err := store.Report(ctx, a.ID, format)
	if err != nil {
		writeError(w, err)
		return
	}
	if content == "" {
		res, err := store.Result(ctx, a.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		if res == nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "result missing"})
			return
		}

		content = report.Markdown(res, "")
		if format == "html" {
			content, err = report.HTML(content)
			if err != nil {
				writeError(w, err)
				return
			}
		}
		store.SaveReport(ctx, a.ID, format, content)
	}

	if format == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
	} else {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	}
	w.Write([]byte(content))
}

func (h *routeHandler) diagram(w http.ResponseWriter, r *http.Request) {
	a, ok := h.completed(w, r)
	if !ok {
		return
	}

	res, err := h.svc.Store().Result(r.Context(), a.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if res == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "result missing"})
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(diagrams.Flowchart(res)))
}

func (h *routeHandler) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "q is required"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	a, ok := h.completed(w, r)
	if !ok {
		return
	}

	hits, err := h.svc.Search(r.Context(), a.ID, query, limit)
	if errors.Is(err, ErrSearchDisabled) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	writeJSON(w, http.StatusOK, hits)
}

// lookup fetches the analysis named in the URL, answering 404 when it does
// not exist.
func (h *routeHandler) lookup(w http.ResponseWriter, r *http.Request) (*Analysis, bool) {
	id := chi.URLParam(r, "id")
	a, err := h.svc.Store().Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return nil, false
	}
	if a == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": fmt.Sprintf("analysis %q not found", id)})
		return nil, false
	}
	return a, true
}

// completed is lookup plus a check that the run has finished successfully.
func (h *routeHandler) completed(w http.ResponseWriter, r *http.Request) (*Analysis, bool) {
	a, ok := h.lookup(w, r)
	if !ok {
		return nil, false
	}
	if a.Status == StatusFailed {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "analysis failed: " + a.Error})
		return nil, false
	}
	if a.Status != StatusCompleted {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "analysis is " + a.Status})
		return nil, false
	}
	return a, true
}

// writeError translates analyzer failures into HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var hostErr *githost.HostError

	switch {
	case errors.Is(err, githost.ErrInvalidReference):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case githost.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, githost.ErrEmptyResult):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.As(err, &hostErr):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
	default:
		if rl, ok := githost.AsRateLimited(err); ok {
			w.Header().Set("Retry-After", retryAfter(rl))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func retryAfter(rl *githost.RateLimitedError) string {
	if rl.Reset.IsZero() {
		return "60"
	}
	secs := int(time.Until(rl.Reset).Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
