// Package server exposes the query interface over HTTP: a minimal HTML form
// for interactive use and a JSON API for programmatic callers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ebrodie/domainqa/internal/search"
)

// Searcher retrieves and ranks context for a query.
type Searcher interface {
	Search(ctx context.Context, query string, f search.Filters) ([]search.Hit, error)
}

// Answerer produces an answer from retrieved context. It is total; failures
// surface as degraded answer text, not errors.
type Answerer interface {
	Answer(ctx context.Context, query string, hits []search.Hit) string
}

// Handler serves the query endpoints.
type Handler struct {
	searcher Searcher
	answerer Answerer
	logger   *zap.Logger
}

// New builds a Handler.
func New(searcher Searcher, answerer Answerer, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{searcher: searcher, answerer: answerer, logger: logger}
}

// Router builds the chi route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.requestLogger)

	r.Get("/", h.handleHome)
	r.Post("/ask", h.handleAskForm)
	r.Post("/api/ask", h.handleAskAPI)
	return r
}

// Serve runs the HTTP server on addr until ctx is canceled, then shuts down
// gracefully.
func (h *Handler) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// askRequest is the JSON API request body.
type askRequest struct {
	Q            string   `json:"q"`
	Industries   []string `json:"industries,omitempty"`
	CountryCodes []string `json:"country_codes,omitempty"`
	DateFrom     int64    `json:"date_from,omitempty"`
	DateTo       int64    `json:"date_to,omitempty"`
}

// askResponse is the JSON API response body.
type askResponse struct {
	Answer   string       `json:"answer"`
	Contexts []search.Hit `json:"contexts"`
}

func (h *Handler) handleAskAPI(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing request: %w", err))
		return
	}
	req.Q = strings.TrimSpace(req.Q)
	if req.Q == "" {
		writeError(w, http.StatusBadRequest, errors.New("empty query"))
		return
	}

	filters := search.Filters{
		Industries:   req.Industries,
		CountryCodes: req.CountryCodes,
		DateFrom:     req.DateFrom,
		DateTo:       req.DateTo,
	}
	hits, err := h.searcher.Search(r.Context(), req.Q, filters)
	if err != nil {
		h.logger.Error("search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("search failed"))
		return
	}

	resp := askResponse{
		Answer:   h.answerer.Answer(r.Context(), req.Q, hits),
		Contexts: hits,
	}
	if resp.Contexts == nil {
		resp.Contexts = []search.Hit{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHome(w http.ResponseWriter, r *http.Request) {
	renderHome(w, homePage{})
}

func (h *Handler) handleAskForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parsing form: %w", err))
		return
	}
	page := homePage{
		Query:      strings.TrimSpace(r.PostFormValue("q")),
		Industries: r.PostFormValue("industries"),
		Countries:  r.PostFormValue("countries"),
		DateFrom:   r.PostFormValue("date_from"),
		DateTo:     r.PostFormValue("date_to"),
	}
	if page.Query == "" {
		w.WriteHeader(http.StatusBadRequest)
		renderHome(w, page)
		return
	}

	filters := search.Filters{
		Industries:   splitTerms(page.Industries),
		CountryCodes: splitTerms(page.Countries),
		DateFrom:     parseTimestamp(page.DateFrom),
		DateTo:       parseTimestamp(page.DateTo),
	}
	hits, err := h.searcher.Search(r.Context(), page.Query, filters)
	if err != nil {
		h.logger.Error("search failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, errors.New("search failed"))
		return
	}
	page.Hits = hits
	page.Answer = h.answerer.Answer(r.Context(), page.Query, hits)
	renderHome(w, page)
}

func splitTerms(value string) []string {
	var terms []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			terms = append(terms, part)
		}
	}
	return terms
}

func parseTimestamp(value string) int64 {
	ts, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
