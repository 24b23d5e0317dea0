// Package api serves timeline and frame previews over HTTP.
//
//	GET /healthz                         ok
//	GET /version                         build information
//	GET /timeline                        timeline JSON
//	GET /frames/{block}/{trial}.{format} frame as json, png, plot, dot or svg
//
// Frame requests accept ?variant=prf|feature. Domain errors map to HTTP
// status codes by their error code.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prfstim/prfstim/pkg/buildinfo"
	"github.com/prfstim/prfstim/pkg/errors"
	"github.com/prfstim/prfstim/pkg/pipeline"
	"github.com/prfstim/prfstim/pkg/schedule"
)

// Server holds the timeline being previewed.
type Server struct {
	runner   *pipeline.Runner
	opts     pipeline.Options
	timeline *schedule.Timeline
	logger   *log.Logger
}

// New builds (or loads from the runner's cache) the timeline for opts.
func New(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*Server, error) {
	opts.SetTimelineDefaults()
	tl, err := runner.BuildTimeline(ctx, opts)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Server{runner: runner, opts: opts, timeline: tl, logger: logger}, nil
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(buildinfo.Get())
	})
	r.Get("/timeline", s.getTimeline)
	r.Get("/frames/{block}/{trial}.{format}", s.getFrame)
	return r
}

func (s *Server) getTimeline(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.timeline); err != nil {
		s.logger.Warn("write timeline", "err", err)
	}
}

func (s *Server) getFrame(w http.ResponseWriter, r *http.Request) {
	block, err := strconv.Atoi(chi.URLParam(r, "block"))
	if err != nil {
		s.fail(w, errors.New(errors.ErrCodeInvalidInput, "block %q is not a number", chi.URLParam(r, "block")))
		return
	}
	trial, err := strconv.Atoi(chi.URLParam(r, "trial"))
	if err != nil {
		s.fail(w, errors.New(errors.ErrCodeInvalidInput, "trial %q is not a number", chi.URLParam(r, "trial")))
		return
	}
	format := chi.URLParam(r, "format")

	opts := s.opts
	opts.Formats = []string{format}
	if v := r.URL.Query().Get("variant"); v != "" {
		opts.Variant = v
	}
	res, err := s.runner.RenderFrame(r.Context(), opts, s.timeline, block, trial)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType(format))
	if res.CacheHit {
		w.Header().Set("X-Cache", "hit")
	}
	_, _ = w.Write(res.Artifacts[format])
}

// fail writes err as a JSON body with the status for its code.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := Status(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":  string(errors.GetCode(err)),
		"error": errors.UserMessage(err),
	})
}

// Status maps an error to an HTTP status code.
func Status(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidPath,
		errors.ErrCodeInvalidRange, errors.ErrCodeConfiguration, errors.ErrCodeCountMismatch,
		errors.ErrCodeUnknownCondition, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func contentType(format string) string {
	switch format {
	case pipeline.FormatPNG, pipeline.FormatPlot:
		return "image/png"
	case pipeline.FormatJSON:
		return "application/x-ndjson"
	case pipeline.FormatSVG:
		return "image/svg+xml"
	case pipeline.FormatDOT:
		return "text/vnd.graphviz"
	}
	return "application/octet-stream"
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "duration", time.Since(start))
	})
}
