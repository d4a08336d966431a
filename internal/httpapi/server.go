// Package httpapi exposes the job handler over HTTP for local runs and
// container platforms that deliver jobs as synchronous requests.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nllbd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Handle(ctx context.Context, job types.Job) types.JobOutput
	Status() types.StatusResponse
	Ready() bool
}

var syncSeq atomic.Uint64

// jobID returns the caller's id, else the chi request id, else a sequence id.
func jobID(r *http.Request, id string) string {
	if id = strings.TrimSpace(id); id != "" {
		return id
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		return rid
	}
	return "sync-" + strconv.FormatUint(syncSeq.Add(1), 10)
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/status", handleStatus(svc))
	r.Post("/runsync", handleRunSync(svc))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// handleStatus godoc
// @Summary      Worker status
// @Description  Model, device, language map size and invocation counters.
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	}
}

// handleRunSync godoc
// @Summary      Translate synchronously
// @Description  Runs one job and returns its payload. Translation failures are reported in output.error with status FAILED, not as HTTP errors.
// @Tags         jobs
// @Accept       json
// @Produce      json
// @Param        job  body      types.Job  true  "Job with input {text, lang_code}"
// @Success      200  {object}  types.RunResponse
// @Failure      400  {object}  types.ErrorResponse
// @Failure      415  {object}  types.ErrorResponse
// @Router       /runsync [post]
func handleRunSync(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Content-Type check
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var job types.Job
		if err := json.NewDecoder(r.Body).Decode(&job); err != nil {
			// Oversized bodies also land here; 400 avoids leaking the limit.
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		job.ID = jobID(r, job.ID)

		log := requestLogger(r, job.ID)
		start := time.Now()
		log.Info().Str("path", r.URL.Path).Msg("runsync start")
		log.Debug().RawJSON("input", rawOrNull(job.Input)).Msg("runsync input")

		ctx, cancel := jobContext(r)
		defer cancel()

		out := svc.Handle(ctx, job)
		if r.Context().Err() != nil {
			// Client went away; nobody to answer.
			return
		}
		resp := runResult(job.ID, out)
		writeJSON(w, http.StatusOK, resp)

		if out.Failed() {
			log.Error().Str("error", *out.Error).Dur("dur", time.Since(start)).Msg("runsync end")
			return
		}
		log.Info().Str("status", resp.Status).Dur("dur", time.Since(start)).Msg("runsync end")
	}
}

func rawOrNull(b json.RawMessage) []byte {
	if len(b) == 0 {
		return []byte("null")
	}
	return b
}
