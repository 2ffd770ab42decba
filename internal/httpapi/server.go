package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/b2tsrl/openwhispr/internal/supervisor"
	"github.com/b2tsrl/openwhispr/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() ([]types.Model, error)
	Status(ctx context.Context) types.StatusResponse
	StartServer(ctx context.Context, req types.StartRequest) error
	StopServer(ctx context.Context) error
	Transcribe(ctx context.Context, audio []byte, opts supervisor.TranscribeOptions) (*types.TranscriptionResponse, error)
	History(ctx context.Context, limit int) ([]types.HistoryEntry, error)
	InvalidateBinaries()
	Ready() bool
}

// historyLimitMax caps GET /api/history page sizes.
const historyLimitMax = 500

// NewMux builds the daemon's HTTP handler.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/models", handleModels(svc))
		r.Get("/history", handleHistory(svc))
		r.Post("/transcribe", handleTranscribe(svc))
		r.Route("/server", func(r chi.Router) {
			r.Post("/start", handleStart(svc))
			r.Post("/stop", handleStop(svc))
			r.Get("/status", handleStatus(svc))
		})
		r.Post("/binaries/invalidate", handleInvalidate(svc))
	})

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

// handleModels godoc
// @Summary      List available models
// @Description  Scans the models directory for whisper model files.
// @Tags         models
// @Produce      json
// @Success      200 {object} types.ModelsResponse
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/models [get]
func handleModels(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models, err := svc.ListModels()
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.ModelsResponse{Models: models})
	}
}

// handleStatus godoc
// @Summary      Report server status
// @Description  Current lifecycle state of the managed whisper server plus accelerator facts.
// @Tags         server
// @Produce      json
// @Success      200 {object} types.StatusResponse
// @Router       /api/server/status [get]
func handleStatus(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status(r.Context()))
	}
}

// handleStart godoc
// @Summary      Start the managed whisper server
// @Description  Spawns a whisper-server for the given model, replacing any running one. Identical repeat requests are no-ops.
// @Tags         server
// @Accept       json
// @Produce      json
// @Param        request body types.StartRequest true "start parameters"
// @Success      200 {object} types.StatusResponse
// @Failure      400 {object} types.ErrorResponse
// @Failure      404 {object} types.ErrorResponse
// @Failure      500 {object} types.ErrorResponse
// @Failure      503 {object} types.ErrorResponse
// @Router       /api/server/start [post]
func handleStart(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		var req types.StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if strings.TrimSpace(req.ModelPath) == "" {
			writeJSONError(w, http.StatusBadRequest, "model_path is required")
			return
		}

		lvl := requestLogLevel(r)
		began := time.Now()
		// Join server base context with request context so shutdown
		// cancels the wait too.
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.StartServer(ctx, req); err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeServiceError(w, err)
			if lvl >= LevelError {
				zlog.Error().Str("model", req.ModelPath).Dur("dur", time.Since(began)).Err(err).Msg("server start failed")
			}
			return
		}
		if lvl >= LevelInfo {
			zlog.Info().Str("model", req.ModelPath).Bool("use_gpu", req.UseGPU).
				Dur("dur", time.Since(began)).Msg("server started")
		}
		writeJSON(w, http.StatusOK, svc.Status(r.Context()))
	}
}

// handleStop godoc
// @Summary      Stop the managed whisper server
// @Description  Gracefully stops the running server; a no-op when nothing runs.
// @Tags         server
// @Produce      json
// @Success      200 {object} types.StatusResponse
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/server/stop [post]
func handleStop(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		if err := svc.StopServer(ctx); err != nil {
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc.Status(r.Context()))
	}
}

// handleTranscribe godoc
// @Summary      Transcribe an audio upload
// @Description  Forwards the uploaded audio to the running whisper server and returns the transcript. Accepts a multipart form with a "file" field, or the raw audio bytes as the request body (options via query parameters). Non-WAV uploads need a transcoder-enabled server.
// @Tags         transcribe
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "audio payload"
// @Param        language formData string false "language hint (ISO 639-1 or auto)"
// @Param        prompt formData string false "decoding prompt"
// @Success      200 {object} types.TranscriptionResponse
// @Failure      400 {object} types.ErrorResponse
// @Failure      409 {object} types.ErrorResponse
// @Failure      413 {object} types.ErrorResponse
// @Failure      415 {object} types.ErrorResponse
// @Failure      429 {object} types.ErrorResponse
// @Failure      502 {object} types.ErrorResponse
// @Failure      504 {object} types.ErrorResponse
// @Router       /api/transcribe [post]
func handleTranscribe(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !transcribeSem.TryAcquire(1) {
			MarkThrottled("transcribe_concurrency")
			writeJSONError(w, http.StatusTooManyRequests, "too many concurrent transcriptions")
			return
		}
		defer transcribeSem.Release(1)

		r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
		var (
			audio []byte
			opts  supervisor.TranscribeOptions
			err   error
		)
		if mediaType, _, mtErr := mime.ParseMediaType(r.Header.Get("Content-Type")); mtErr == nil && mediaType == "multipart/form-data" {
			audio, opts, err = readTranscribeUpload(r)
		} else {
			// Raw-body upload, for curl --data-binary and the like.
			audio, err = io.ReadAll(r.Body)
			opts.Language = r.URL.Query().Get("language")
			opts.Prompt = r.URL.Query().Get("prompt")
			opts.Filename = r.URL.Query().Get("filename")
		}
		if err != nil {
			var mbe *http.MaxBytesError
			if errors.As(err, &mbe) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, "audio upload too large")
				return
			}
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		if len(audio) == 0 {
			writeJSONError(w, http.StatusBadRequest, "empty audio upload")
			return
		}

		lvl := requestLogLevel(r)
		began := time.Now()
		ctx, cancel := joinContexts(serverBaseCtx, r.Context())
		defer cancel()
		resp, err := svc.Transcribe(ctx, audio, opts)
		if err != nil {
			// Client disconnects and shutdowns do not get a response.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			writeServiceError(w, err)
			if lvl >= LevelError {
				zlog.Error().Int("audio_bytes", len(audio)).
					Dur("dur", time.Since(began)).Err(err).Msg("transcribe failed")
			}
			return
		}
		if lvl >= LevelDebug {
			zlog.Debug().Str("text", resp.Text).Msg("transcript")
		}
		if lvl >= LevelInfo {
			zlog.Info().Int("audio_bytes", len(audio)).
				Int64("took_ms", resp.TookMS).Msg("transcribe end")
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// readTranscribeUpload extracts the audio bytes and per-request
// options from a multipart form.
func readTranscribeUpload(r *http.Request) ([]byte, supervisor.TranscribeOptions, error) {
	var opts supervisor.TranscribeOptions
	file, hdr, err := r.FormFile("file")
	if err != nil {
		if errors.As(err, new(*http.MaxBytesError)) {
			return nil, opts, err
		}
		return nil, opts, errors.New(`multipart form must carry a "file" field`)
	}
	defer file.Close()
	audio, err := io.ReadAll(file)
	if err != nil {
		return nil, opts, err
	}
	opts.Filename = hdr.Filename
	opts.Language = r.FormValue("language")
	opts.Prompt = r.FormValue("prompt")
	return audio, opts, nil
}

// handleHistory godoc
// @Summary      List recent transcriptions
// @Description  Returns stored transcriptions, newest first. Empty when history is disabled.
// @Tags         history
// @Produce      json
// @Param        limit query int false "maximum entries to return" maximum(500)
// @Success      200 {object} types.HistoryResponse
// @Failure      500 {object} types.ErrorResponse
// @Router       /api/history [get]
func handleHistory(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeJSONError(w, http.StatusBadRequest, "limit must be a non-negative integer")
				return
			}
			limit = n
		}
		if limit > historyLimitMax {
			limit = historyLimitMax
		}
		entries, err := svc.History(r.Context(), limit)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.HistoryResponse{Entries: entries})
	}
}

// handleInvalidate godoc
// @Summary      Invalidate cached binary paths
// @Description  Drops the cached accelerated-binary location so a freshly installed bundle is picked up by the next start.
// @Tags         server
// @Produce      json
// @Success      200 {object} map[string]bool
// @Router       /api/binaries/invalidate [post]
func handleInvalidate(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.InvalidateBinaries()
		writeJSON(w, http.StatusOK, map[string]bool{"invalidated": true})
	}
}
