package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"gregoryjjb/crabcups/cups"
)

/////////////////////
// Response helpers

func RespondInternalServiceError(w http.ResponseWriter, err error) {
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(err.Error()))
}

func RespondNotFoundError(w http.ResponseWriter, body string) {
	w.WriteHeader(http.StatusNotFound)
	if body == "" {
		body = "Not found"
	}
	RespondText(w, body)
}

func RespondBadRequest(w http.ResponseWriter, message string) {
	w.WriteHeader(http.StatusBadRequest)
	RespondText(w, message)
}

func RespondText(w http.ResponseWriter, body string) {
	w.Write([]byte(body))
}

func RespondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("Failed to encode response")
	}
}

// RespondError maps domain errors onto status codes.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, cups.ErrConfig):
		RespondBadRequest(w, err.Error())
	case errors.Is(err, ErrNotExist):
		RespondNotFoundError(w, err.Error())
	case errors.Is(err, ErrQueueFull), errors.Is(err, ErrRunnerStopped):
		w.WriteHeader(http.StatusServiceUnavailable)
		RespondText(w, err.Error())
	default:
		RespondInternalServiceError(w, err)
	}
}

type BuildInfo struct {
	Version   string    `json:"version"`
	Commit    string    `json:"commit"`
	BuildTime time.Time `json:"build_time"`
}

// maxSolveCups keeps the synchronous solve endpoint from tying up a request
// on unreasonably large inputs; the large ring size comes from config.
const maxSolveCups = 1000

func NewRouter(config *Config, buildInfo BuildInfo, runner *Runner) (http.Handler, error) {
	indexTemplate, err := GetIndexTemplate()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(LoggerMiddleware(&log.Logger))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if err := indexTemplate.Execute(w, runner.History()); err != nil {
			RespondInternalServiceError(w, err)
		}
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", func(w http.ResponseWriter, r *http.Request) {
			RespondJSON(w, http.StatusOK, buildInfo)
		})

		// GET runs
		r.Get("/runs", func(w http.ResponseWriter, r *http.Request) {
			runs, err := runner.List()
			if err != nil {
				RespondInternalServiceError(w, err)
				return
			}
			if runs == nil {
				runs = []Run{}
			}

			RespondJSON(w, http.StatusOK, runs)
		})

		// POST new run
		r.Post("/runs", func(w http.ResponseWriter, r *http.Request) {
			var req RunRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				RespondBadRequest(w, fmt.Sprintf("invalid run request: %s", err))
				return
			}

			run, err := runner.Submit(req)
			if err != nil {
				RespondError(w, err)
				return
			}

			RespondJSON(w, http.StatusAccepted, run)
		})

		// GET single run
		r.Get("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Cache-Control", "no-cache, no-store")

			run, err := runner.Get(chi.URLParam(r, "id"))
			if err != nil {
				RespondError(w, err)
				return
			}

			RespondJSON(w, http.StatusOK, run)
		})

		// DELETE cancels a live run
		r.Delete("/runs/{id}", func(w http.ResponseWriter, r *http.Request) {
			if err := runner.Cancel(chi.URLParam(r, "id")); err != nil {
				RespondError(w, err)
				return
			}

			w.WriteHeader(http.StatusNoContent)
		})

		r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
			history := runner.History()
			if history == nil {
				history = []Run{}
			}
			RespondJSON(w, http.StatusOK, history)
		})

		// POST solve runs both puzzle parts and waits for the answer
		r.Post("/solve", func(w http.ResponseWriter, r *http.Request) {
			var req struct {
				Input string `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				RespondBadRequest(w, fmt.Sprintf("invalid solve request: %s", err))
				return
			}

			labels, err := ParseLabels(req.Input)
			if err != nil {
				RespondError(w, err)
				return
			}
			if len(labels) > maxSolveCups {
				RespondBadRequest(w, fmt.Sprintf("at most %d cups can be solved directly, submit a run instead", maxSolveCups))
				return
			}

			answer, err := Solve(r.Context(), labels, config.Puzzle())
			if err != nil {
				RespondError(w, err)
				return
			}

			RespondJSON(w, http.StatusOK, answer)
		})

		r.Get("/ws", createWebsocketHandler(runner))
	})

	return r, nil
}

// StartServer serves the API until ctx is cancelled.
func StartServer(ctx context.Context, config *Config, buildInfo BuildInfo, runner *Runner) error {
	handler, err := NewRouter(config, buildInfo, runner)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    config.Address(),
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().Str("listen", config.Address()).Msg("launching server")
	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
