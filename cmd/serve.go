package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openlead/leadscout/internal/collector"
	"github.com/openlead/leadscout/internal/model"
	"github.com/openlead/leadscout/internal/pipeline"
	"github.com/openlead/leadscout/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for triggering and inspecting runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		launch := func(runID string, req runRequest) {
			go func() {
				// The run outlives the HTTP request, so detach from
				// request cancellation but keep the server's values.
				runCtx := context.WithoutCancel(ctx)
				e, err := initEnv(runCtx, runID)
				if err != nil {
					zap.L().Error("run setup failed", zap.String("run_id", runID), zap.Error(err))
					return
				}
				defer e.Close()

				_, err = e.orchestrator.Run(runCtx, pipeline.Request{
					RunID:   runID,
					Sources: req.Sources,
					Query: collector.Query{
						Keywords: req.Keywords,
						MaxItems: req.MaxItems,
					},
				})
				if err != nil {
					zap.L().Error("run failed", zap.String("run_id", runID), zap.Error(err))
					return
				}
				zap.L().Info("run complete", zap.String("run_id", runID))
			}()
		}

		handler := buildRouter(st, cfg.Server.AllowedOrigins, launch)
		return startServer(ctx, handler, resolvePort(servePort, cfg.Server.Port))
	},
}

type runRequest struct {
	Keywords string   `json:"keywords"`
	Sources  []string `json:"sources"`
	MaxItems int      `json:"max_items"`
}

// buildRouter assembles the API routes. launch is called for each accepted
// run request with a freshly assigned run ID; a nil launch drops requests
// after acknowledging them.
func buildRouter(st store.Store, origins []string, launch func(runID string, req runRequest)) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
		runs, err := st.ListRuns(req.Context(), store.RunFilter{
			State: model.RunState(req.URL.Query().Get("state")),
			Limit: 50,
		})
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
			return
		}
		if runs == nil {
			runs = []model.Run{}
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := st.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	r.Post("/runs", func(w http.ResponseWriter, req *http.Request) {
		var body runRequest
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}

		runID := uuid.NewString()
		if launch != nil {
			launch(runID, body)
		}

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"run_id": runID,
		})
	})

	return r
}

func resolvePort(flag, configured int) int {
	if flag != 0 {
		return flag
	}
	return configured
}

// startServer runs the HTTP server until ctx is canceled, then shuts it
// down gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("response encode failed", zap.Error(err))
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
