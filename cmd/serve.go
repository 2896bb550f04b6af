package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP control surface",
	Long:  "Exposes batch triggering and run history over HTTP. Only one batch runs at a time; the sheet has a single writer.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		// Guards the single-writer invariant on the lead sheet: at most one
		// batch in flight per process.
		var busy atomic.Bool

		r := chi.NewRouter()
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/batch/process", func(w http.ResponseWriter, req *http.Request) {
			if !busy.CompareAndSwap(false, true) {
				writeJSON(w, http.StatusConflict, map[string]string{"error": "a batch is already in flight"})
				return
			}

			run, err := env.History.CreateRun(req.Context())
			if err != nil {
				busy.Store(false)
				zap.L().Error("failed to create run record", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create run"})
				return
			}

			// Process on the server context so an in-flight batch survives the
			// request but stops on shutdown.
			go func() {
				defer busy.Store(false)

				leads, err := env.Leads.FetchPending(ctx)
				if err != nil {
					zap.L().Error("failed to fetch pending leads", zap.String("run_id", run.ID), zap.Error(err))
					if err := env.History.CompleteRun(ctx, run.ID, model.RunStatusFailed, nil); err != nil {
						zap.L().Warn("failed to record run failure", zap.Error(err))
					}
					return
				}

				result, err := env.Pipeline.ProcessBatchRun(ctx, leads, run.ID)
				if err != nil {
					zap.L().Error("batch processing failed", zap.String("run_id", run.ID), zap.Error(err))
					return
				}
				zap.L().Info("triggered batch complete",
					zap.String("run_id", run.ID),
					zap.Int("leads", len(result.Outcomes)))
			}()

			writeJSON(w, http.StatusAccepted, map[string]string{
				"status": "accepted",
				"run_id": run.ID,
			})
		})

		r.Get("/runs", func(w http.ResponseWriter, req *http.Request) {
			filter := store.RunFilter{
				Status: model.RunStatus(req.URL.Query().Get("status")),
			}
			if raw := req.URL.Query().Get("limit"); raw != "" {
				if n, err := strconv.Atoi(raw); err == nil {
					filter.Limit = n
				}
			}
			if raw := req.URL.Query().Get("offset"); raw != "" {
				if n, err := strconv.Atoi(raw); err == nil {
					filter.Offset = n
				}
			}

			runs, err := env.History.ListRuns(req.Context(), filter)
			if err != nil {
				zap.L().Error("failed to list runs", zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
		})

		r.Get("/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			run, err := env.History.GetRun(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusOK, run)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
