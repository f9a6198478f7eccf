package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rtfti/ftscore/internal/model"
	"github.com/rtfti/ftscore/internal/pipeline"
	"github.com/rtfti/ftscore/internal/store"
)

var servePort int

// shutdownDrain bounds how long in-flight requests get to finish after
// a stop signal.
const shutdownDrain = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scoring HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}
		s, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer s.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
		if err != nil {
			return eris.Wrapf(err, "server listen on port %d", port)
		}

		zap.L().Info("starting server", zap.Int("port", port))
		return runServer(ctx, &http.Server{Handler: newRouter(p, s)}, ln)
	},
}

// runServer serves until ctx is cancelled, then drains in-flight
// requests. The drain runs on its own deadline because the trigger
// context is already cancelled when shutdown starts.
func runServer(ctx context.Context, srv *http.Server, ln net.Listener) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		zap.L().Info("shutting down server")
		drainCtx, cancel := context.WithTimeout(context.Background(), shutdownDrain)
		defer cancel()
		if err := srv.Shutdown(drainCtx); err != nil {
			zap.L().Warn("shutdown incomplete", zap.Error(err))
		}
	}()

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "server listen")
	}
	<-done
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func newRouter(p *pipeline.Pipeline, s store.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(rateLimit(rate.Limit(cfg.Server.RateLimitRPS), cfg.Server.RateBurst))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/score", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Entity string            `json:"entity"`
			Batch  model.RecordBatch `json:"batch"`
			Save   bool              `json:"save"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if body.Entity == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "entity is required"})
			return
		}

		result, err := p.Run(req.Context(), body.Entity, body.Batch)
		if err != nil {
			zap.L().Error("score request failed", zap.String("entity", body.Entity), zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "scoring failed"})
			return
		}

		if body.Save {
			if err := s.SaveReport(req.Context(), result.Report); err != nil {
				zap.L().Error("save report failed", zap.String("entity", body.Entity), zap.Error(err))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "save failed"})
				return
			}
		}

		status := http.StatusOK
		if !result.Report.Computable() {
			status = http.StatusUnprocessableEntity
		}
		writeJSON(w, status, result.Report)
	})

	r.Get("/v1/reports", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		reports, err := s.ListReports(req.Context(), store.ReportFilter{
			Entity: q.Get("entity"),
			Status: model.Status(q.Get("status")),
		})
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
			return
		}
		writeJSON(w, http.StatusOK, reports)
	})

	r.Get("/v1/reports/{id}", func(w http.ResponseWriter, req *http.Request) {
		report, err := s.GetReport(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "get failed"})
			return
		}
		if report == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "report not found"})
			return
		}
		writeJSON(w, http.StatusOK, report)
	})

	return r
}

// rateLimit applies a server-wide token bucket.
func rateLimit(limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(limit, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if !limiter.Allow() {
				writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
