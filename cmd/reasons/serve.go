package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alfredjeanlab/reasons/internal/config"
	"github.com/alfredjeanlab/reasons/internal/events"
	"github.com/alfredjeanlab/reasons/internal/pace"
	"github.com/alfredjeanlab/reasons/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Start the editor HTTP server",
	GroupID: "run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}

		// Create event publishers: NATS (optional) plus the in-process hub
		// behind GET /api/events.
		natsPub, err := newPublisher(cfg, logger)
		if err != nil {
			return err
		}
		hub := server.NewEventHub()
		publisher := events.NewMultiPublisher(natsPub, hub)

		a := newApp(cfg, logger, publisher)
		if !a.history.HasRemote(cmd.Context()) {
			logger.Debug("no origin remote configured", "dir", cfg.Dir)
		}

		srv := server.New(server.Options{
			Store:        a.store,
			Recorder:     a.recorder,
			History:      a.history,
			Labeler:      a.labeler,
			Publisher:    publisher,
			Events:       hub,
			Pace:         newPaceSource(cmd.Context(), cfg, logger),
			Static:       os.DirFS(cfg.Dir),
			EditorPage:   cfg.EditorFile,
			VizPage:      cfg.VizFile,
			HistoryLimit: cfg.HistoryLimit,
			MaxBodyBytes: cfg.MaxBodyBytes,
			Logger:       logger,
		})

		lis, err := net.Listen("tcp", cfg.Addr)
		if err != nil {
			publisher.Close()
			return err
		}

		httpServer := &http.Server{
			Handler:           srv.NewHTTPHandler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		logger.Info("reasons editor listening",
			"url", listenURL(lis.Addr()),
			"dir", cfg.Dir,
			"document", a.store.Path(),
		)

		// Wait for SIGINT or SIGTERM.
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		select {
		case <-ctx.Done():
			logger.Info("received signal, shutting down")
		case err := <-errCh:
			logger.Error("HTTP server error", "err", err)
		}

		// Graceful shutdown.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

// newPaceSource picks the S3 source when a bucket is configured and falls
// back to the local file otherwise.
func newPaceSource(ctx context.Context, cfg *config.Config, logger *slog.Logger) pace.Source {
	if cfg.FitS3Bucket != "" {
		src, err := pace.NewS3Source(ctx, cfg.FitS3Bucket, cfg.FitS3Key, cfg.FitS3Region, cfg.FitS3Endpoint)
		if err == nil {
			logger.Info("pace source: S3", "bucket", cfg.FitS3Bucket, "key", cfg.FitS3Key)
			return src
		}
		logger.Error("failed to create S3 pace source, using local file", "err", err)
	}
	return pace.NewFileSource(cfg.Resolve(cfg.FitFile))
}

// listenURL renders addr as a browsable URL, mapping unspecified hosts to
// localhost.
func listenURL(addr net.Addr) string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return "http://" + addr.String()
	}
	if ip := net.ParseIP(host); host == "" || ip != nil && ip.IsUnspecified() {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
