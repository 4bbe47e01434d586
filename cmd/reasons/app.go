package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alfredjeanlab/reasons/internal/config"
	"github.com/alfredjeanlab/reasons/internal/events"
	"github.com/alfredjeanlab/reasons/internal/snapshot"
	"github.com/alfredjeanlab/reasons/internal/store/file"
	"github.com/alfredjeanlab/reasons/internal/vcs"
)

// app holds the components shared by serve and snapshot.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *file.FileStore
	repo     *vcs.Git
	recorder *snapshot.Recorder
	history  *snapshot.History
	labeler  snapshot.Labeler
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return cfg, logger, nil
}

func newApp(cfg *config.Config, logger *slog.Logger, publisher events.Publisher) *app {
	dataPath := cfg.Resolve(cfg.DataFile)
	repo := vcs.NewGit(cfg.Dir, vcs.WithTimeout(cfg.GitTimeout))
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    file.New(dataPath),
		repo:     repo,
		recorder: snapshot.NewRecorder(repo, repoRelative(cfg.Dir, dataPath), publisher, logger),
		history:  snapshot.NewHistory(repo, logger),
		labeler:  snapshot.Labeler{Locale: snapshot.ParseLocale(cfg.Locale)},
	}
}

// repoRelative returns path relative to dir, or path unchanged when it lies
// outside dir.
func repoRelative(dir, path string) string {
	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (events.Publisher, error) {
	if cfg.NATSURL == "" {
		logger.Info("events disabled (EDITOR_NATS_URL not set)")
		return &events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(cfg.NATSURL)
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	logger.Info("events enabled", "nats_url", cfg.NATSURL)
	return pub, nil
}
