package snapshot

import (
	"context"
	"log/slog"

	"github.com/alfredjeanlab/reasons/internal/vcs"
)

// DefaultHistoryLimit is the number of commits reported when no limit is given.
const DefaultHistoryLimit = 20

// History reads recent snapshots and remote configuration.
type History struct {
	repo   vcs.Repository
	remote string
	logger *slog.Logger
}

// NewHistory returns a reporter over repo that looks for the "origin" remote.
func NewHistory(repo vcs.Repository, logger *slog.Logger) *History {
	if logger == nil {
		logger = slog.Default()
	}
	return &History{repo: repo, remote: vcs.DefaultRemote, logger: logger}
}

// Recent returns up to limit snapshots, newest first. A non-positive limit
// means DefaultHistoryLimit. Failures, including a repository without any
// commit yet, yield an empty list.
func (h *History) Recent(ctx context.Context, limit int) []vcs.Commit {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	commits, err := h.repo.Log(ctx, limit)
	if err != nil {
		h.logger.Debug("history unavailable", "err", err)
		return []vcs.Commit{}
	}
	if len(commits) > limit {
		commits = commits[:limit]
	}
	if commits == nil {
		commits = []vcs.Commit{}
	}
	return commits
}

// HasRemote reports whether the origin remote is configured; false on any
// lookup failure.
func (h *History) HasRemote(ctx context.Context) bool {
	ok, err := h.repo.HasRemote(ctx, h.remote)
	if err != nil {
		h.logger.Debug("remote lookup failed", "remote", h.remote, "err", err)
		return false
	}
	return ok
}
