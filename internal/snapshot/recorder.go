// Package snapshot records the document in version control after each save
// and reports the resulting history.
//
// Recording is best effort. A missing git binary, a directory that is not a
// repository, or a timed-out subprocess is logged, counted and published as an
// event, but never returned: the document on disk is already authoritative by
// the time Record runs.
package snapshot

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/alfredjeanlab/reasons/internal/events"
	"github.com/alfredjeanlab/reasons/internal/vcs"
)

// Outcome is the result of one Record call.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// Stats are point-in-time counters.
type Stats struct {
	Committed int64 `json:"committed"`
	Skipped   int64 `json:"skipped"`
	Failed    int64 `json:"failed"`
}

// Recorder stages and commits the document file.
type Recorder struct {
	repo      vcs.Repository
	path      string // document path relative to the repository
	publisher events.Publisher
	logger    *slog.Logger

	committed atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
}

// NewRecorder returns a recorder for the document at path inside repo. A nil
// publisher disables events; a nil logger uses slog.Default().
func NewRecorder(repo vcs.Repository, path string, publisher events.Publisher, logger *slog.Logger) *Recorder {
	if publisher == nil {
		publisher = &events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		repo:      repo,
		path:      path,
		publisher: publisher,
		logger:    logger,
	}
}

// Record snapshots the document with message as the commit message. Nothing
// is committed when the staged document equals the last snapshot.
func (r *Recorder) Record(ctx context.Context, message string) Outcome {
	if err := r.repo.Stage(ctx, r.path); err != nil {
		return r.fail(ctx, "stage", message, err)
	}

	changed, err := r.repo.HasStagedChanges(ctx, r.path)
	if err != nil {
		return r.fail(ctx, "diff", message, err)
	}
	if !changed {
		r.skipped.Add(1)
		r.logger.Debug("snapshot skipped, no changes", "path", r.path, "message", message)
		r.publish(ctx, events.TopicSnapshotSkipped, events.SnapshotSkipped{Path: r.path, Message: message})
		return OutcomeSkipped
	}

	if err := r.repo.Commit(ctx, r.path, message); err != nil {
		return r.fail(ctx, "commit", message, err)
	}

	r.committed.Add(1)
	r.logger.Info("snapshot committed", "path", r.path, "message", message)
	r.publish(ctx, events.TopicSnapshotCreated, events.SnapshotCreated{Path: r.path, Message: message})
	return OutcomeCommitted
}

// Stats returns the recorder counters.
func (r *Recorder) Stats() Stats {
	return Stats{
		Committed: r.committed.Load(),
		Skipped:   r.skipped.Load(),
		Failed:    r.failed.Load(),
	}
}

func (r *Recorder) fail(ctx context.Context, step, message string, err error) Outcome {
	r.failed.Add(1)
	r.logger.Warn("snapshot failed", "step", step, "path", r.path, "message", message, "err", err)
	r.publish(ctx, events.TopicSnapshotFailed, events.SnapshotFailed{
		Path:    r.path,
		Message: message,
		Step:    step,
		Error:   err.Error(),
	})
	return OutcomeFailed
}

func (r *Recorder) publish(ctx context.Context, topic string, event any) {
	if err := r.publisher.Publish(ctx, topic, event); err != nil {
		r.logger.Warn("failed to publish event", "topic", topic, "err", err)
	}
}
