package snapshot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alfredjeanlab/reasons/internal/events"
	"github.com/alfredjeanlab/reasons/internal/vcs"
)

// capturePublisher records published topics.
type capturePublisher struct {
	topics []string
	events []any
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event any) error {
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

func newTestRecorder(t *testing.T) (*Recorder, *mockRepository, *capturePublisher, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	repo := newMockRepository(dir)
	pub := &capturePublisher{}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewRecorder(repo, "data.json", pub, logger), repo, pub, &logs
}

func writeDocument(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "data.json"), []byte(content), 0o644); err != nil {
		t.Fatalf("write document: %v", err)
	}
}

func TestRecord_CommitsChange(t *testing.T) {
	rec, repo, pub, _ := newTestRecorder(t)
	writeDocument(t, repo.dir, `[{"text":"a"}]`)

	if got := rec.Record(context.Background(), "Update: now"); got != OutcomeCommitted {
		t.Fatalf("Record = %q, want %q", got, OutcomeCommitted)
	}
	if len(repo.commits) != 1 || repo.commits[0].Message != "Update: now" {
		t.Fatalf("commits = %+v", repo.commits)
	}
	if len(pub.topics) != 1 || pub.topics[0] != events.TopicSnapshotCreated {
		t.Fatalf("topics = %v", pub.topics)
	}
	if s := rec.Stats(); s != (Stats{Committed: 1}) {
		t.Fatalf("Stats = %+v", s)
	}
}

func TestRecord_IdenticalContentSkipped(t *testing.T) {
	rec, repo, pub, _ := newTestRecorder(t)
	ctx := context.Background()
	writeDocument(t, repo.dir, `[{"text":"a"}]`)

	rec.Record(ctx, "first")
	if got := rec.Record(ctx, "second"); got != OutcomeSkipped {
		t.Fatalf("Record = %q, want %q", got, OutcomeSkipped)
	}
	if len(repo.commits) != 1 {
		t.Fatalf("expected exactly 1 commit, got %d", len(repo.commits))
	}
	if pub.topics[1] != events.TopicSnapshotSkipped {
		t.Fatalf("topics = %v", pub.topics)
	}
	if s := rec.Stats(); s != (Stats{Committed: 1, Skipped: 1}) {
		t.Fatalf("Stats = %+v", s)
	}

	writeDocument(t, repo.dir, `[{"text":"b"}]`)
	if got := rec.Record(ctx, "third"); got != OutcomeCommitted {
		t.Fatalf("Record after change = %q", got)
	}
	if len(repo.commits) != 2 {
		t.Fatalf("expected 2 commits, got %d", len(repo.commits))
	}
}

func TestRecord_FailuresAreSwallowed(t *testing.T) {
	boom := errors.New("boom")
	for _, tc := range []struct {
		name  string
		setup func(*mockRepository)
		step  string
	}{
		{"Stage", func(m *mockRepository) { m.stageErr = boom }, "stage"},
		{"Diff", func(m *mockRepository) { m.diffErr = boom }, "diff"},
		{"Commit", func(m *mockRepository) { m.commitErr = boom }, "commit"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec, repo, pub, logs := newTestRecorder(t)
			writeDocument(t, repo.dir, `[]`)
			tc.setup(repo)

			if got := rec.Record(context.Background(), "Update: x"); got != OutcomeFailed {
				t.Fatalf("Record = %q, want %q", got, OutcomeFailed)
			}
			if len(repo.commits) != 0 {
				t.Fatalf("expected no commits, got %d", len(repo.commits))
			}
			if s := rec.Stats(); s != (Stats{Failed: 1}) {
				t.Fatalf("Stats = %+v", s)
			}
			if len(pub.events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(pub.events))
			}
			failed, ok := pub.events[0].(events.SnapshotFailed)
			if !ok {
				t.Fatalf("event type = %T", pub.events[0])
			}
			if failed.Step != tc.step || failed.Error != "boom" {
				t.Fatalf("event = %+v", failed)
			}
			if !strings.Contains(logs.String(), "snapshot failed") {
				t.Fatalf("expected a log line, got %q", logs.String())
			}
		})
	}
}

func TestRecord_MissingDocument(t *testing.T) {
	rec, _, _, _ := newTestRecorder(t)
	if got := rec.Record(context.Background(), "Update: x"); got != OutcomeFailed {
		t.Fatalf("Record = %q, want %q", got, OutcomeFailed)
	}
}

func TestRecord_PublishErrorIgnored(t *testing.T) {
	rec, repo, pub, logs := newTestRecorder(t)
	pub.err = errors.New("nats down")
	writeDocument(t, repo.dir, `[]`)

	if got := rec.Record(context.Background(), "Update: x"); got != OutcomeCommitted {
		t.Fatalf("Record = %q, want %q", got, OutcomeCommitted)
	}
	if !strings.Contains(logs.String(), "failed to publish event") {
		t.Fatalf("expected publish failure to be logged, got %q", logs.String())
	}
}

func TestNewRecorder_Defaults(t *testing.T) {
	rec := NewRecorder(newMockRepository(t.TempDir()), "data.json", nil, nil)
	if rec.publisher == nil || rec.logger == nil {
		t.Fatal("expected default publisher and logger")
	}
}

func TestRecord_RealGit(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not found in PATH")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init", "--quiet"},
		{"config", "user.email", "test@test.com"},
		{"config", "user.name", "Test"},
		{"config", "commit.gpgsign", "false"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	repo := vcs.NewGit(dir)
	rec := NewRecorder(repo, "data.json", nil, slog.New(slog.NewTextHandler(os.Stderr, nil)))
	history := NewHistory(repo, nil)
	ctx := context.Background()

	if got := history.Recent(ctx, 0); len(got) != 0 {
		t.Fatalf("expected empty history before first commit, got %+v", got)
	}

	writeDocument(t, dir, `[{"text":"a"}]`)
	rec.Record(ctx, `Version: "quoted" label`)
	rec.Record(ctx, "Update: identical")

	commits := history.Recent(ctx, 0)
	if len(commits) != 1 {
		t.Fatalf("expected 1 commit, got %+v", commits)
	}
	if commits[0].Message != `Version: "quoted" label` {
		t.Fatalf("message = %q", commits[0].Message)
	}
	if history.HasRemote(ctx) {
		t.Fatal("expected no remote")
	}
}
