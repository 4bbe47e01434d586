package events

import "context"

// Event topic constants
const (
	TopicDocumentSaved   = "reasons.document.saved"
	TopicSnapshotCreated = "reasons.snapshot.created"
	TopicSnapshotSkipped = "reasons.snapshot.skipped"
	TopicSnapshotFailed  = "reasons.snapshot.failed"

	// TopicAll matches every topic above.
	TopicAll = "reasons.>"
)

// Event types

type DocumentSaved struct {
	Path    string `json:"path"`
	Records int    `json:"records"`
	Label   string `json:"label"` // snapshot message requested for this save
}

type SnapshotCreated struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type SnapshotSkipped struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// SnapshotFailed reports a swallowed stage/diff/commit failure.
type SnapshotFailed struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Step    string `json:"step"` // "stage", "diff" or "commit"
	Error   string `json:"error"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
	Close() error
}
