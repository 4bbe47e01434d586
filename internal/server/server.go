// Package server exposes the reasons document, its snapshot history and the
// editor's static assets over HTTP.
package server

import (
	"context"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/alfredjeanlab/reasons/internal/events"
	"github.com/alfredjeanlab/reasons/internal/pace"
	"github.com/alfredjeanlab/reasons/internal/snapshot"
	"github.com/alfredjeanlab/reasons/internal/store"
)

const (
	defaultMaxBodyBytes = 5 << 20
	defaultEditorPage   = "why_I_run_editor.html"
	defaultVizPage      = "why_I_run_viz.html"
)

// Options configures a Server. Store, Recorder and History are required.
type Options struct {
	Store    store.Store
	Recorder *snapshot.Recorder
	History  *snapshot.History
	Labeler  snapshot.Labeler

	// Publisher receives DocumentSaved events. Nil disables them.
	Publisher events.Publisher
	// Events backs GET /api/events. It should also be reachable from
	// Publisher so that the stream sees what is published.
	Events *EventHub

	// Pace is the activity source for GET /api/pace. Nil reports no activity.
	Pace pace.Source

	// Static is the deployment directory. EditorPage and VizPage name files
	// inside it.
	Static     fs.FS
	EditorPage string
	VizPage    string

	HistoryLimit int
	MaxBodyBytes int64

	Logger *slog.Logger
}

// Server handles editor requests.
type Server struct {
	store     store.Store
	recorder  *snapshot.Recorder
	history   *snapshot.History
	labeler   snapshot.Labeler
	publisher events.Publisher
	hub       *EventHub
	pace      pace.Source

	static     fs.FS
	editorPage string
	vizPage    string

	historyLimit int
	maxBodyBytes int64
	logger       *slog.Logger

	// writeMu serializes persist-then-snapshot so that concurrent saves do
	// not race for the git index lock.
	writeMu sync.Mutex
}

// New returns a Server built from opts.
func New(opts Options) *Server {
	s := &Server{
		store:        opts.Store,
		recorder:     opts.Recorder,
		history:      opts.History,
		labeler:      opts.Labeler,
		publisher:    opts.Publisher,
		hub:          opts.Events,
		pace:         opts.Pace,
		static:       opts.Static,
		editorPage:   opts.EditorPage,
		vizPage:      opts.VizPage,
		historyLimit: opts.HistoryLimit,
		maxBodyBytes: opts.MaxBodyBytes,
		logger:       opts.Logger,
	}
	if s.publisher == nil {
		s.publisher = &events.NoopPublisher{}
	}
	if s.hub == nil {
		s.hub = NewEventHub()
	}
	if s.editorPage == "" {
		s.editorPage = defaultEditorPage
	}
	if s.vizPage == "" {
		s.vizPage = defaultVizPage
	}
	if s.historyLimit <= 0 {
		s.historyLimit = snapshot.DefaultHistoryLimit
	}
	if s.maxBodyBytes <= 0 {
		s.maxBodyBytes = defaultMaxBodyBytes
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// persist writes doc and snapshots it under label. Only the write error is
// returned; snapshot failures are absorbed by the recorder.
func (s *Server) persist(ctx context.Context, doc store.Document, label string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.store.Save(ctx, doc); err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, events.TopicDocumentSaved, events.DocumentSaved{
		Path:    s.store.Path(),
		Records: len(doc),
		Label:   label,
	}); err != nil {
		s.logger.Warn("failed to publish event", "topic", events.TopicDocumentSaved, "err", err)
	}

	// The document is on disk; finish the snapshot even if the client is gone.
	s.recorder.Record(context.WithoutCancel(ctx), label)
	return nil
}
