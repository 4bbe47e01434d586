package events

import (
	"context"
	"errors"
	"testing"
)

type recordingPublisher struct {
	topics []string
	err    error
	closed bool
}

func (r *recordingPublisher) Publish(_ context.Context, topic string, _ any) error {
	r.topics = append(r.topics, topic)
	return r.err
}

func (r *recordingPublisher) Close() error {
	r.closed = true
	return r.err
}

func TestMultiPublisher(t *testing.T) {
	boom := errors.New("boom")
	failing := &recordingPublisher{err: boom}
	ok := &recordingPublisher{}

	m := NewMultiPublisher(failing, nil, ok)

	err := m.Publish(context.Background(), TopicSnapshotCreated, SnapshotCreated{})
	if !errors.Is(err, boom) {
		t.Fatalf("Publish error = %v, want %v", err, boom)
	}
	if len(ok.topics) != 1 || ok.topics[0] != TopicSnapshotCreated {
		t.Errorf("second publisher got %v, want one %s event", ok.topics, TopicSnapshotCreated)
	}

	if err := m.Close(); !errors.Is(err, boom) {
		t.Fatalf("Close error = %v, want %v", err, boom)
	}
	if !failing.closed || !ok.closed {
		t.Error("expected every publisher to be closed")
	}
}

func TestMultiPublisher_Empty(t *testing.T) {
	m := NewMultiPublisher()
	if err := m.Publish(context.Background(), TopicDocumentSaved, DocumentSaved{}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
