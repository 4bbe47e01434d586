package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alfredjeanlab/reasons/internal/vcs"
)

// mockRepository records snapshots in memory. Stage reads the document from
// disk so that identical saves are detected the way git detects them.
type mockRepository struct {
	dir     string
	index   map[string]string
	head    map[string]string
	commits []vcs.Commit // oldest first
	remotes map[string]bool

	stageErr  error
	diffErr   error
	commitErr error
	logErr    error
	remoteErr error
}

func newMockRepository(dir string) *mockRepository {
	return &mockRepository{
		dir:     dir,
		index:   make(map[string]string),
		head:    make(map[string]string),
		remotes: make(map[string]bool),
	}
}

func (m *mockRepository) Stage(_ context.Context, path string) error {
	if m.stageErr != nil {
		return m.stageErr
	}
	data, err := os.ReadFile(filepath.Join(m.dir, path))
	if err != nil {
		return fmt.Errorf("pathspec %q did not match any files: %w", path, err)
	}
	m.index[path] = string(data)
	return nil
}

func (m *mockRepository) HasStagedChanges(_ context.Context, path string) (bool, error) {
	if m.diffErr != nil {
		return false, m.diffErr
	}
	staged, ok := m.index[path]
	if !ok {
		return false, nil
	}
	committed, ok := m.head[path]
	return !ok || committed != staged, nil
}

func (m *mockRepository) Commit(_ context.Context, path, message string) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	if _, ok := m.index[path]; !ok {
		return errors.New("nothing staged")
	}
	m.head[path] = m.index[path]
	m.commits = append(m.commits, vcs.Commit{
		Hash:    fmt.Sprintf("%07x", len(m.commits)+1),
		Message: message,
	})
	return nil
}

func (m *mockRepository) Log(_ context.Context, limit int) ([]vcs.Commit, error) {
	if m.logErr != nil {
		return nil, m.logErr
	}
	if len(m.commits) == 0 {
		return nil, errors.New("your current branch does not have any commits yet")
	}
	var out []vcs.Commit
	for i := len(m.commits) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.commits[i])
	}
	return out, nil
}

func (m *mockRepository) HasRemote(_ context.Context, name string) (bool, error) {
	if m.remoteErr != nil {
		return false, m.remoteErr
	}
	return m.remotes[name], nil
}
