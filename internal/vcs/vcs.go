// Package vcs is the narrow version-control surface the snapshot recorder and
// history reporter need: stage a file, tell whether the index differs from
// HEAD, commit, list recent commits, and detect a configured remote.
package vcs

import "context"

// DefaultRemote is the conventional name of the synchronization remote.
const DefaultRemote = "origin"

// Commit is one entry of the one-line history.
type Commit struct {
	Hash    string `json:"hash"`
	Message string `json:"message"`
}

// Repository is the set of version-control operations used for snapshots.
// Paths are relative to the repository working directory.
type Repository interface {
	// Stage adds the current content of path to the index.
	Stage(ctx context.Context, path string) error

	// HasStagedChanges reports whether the staged content of path differs
	// from the last commit.
	HasStagedChanges(ctx context.Context, path string) (bool, error)

	// Commit records the staged content of path with the given message.
	Commit(ctx context.Context, path, message string) error

	// Log returns at most limit commits, newest first.
	Log(ctx context.Context, limit int) ([]Commit, error)

	// HasRemote reports whether a remote with the given name is configured.
	HasRemote(ctx context.Context, name string) (bool, error)
}
