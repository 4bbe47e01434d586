// Package client talks to a running reasons server over its HTTP/JSON API.
package client

import (
	"encoding/json"
	"fmt"

	"github.com/alfredjeanlab/reasons/internal/snapshot"
	"github.com/alfredjeanlab/reasons/internal/vcs"
)

// Status is the GET /api/status response.
type Status struct {
	HasRemote bool         `json:"hasRemote"`
	Commits   []vcs.Commit `json:"commits"`
}

// Health is the GET /api/health response.
type Health struct {
	Snapshots snapshot.Stats `json:"snapshots"`
}

// APIError is returned for non-2xx responses and for 200 responses whose
// body reports ok:false.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// envelope is the shape shared by every API response.
type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type saveRequest struct {
	Reasons json.RawMessage `json:"reasons"`
	Message string          `json:"message,omitempty"`
}

type versionRequest struct {
	Reasons json.RawMessage `json:"reasons"`
	Label   string          `json:"label,omitempty"`
}
