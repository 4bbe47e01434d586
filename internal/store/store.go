package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Load when no document has been saved yet.
	ErrNotFound = errors.New("document not found")

	// ErrCorrupt is returned by Load when the persisted blob does not decode
	// to a JSON array.
	ErrCorrupt = errors.New("document is corrupt")

	// ErrNotArray is returned by ParseDocument for input that is not a JSON array.
	ErrNotArray = errors.New("document must be a JSON array")
)

// Document is the ordered list of records. Records are opaque JSON values.
type Document []json.RawMessage

// Store defines the persistence interface for the record document.
type Store interface {
	// Load returns the persisted document, ErrNotFound when none exists, or an
	// error wrapping ErrCorrupt when the blob cannot be decoded as an array.
	Load(ctx context.Context) (Document, error)

	// Save replaces the persisted document entirely.
	Save(ctx context.Context, doc Document) error

	// Path returns the location of the persisted document.
	Path() string
}

// ParseDocument decodes raw into a Document. Anything but a JSON array,
// including null and an absent value, yields ErrNotArray.
func ParseDocument(raw json.RawMessage) (Document, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}
	doc := Document{}
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArray, err)
	}
	return doc, nil
}

// Encode serializes doc the way it is persisted: indented by two spaces.
func Encode(doc Document) ([]byte, error) {
	if doc == nil {
		doc = Document{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}
