// Package speaker defines the Speaker record and its persistence contract.
//
// A speaker is identified by their exact name; the name is the unique key in
// every [Store] implementation. Looking up an unknown name is not an error —
// it is the normal "new speaker" branch of the authoring flow — so [Store.Find]
// reports presence with a boolean instead of a sentinel error.
package speaker

import (
	"context"
	"errors"
)

// ErrEmptyName is returned by Upsert when the speaker has no name.
var ErrEmptyName = errors.New("speaker: name must not be empty")

// Speaker is a named person that phrases are attributed to. ImageRef is an
// opaque transport-level reference to the speaker's picture (empty when the
// speaker has none). Setting ImageRef later does not change identity.
type Speaker struct {
	Name     string `json:"name" yaml:"name"`
	ImageRef string `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
}

// HasImage reports whether an image reference has been attached.
func (s Speaker) HasImage() bool {
	return s.ImageRef != ""
}

// Store persists speakers, keyed by exact name.
// Implementations must be safe for concurrent use; each Upsert call must be
// atomic (concurrent upserts for the same name converge to last-write-wins,
// never a partial record) and idempotent for unchanged records.
type Store interface {
	// List returns all stored speakers ordered by name.
	List(ctx context.Context) ([]Speaker, error)

	// Find looks up a speaker by exact, case-sensitive name.
	// Returns (zero, false, nil) when the name is not stored.
	Find(ctx context.Context, name string) (Speaker, bool, error)

	// Upsert creates or replaces the record for s.Name, persisting durably
	// before returning.
	Upsert(ctx context.Context, s Speaker) error
}
