// Package store defines the document gateway the rest of the service
// persists through. A gateway holds flat collections of JSON documents
// addressed by opaque ids; collection paths scope records per user and
// profile so no component ever reads across scopes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned when an id does not exist in a collection.
var ErrNotFound = errors.New("document not found")

// Document is one stored record: an opaque id plus its JSON body. The body
// never embeds the id.
type Document struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// Gateway is the document store contract. Updates are full replacements of
// the document body; the last writer wins, with no conflict detection.
// DeleteMatching removes every matching document in one atomic operation,
// so a partial failure can never leave a collection half-deleted.
//
// Subscribe delivers the full collection snapshot immediately and again on
// every change. A slow consumer only ever misses intermediate snapshots,
// never the latest one. The returned cancel func must be called on
// teardown; it is safe to call more than once.
type Gateway interface {
	List(ctx context.Context, path string) ([]Document, error)
	Create(ctx context.Context, path string, data json.RawMessage) (string, error)
	// Put inserts a document under a caller-chosen id, replacing any
	// existing body. Backup restores use it to keep ids stable across
	// drivers.
	Put(ctx context.Context, path, id string, data json.RawMessage) error
	Update(ctx context.Context, path, id string, data json.RawMessage) error
	Delete(ctx context.Context, path, id string) error
	DeleteMatching(ctx context.Context, path string, match func(Document) bool) (int, error)
	Subscribe(ctx context.Context, path string) (<-chan []Document, func(), error)
	Close() error
}

// ProfilesPath is the collection holding a user's profiles.
func ProfilesPath(user string) string {
	return fmt.Sprintf("users/%s/profiles", user)
}

// Collection names scoped under a profile.
const (
	CollectionWorkouts  = "workouts"
	CollectionWeightLog = "weightLog"
	CollectionPlans     = "workout_plans"
)

// CollectionPath is the path of one of a profile's record collections.
func CollectionPath(user, profile, name string) string {
	return fmt.Sprintf("users/%s/profiles/%s/%s", user, profile, name)
}
