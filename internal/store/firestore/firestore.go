// Package firestore implements the document gateway on Cloud Firestore.
// Unlike the SQL drivers it gets live snapshot delivery from the backend
// itself, so subscriptions survive writes from other service instances.
package firestore

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/claude/fittrack/internal/store"
)

// Store is a Cloud Firestore-backed store.Gateway.
type Store struct {
	client *firestore.Client
}

// Open connects to the project's Firestore database. Credentials come from
// the ambient environment (ADC), as on Cloud Run.
func Open(ctx context.Context, projectID string) (*Store, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) List(ctx context.Context, path string) ([]store.Document, error) {
	iter := s.client.Collection(path).OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var docs []store.Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", path, err)
		}
		doc, err := toDocument(snap)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store) Create(ctx context.Context, path string, data json.RawMessage) (string, error) {
	fields, err := toFields(data)
	if err != nil {
		return "", err
	}
	ref, _, err := s.client.Collection(path).Add(ctx, fields)
	if err != nil {
		return "", fmt.Errorf("creating in %s: %w", path, err)
	}
	return ref.ID, nil
}

// Put upserts a document under a caller-chosen id.
func (s *Store) Put(ctx context.Context, path, id string, data json.RawMessage) error {
	fields, err := toFields(data)
	if err != nil {
		return err
	}
	if _, err := s.client.Collection(path).Doc(id).Set(ctx, fields); err != nil {
		return fmt.Errorf("putting %s/%s: %w", path, id, err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, path, id string, data json.RawMessage) error {
	fields, err := toFields(data)
	if err != nil {
		return err
	}
	ref := s.client.Collection(path).Doc(id)

	// Set replaces the whole body, so check existence first to keep the
	// gateway's not-found contract.
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return store.ErrNotFound
		}
		return fmt.Errorf("fetching %s/%s: %w", path, id, err)
	}
	if _, err := ref.Set(ctx, fields); err != nil {
		return fmt.Errorf("updating %s/%s: %w", path, id, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, path, id string) error {
	ref := s.client.Collection(path).Doc(id)
	if _, err := ref.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return store.ErrNotFound
		}
		return fmt.Errorf("fetching %s/%s: %w", path, id, err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", path, id, err)
	}
	return nil
}

// DeleteMatching removes every matching document in a single Firestore
// transaction, so the whole set commits or none of it does.
func (s *Store) DeleteMatching(ctx context.Context, path string, match func(store.Document) bool) (int, error) {
	docs, err := s.List(ctx, path)
	if err != nil {
		return 0, err
	}

	var ids []string
	for _, d := range docs {
		if match(d) {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	coll := s.client.Collection(path)
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for _, id := range ids {
			if err := tx.Delete(coll.Doc(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("deleting %d documents from %s: %w", len(ids), path, err)
	}
	return len(ids), nil
}

// Subscribe streams the collection through Firestore's native snapshot
// listener. Each backend change re-delivers the full collection; the
// channel keeps only the latest undelivered snapshot.
func (s *Store) Subscribe(ctx context.Context, path string) (<-chan []store.Document, func(), error) {
	subCtx, cancelCtx := context.WithCancel(ctx)
	snaps := s.client.Collection(path).Snapshots(subCtx)

	out := make(chan []store.Document, 1)
	cancel := func() {
		cancelCtx()
		snaps.Stop()
	}

	// The first snapshot is fetched synchronously so a bad path or dead
	// connection fails the subscribe call itself.
	first, err := snaps.Next()
	if err != nil {
		cancel()
		return nil, nil, fmt.Errorf("subscribing to %s: %w", path, err)
	}
	docs, err := snapshotDocs(first)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	out <- docs

	go func() {
		for {
			snap, err := snaps.Next()
			if err != nil {
				return // cancelled or stream broken
			}
			docs, err := snapshotDocs(snap)
			if err != nil {
				continue
			}
			select {
			case <-out:
			default:
			}
			out <- docs
		}
	}()

	return out, cancel, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func snapshotDocs(snap *firestore.QuerySnapshot) ([]store.Document, error) {
	var docs []store.Document
	for {
		d, err := snap.Documents.Next()
		if err == iterator.Done {
			return docs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading snapshot: %w", err)
		}
		doc, err := toDocument(d)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
}

func toDocument(snap *firestore.DocumentSnapshot) (store.Document, error) {
	data, err := json.Marshal(snap.Data())
	if err != nil {
		return store.Document{}, fmt.Errorf("encoding document %s: %w", snap.Ref.ID, err)
	}
	return store.Document{ID: snap.Ref.ID, Data: data}, nil
}

func toFields(data json.RawMessage) (map[string]any, error) {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("decoding document body: %w", err)
	}
	return fields, nil
}

var _ store.Gateway = (*Store)(nil)
