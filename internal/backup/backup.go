// Package backup snapshots a user's full document tree to a portable
// JSON file and restores it into any store driver. Restores are
// additive and id-preserving, so moving data between drivers (say
// sqlite to postgres) is an export on one side and an import on the
// other.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/fittrack/internal/store"
)

// Stats tracks restore progress.
type Stats struct {
	ProfilesRestored  int
	ProfilesSkipped   int
	DocumentsRestored int
	DocumentsSkipped  int
}

// Snapshot is the on-disk backup format.
type Snapshot struct {
	User       string            `json:"user"`
	ExportedAt time.Time         `json:"exportedAt"`
	Profiles   []ProfileSnapshot `json:"profiles"`
}

// ProfileSnapshot is one profile and its collections.
type ProfileSnapshot struct {
	ID          string                      `json:"id"`
	Data        json.RawMessage             `json:"data"`
	Collections map[string][]store.Document `json:"collections"`
}

// collections lists every per-profile collection carried in a snapshot.
var collections = []string{store.CollectionWorkouts, store.CollectionWeightLog, store.CollectionPlans}

// Runner exports and restores snapshots against a document gateway.
type Runner struct {
	gw     store.Gateway
	log    *slog.Logger
	user   string
	dryRun bool
}

// New creates a Runner. With dryRun set, Restore reports counts without
// writing to the store.
func New(gw store.Gateway, user string, log *slog.Logger, dryRun bool) *Runner {
	return &Runner{gw: gw, log: log, user: user, dryRun: dryRun}
}

// Export writes the user's full document tree to w.
func (r *Runner) Export(ctx context.Context, w io.Writer) error {
	snap := Snapshot{User: r.user, ExportedAt: time.Now().UTC(), Profiles: []ProfileSnapshot{}}

	profiles, err := r.gw.List(ctx, store.ProfilesPath(r.user))
	if err != nil {
		return fmt.Errorf("listing profiles: %w", err)
	}
	for _, p := range profiles {
		ps := ProfileSnapshot{ID: p.ID, Data: p.Data, Collections: map[string][]store.Document{}}
		for _, name := range collections {
			docs, err := r.gw.List(ctx, store.CollectionPath(r.user, p.ID, name))
			if err != nil {
				return fmt.Errorf("listing %s for profile %s: %w", name, p.ID, err)
			}
			ps.Collections[name] = docs
		}
		snap.Profiles = append(snap.Profiles, ps)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	r.log.Info("export complete", "profiles", len(snap.Profiles))
	return nil
}

// Restore reads a snapshot from rd and inserts every document that is
// not already present. Existing documents are never overwritten, so a
// restore on top of live data is safe to re-run.
func (r *Runner) Restore(ctx context.Context, rd io.Reader) (*Stats, error) {
	var snap Snapshot
	if err := json.NewDecoder(rd).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot: %w", err)
	}

	stats := &Stats{}
	existing, err := r.existingIDs(ctx, store.ProfilesPath(r.user))
	if err != nil {
		return stats, err
	}

	for _, ps := range snap.Profiles {
		if existing[ps.ID] {
			stats.ProfilesSkipped++
			r.log.Info("skipping existing profile", "id", ps.ID)
		} else {
			stats.ProfilesRestored++
			if !r.dryRun {
				if err := r.gw.Put(ctx, store.ProfilesPath(r.user), ps.ID, ps.Data); err != nil {
					return stats, fmt.Errorf("restoring profile %s: %w", ps.ID, err)
				}
			}
		}

		for _, name := range collections {
			if err := r.restoreCollection(ctx, stats, store.CollectionPath(r.user, ps.ID, name), ps.Collections[name]); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

func (r *Runner) restoreCollection(ctx context.Context, stats *Stats, path string, docs []store.Document) error {
	existing, err := r.existingIDs(ctx, path)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if existing[d.ID] {
			stats.DocumentsSkipped++
			continue
		}
		stats.DocumentsRestored++
		if r.dryRun {
			continue
		}
		if err := r.gw.Put(ctx, path, d.ID, d.Data); err != nil {
			return fmt.Errorf("restoring document %s in %s: %w", d.ID, path, err)
		}
	}
	return nil
}

func (r *Runner) existingIDs(ctx context.Context, path string) (map[string]bool, error) {
	docs, err := r.gw.List(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", path, err)
	}
	ids := make(map[string]bool, len(docs))
	for _, d := range docs {
		ids[d.ID] = true
	}
	return ids, nil
}
