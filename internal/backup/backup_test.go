package backup

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/claude/fittrack/internal/models"
	"github.com/claude/fittrack/internal/store"
)

func seed(t *testing.T, gw store.Gateway) (profileID string) {
	t.Helper()
	ctx := context.Background()

	data, _ := json.Marshal(models.Profile{Name: "main"})
	profileID, err := gw.Create(ctx, store.ProfilesPath("local"), data)
	if err != nil {
		t.Fatal(err)
	}

	data, _ = json.Marshal(models.Workout{Date: "2024-03-01"})
	if _, err := gw.Create(ctx, store.CollectionPath("local", profileID, store.CollectionWorkouts), data); err != nil {
		t.Fatal(err)
	}
	data, _ = json.Marshal(models.WeightEntry{Date: "2024-03-01", Weight: 180})
	if _, err := gw.Create(ctx, store.CollectionPath("local", profileID, store.CollectionWeightLog), data); err != nil {
		t.Fatal(err)
	}
	return profileID
}

func TestExportRestoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	src := store.NewMemory()
	profileID := seed(t, src)

	var buf bytes.Buffer
	if err := New(src, "local", log, false).Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := store.NewMemory()
	stats, err := New(dst, "local", log, false).Restore(ctx, &buf)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if stats.ProfilesRestored != 1 || stats.DocumentsRestored != 2 {
		t.Errorf("stats = %+v, want 1 profile and 2 documents restored", stats)
	}

	profiles, err := dst.List(ctx, store.ProfilesPath("local"))
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 1 || profiles[0].ID != profileID {
		t.Errorf("restored profiles = %+v, want id %s preserved", profiles, profileID)
	}

	workouts, err := dst.List(ctx, store.CollectionPath("local", profileID, store.CollectionWorkouts))
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 1 {
		t.Errorf("len(workouts) = %d, want 1", len(workouts))
	}
}

func TestRestoreSkipsExisting(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	src := store.NewMemory()
	seed(t, src)

	var buf bytes.Buffer
	if err := New(src, "local", log, false).Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	// Restoring into the source itself must be a no-op.
	stats, err := New(src, "local", log, false).Restore(ctx, bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if stats.ProfilesRestored != 0 || stats.DocumentsRestored != 0 {
		t.Errorf("stats = %+v, want everything skipped", stats)
	}
	if stats.ProfilesSkipped != 1 || stats.DocumentsSkipped != 2 {
		t.Errorf("stats = %+v, want 1 profile and 2 documents skipped", stats)
	}
}

func TestRestoreDryRunWritesNothing(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	src := store.NewMemory()
	seed(t, src)

	var buf bytes.Buffer
	if err := New(src, "local", log, false).Export(ctx, &buf); err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := store.NewMemory()
	stats, err := New(dst, "local", log, true).Restore(ctx, &buf)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if stats.ProfilesRestored != 1 || stats.DocumentsRestored != 2 {
		t.Errorf("stats = %+v, want counts reported in dry run", stats)
	}

	profiles, err := dst.List(ctx, store.ProfilesPath("local"))
	if err != nil {
		t.Fatal(err)
	}
	if len(profiles) != 0 {
		t.Errorf("dry run wrote %d profiles, want 0", len(profiles))
	}
}

func TestRestoreRejectsMalformedSnapshot(t *testing.T) {
	log := slog.New(slog.DiscardHandler)
	dst := store.NewMemory()
	if _, err := New(dst, "local", log, false).Restore(context.Background(), bytes.NewReader([]byte("{broken"))); err == nil {
		t.Error("expected error for malformed snapshot")
	}
}
