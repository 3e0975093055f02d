package task

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mediascribe/mediascribe/internal/errs"
)

// TestRegistryCreateDeduplicates rejects a second task for a bvid that
// is still processing and hands back the existing id.
func TestRegistryCreateDeduplicates(t *testing.T) {
	r := NewRegistry(time.Hour)

	id1, err := r.Create("BV1xx411c7mD", 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	id2, err := r.Create("BV1xx411c7mD", 1)
	if !errors.Is(err, errs.ErrDuplicateActiveJob) {
		t.Fatalf("err = %v, want ErrDuplicateActiveJob", err)
	}
	if id2 != id1 {
		t.Fatalf("duplicate create returned %q, want existing %q", id2, id1)
	}

	// a different bvid is unaffected
	if _, err := r.Create("BV2yy422d8nE", 2); err != nil {
		t.Fatalf("create second bvid: %v", err)
	}
}

// TestRegistryCreateAfterTerminal allows a fresh job once the previous
// one reached a terminal status.
func TestRegistryCreateAfterTerminal(t *testing.T) {
	r := NewRegistry(time.Hour)
	now := time.Unix(1700000000, 0)
	r.now = func() time.Time { now = now.Add(time.Second); return now }

	id1, err := r.Create("BV1xx411c7mD", 1)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	r.MarkTerminal(id1, StatusFailed, "download failed")

	id2, err := r.Create("BV1xx411c7mD", 1)
	if err != nil {
		t.Fatalf("create after failure: %v", err)
	}
	if id2 == id1 {
		t.Fatal("retry should create a new task id")
	}
	if snap, _ := r.Get(id2); snap.Progress != 0 {
		t.Fatalf("new task progress = %v, want 0", snap.Progress)
	}
}

// TestRegistryProgressMonotonic verifies overall progress never moves
// backwards while processing, whatever order updates arrive in.
func TestRegistryProgressMonotonic(t *testing.T) {
	r := NewRegistry(time.Hour)
	id, _ := r.Create("BV1xx411c7mD", 1)

	updates := []struct {
		stage string
		p     float64
	}{
		{StageDownloading, 0.5},
		{StageDownloading, 0.9},
		{StageDownloading, 0.2}, // regression must clamp
		{StageExtracting, 0.0},
		{StageTranscribing, 0.1},
		{StageDownloading, 1.0}, // stale late event
		{StageTranscribing, 0.8},
		{StageFinalizing, 1.0},
	}

	last := 0.0
	for _, u := range updates {
		r.Update(id, u.stage, "", u.p, nil)
		snap, ok := r.Get(id)
		if !ok {
			t.Fatal("task disappeared")
		}
		if snap.Progress < last {
			t.Fatalf("progress regressed: %v -> %v after %+v", last, snap.Progress, u)
		}
		last = snap.Progress
	}
}

// TestRegistrySnapshotIsolated mutating a returned snapshot's details
// must not leak into the registry.
func TestRegistrySnapshotIsolated(t *testing.T) {
	r := NewRegistry(time.Hour)
	id, _ := r.Create("BV1xx411c7mD", 1)
	r.Update(id, StageDownloading, "downloading", 0.1, map[string]any{"speed": "1MB/s"})

	snap, _ := r.Get(id)
	snap.Details["speed"] = "tampered"
	snap.Details["extra"] = true

	again, _ := r.Get(id)
	if again.Details["speed"] != "1MB/s" {
		t.Fatalf("details leaked: %v", again.Details)
	}
	if _, ok := again.Details["extra"]; ok {
		t.Fatal("snapshot map is shared with the live entry")
	}
}

// TestRegistryTerminalOnce later updates and a second terminal call
// must not change a finished task.
func TestRegistryTerminalOnce(t *testing.T) {
	r := NewRegistry(time.Hour)
	id, _ := r.Create("BV1xx411c7mD", 1)

	r.MarkTerminal(id, StatusCompleted, "done")
	r.Update(id, StageDownloading, "late event", 0.1, nil)
	r.MarkTerminal(id, StatusFailed, "should be ignored")

	snap, _ := r.Get(id)
	if snap.Status != StatusCompleted || snap.Progress != 1 {
		t.Fatalf("snapshot = %+v, want completed at 1.0", snap)
	}
	if snap.Message != "done" {
		t.Fatalf("message = %q, want %q", snap.Message, "done")
	}
}

// TestRegistryEvictRules never evicts in-flight tasks; sweep honors
// the retention deadline.
func TestRegistryEvictRules(t *testing.T) {
	r := NewRegistry(time.Hour)
	id, _ := r.Create("BV1xx411c7mD", 1)

	r.Evict(id)
	if _, ok := r.Get(id); !ok {
		t.Fatal("processing task was evicted")
	}

	r.MarkTerminal(id, StatusCompleted, "done")
	if n := r.Sweep(time.Now()); n != 0 {
		t.Fatalf("sweep before deadline evicted %d", n)
	}
	if n := r.Sweep(time.Now().Add(2 * time.Hour)); n != 1 {
		t.Fatalf("sweep after deadline evicted %d, want 1", n)
	}
	if _, ok := r.Get(id); ok {
		t.Fatal("task still present after sweep")
	}

	// second evict is a no-op
	r.Evict(id)
}

// TestRegistryConcurrentReaders hammers Get while a writer streams
// updates; run with -race.
func TestRegistryConcurrentReaders(t *testing.T) {
	r := NewRegistry(time.Hour)
	id, _ := r.Create("BV1xx411c7mD", 1)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			r.Update(id, StageTranscribing, "chunk", float64(i)/500, map[string]any{"i": i})
		}
		r.MarkTerminal(id, StatusCompleted, "done")
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if snap, ok := r.Get(id); ok && (snap.Progress < 0 || snap.Progress > 1) {
				t.Errorf("progress out of range: %v", snap.Progress)
				return
			}
		}
	}()
	wg.Wait()
}
