package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"autotundra/internal/domain"
)

func TestPutGetListDeleteBead(t *testing.T) {
	f, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	b := &domain.Bead{ID: "b1", Title: "fix the thing", Lane: domain.LaneStandard, Status: domain.BeadBacklog}
	f.PutBead(b)

	got, ok := f.GetBead("b1")
	if !ok || got.Title != "fix the thing" {
		t.Fatalf("GetBead = %+v, %v", got, ok)
	}
	if len(f.ListBeads()) != 1 {
		t.Fatalf("expected 1 bead, got %d", len(f.ListBeads()))
	}

	f.DeleteBead("b1")
	if _, ok := f.GetBead("b1"); ok {
		t.Fatal("expected bead deleted")
	}
}

func TestGetBeadJSONCachesAndInvalidates(t *testing.T) {
	f, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	b := &domain.Bead{ID: "b1", Title: "v1"}
	f.PutBead(b)

	data1, ok := f.GetBeadJSON("b1")
	if !ok {
		t.Fatal("expected JSON for b1")
	}

	f.PutBead(&domain.Bead{ID: "b1", Title: "v2"})
	data2, ok := f.GetBeadJSON("b1")
	if !ok {
		t.Fatal("expected JSON for b1 after update")
	}
	if string(data1) == string(data2) {
		t.Fatalf("expected cache invalidated after PutBead, got identical bytes: %s", data2)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	f, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	f.SetSetting("theme", "dark")
	v, ok := f.GetSetting("theme")
	if !ok || v != "dark" {
		t.Fatalf("GetSetting = %q, %v", v, ok)
	}
	if _, ok := f.GetSetting("missing"); ok {
		t.Fatal("expected missing setting to be absent")
	}
}

func TestFlushPersistsToDisk(t *testing.T) {
	dir := t.TempDir()
	f, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	f.PutTask(&domain.Task{ID: "t1", Title: "demo"})
	f.Flush()
	f.Close()

	data, err := os.ReadFile(filepath.Join(dir, "tasks.json"))
	if err != nil {
		t.Fatalf("expected tasks.json on disk: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty tasks.json")
	}
}

func TestNewReloadsExistingSnapshot(t *testing.T) {
	dir := t.TempDir()
	f1, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f1.PutBead(&domain.Bead{ID: "b1", Title: "persisted"})
	f1.Flush()
	f1.Close()

	f2, err := New(dir, nil)
	if err != nil {
		t.Fatalf("New (reload): %v", err)
	}
	defer f2.Close()

	b, ok := f2.GetBead("b1")
	if !ok || b.Title != "persisted" {
		t.Fatalf("expected reloaded bead, got %+v, %v", b, ok)
	}
}

func TestMetricsRecordListAndPrune(t *testing.T) {
	f, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	f.RecordMetric("lets-snapshot", map[string]any{"throughput_tps": 12.5})
	if len(f.ListMetrics()) != 1 {
		t.Fatalf("expected 1 metric, got %d", len(f.ListMetrics()))
	}

	removed := f.PruneMetricsBefore(time.Now().Add(time.Hour))
	if removed != 1 {
		t.Fatalf("expected 1 removed metric, got %d", removed)
	}
	if len(f.ListMetrics()) != 0 {
		t.Fatal("expected metrics empty after prune")
	}
}

func TestReleasesRoundTrip(t *testing.T) {
	f, err := New(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer f.Close()

	r := &domain.Release{ID: "r1", Version: "1.2.0", Notes: "bugfixes"}
	f.PutRelease(r)

	got, ok := f.GetRelease("r1")
	if !ok || got.Version != "1.2.0" {
		t.Fatalf("GetRelease = %+v, %v", got, ok)
	}
	if len(f.ListReleases()) != 1 {
		t.Fatalf("expected 1 release, got %d", len(f.ListReleases()))
	}
}
