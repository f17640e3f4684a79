// Package storage implements the Storage Facade (C10): a write-through
// persistence layer over seven key-value collections (beads, tasks,
// settings, releases, metrics, drafts, attachments). Every mutation updates in-memory state
// synchronously so reads never touch disk; a single background actor
// snapshots dirty collections to baseDir on a fixed interval and on
// Flush, giving a durability contract of "at most ~1s of mutations lost
// on abrupt termination."
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"autotundra/internal/domain"
	"autotundra/internal/shared/logging"
)

// Collection names one of the facade's seven key-value collections.
type Collection string

const (
	CollectionBeads       Collection = "beads"
	CollectionTasks       Collection = "tasks"
	CollectionSettings    Collection = "settings"
	CollectionReleases    Collection = "releases"
	CollectionMetrics     Collection = "metrics"
	CollectionDrafts      Collection = "drafts"
	CollectionAttachments Collection = "attachments"
)

// schemaVersion is bumped whenever the on-disk snapshot shape changes.
// migrate is idempotent: re-running it against an already-current baseDir
// is a no-op.
const schemaVersion = 1

// flushInterval bounds how long a mutation can go unpersisted before the
// background actor picks it up, per §4.10's durability contract.
const flushInterval = 250 * time.Millisecond

// readCacheCapacity bounds the facade's marshaled-JSON read cache (used by
// the HTTP surface to avoid re-marshaling on every poll of a hot id).
const readCacheCapacity = 2048

// MetricSample is one point-in-time entry in the metrics collection; Payload
// is left loose since LETS snapshots, per-task cost summaries, and ad hoc
// counters all land here.
type MetricSample struct {
	ID         string         `json:"id"`
	CapturedAt time.Time      `json:"captured_at"`
	Payload    map[string]any `json:"payload"`
}

// Facade is the single persistence boundary every other component writes
// through. Zero value is not usable — construct with New.
type Facade struct {
	mu sync.RWMutex

	beads       map[string]*domain.Bead
	tasks       map[string]*domain.Task
	settings    map[string]string
	releases    map[string]*domain.Release
	metrics     []MetricSample
	drafts      map[string]*domain.TaskDraft
	attachments map[string]*domain.Attachment

	dirty map[Collection]bool

	cache *lru.Cache[string, []byte]

	baseDir string
	log     logging.Logger

	flushSignal chan struct{}
	stop        chan struct{}
	stopped     chan struct{}
}

// New constructs a Facade rooted at baseDir, loading any existing snapshot
// and starting the background flush actor. baseDir is created if absent.
func New(baseDir string, log logging.Logger) (*Facade, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create base dir: %w", err)
	}
	cache, err := lru.New[string, []byte](readCacheCapacity)
	if err != nil {
		return nil, fmt.Errorf("storage: new read cache: %w", err)
	}

	f := &Facade{
		beads:       make(map[string]*domain.Bead),
		tasks:       make(map[string]*domain.Task),
		settings:    make(map[string]string),
		releases:    make(map[string]*domain.Release),
		drafts:      make(map[string]*domain.TaskDraft),
		attachments: make(map[string]*domain.Attachment),
		dirty:       make(map[Collection]bool),
		cache:       cache,
		baseDir:     baseDir,
		log:         logging.OrNop(log),
		flushSignal: make(chan struct{}, 1),
		stop:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}

	if err := f.migrate(); err != nil {
		return nil, err
	}
	if err := f.loadAll(); err != nil {
		return nil, err
	}

	go f.runActor()
	return f, nil
}

// migrate writes the current schema_version marker if none exists yet.
// Idempotent: a baseDir already at schemaVersion is left untouched.
func (f *Facade) migrate() error {
	path := filepath.Join(f.baseDir, "schema_version")
	data, err := os.ReadFile(path)
	if err == nil {
		var existing int
		if _, scanErr := fmt.Sscanf(string(data), "%d", &existing); scanErr == nil && existing == schemaVersion {
			return nil
		}
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", schemaVersion)), 0o644)
}

func (f *Facade) collectionPath(c Collection) string {
	return filepath.Join(f.baseDir, string(c)+".json")
}

func (f *Facade) loadAll() error {
	if err := loadInto(f.collectionPath(CollectionBeads), &f.beads); err != nil {
		return err
	}
	if err := loadInto(f.collectionPath(CollectionTasks), &f.tasks); err != nil {
		return err
	}
	if err := loadInto(f.collectionPath(CollectionSettings), &f.settings); err != nil {
		return err
	}
	if err := loadInto(f.collectionPath(CollectionReleases), &f.releases); err != nil {
		return err
	}
	if err := loadInto(f.collectionPath(CollectionMetrics), &f.metrics); err != nil {
		return err
	}
	if err := loadInto(f.collectionPath(CollectionDrafts), &f.drafts); err != nil {
		return err
	}
	if err := loadInto(f.collectionPath(CollectionAttachments), &f.attachments); err != nil {
		return err
	}
	return nil
}

func loadInto(path string, dest any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("storage: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("storage: decode %s: %w", path, err)
	}
	return nil
}

// runActor is the single-writer persistence loop: it wakes on a fixed
// interval or an explicit flush signal, snapshots every dirty collection,
// and exits after one final flush once stop is closed.
func (f *Facade) runActor() {
	defer close(f.stopped)
	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.persistDirty()
		case <-f.flushSignal:
			f.persistDirty()
		case <-f.stop:
			f.persistDirty()
			return
		}
	}
}

func (f *Facade) persistDirty() {
	f.mu.Lock()
	toPersist := make([]Collection, 0, len(f.dirty))
	for c, isDirty := range f.dirty {
		if isDirty {
			toPersist = append(toPersist, c)
		}
	}
	for _, c := range toPersist {
		f.dirty[c] = false
	}
	f.mu.Unlock()

	for _, c := range toPersist {
		if err := f.persistCollection(c); err != nil {
			f.log.Warn("storage: persist failed", "collection", c, "error", err)
			f.mu.Lock()
			f.dirty[c] = true
			f.mu.Unlock()
		}
	}
}

func (f *Facade) persistCollection(c Collection) error {
	f.mu.RLock()
	var data []byte
	var err error
	switch c {
	case CollectionBeads:
		data, err = json.Marshal(f.beads)
	case CollectionTasks:
		data, err = json.Marshal(f.tasks)
	case CollectionSettings:
		data, err = json.Marshal(f.settings)
	case CollectionReleases:
		data, err = json.Marshal(f.releases)
	case CollectionMetrics:
		data, err = json.Marshal(f.metrics)
	case CollectionDrafts:
		data, err = json.Marshal(f.drafts)
	case CollectionAttachments:
		data, err = json.Marshal(f.attachments)
	}
	f.mu.RUnlock()
	if err != nil {
		return err
	}

	tmp := f.collectionPath(c) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.collectionPath(c))
}

func (f *Facade) markDirty(c Collection) {
	f.mu.Lock()
	f.dirty[c] = true
	f.mu.Unlock()
	select {
	case f.flushSignal <- struct{}{}:
	default:
	}
}

// Flush blocks until every pending mutation is durably written to baseDir.
func (f *Facade) Flush() {
	select {
	case f.flushSignal <- struct{}{}:
	default:
	}
	// Give the actor a chance to observe the signal and persist; a second
	// direct persist call guarantees durability even if the actor was mid
	// tick and coalesced the signal.
	time.Sleep(5 * time.Millisecond)
	f.persistDirty()
}

// Close stops the background actor after a final flush. Safe to call once.
func (f *Facade) Close() {
	close(f.stop)
	<-f.stopped
}

func (f *Facade) invalidate(key string) {
	f.cache.Remove(key)
}

// --- Beads ---

// PutBead upserts b, updating in-memory state synchronously and scheduling
// an async persist.
func (f *Facade) PutBead(b *domain.Bead) {
	f.mu.Lock()
	f.beads[b.ID] = b
	f.mu.Unlock()
	f.invalidate("bead:" + b.ID)
	f.markDirty(CollectionBeads)
}

// GetBead returns the bead registered under id, if any.
func (f *Facade) GetBead(id string) (*domain.Bead, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	b, ok := f.beads[id]
	return b, ok
}

// GetBeadJSON returns id's marshaled representation, computing and caching
// it on first access; the cache entry is invalidated on the next PutBead or
// DeleteBead for the same id.
func (f *Facade) GetBeadJSON(id string) ([]byte, bool) {
	key := "bead:" + id
	if data, ok := f.cache.Get(key); ok {
		return data, true
	}
	b, ok := f.GetBead(id)
	if !ok {
		return nil, false
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, false
	}
	f.cache.Add(key, data)
	return data, true
}

// ListBeads returns every bead currently held, in no particular order.
func (f *Facade) ListBeads() []*domain.Bead {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*domain.Bead, 0, len(f.beads))
	for _, b := range f.beads {
		out = append(out, b)
	}
	return out
}

// DeleteBead removes id, if present.
func (f *Facade) DeleteBead(id string) {
	f.mu.Lock()
	delete(f.beads, id)
	f.mu.Unlock()
	f.invalidate("bead:" + id)
	f.markDirty(CollectionBeads)
}

// --- Tasks ---

// PutTask upserts t.
func (f *Facade) PutTask(t *domain.Task) {
	f.mu.Lock()
	f.tasks[t.ID] = t
	f.mu.Unlock()
	f.invalidate("task:" + t.ID)
	f.markDirty(CollectionTasks)
}

// GetTask returns the task registered under id, if any.
func (f *Facade) GetTask(id string) (*domain.Task, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t, ok := f.tasks[id]
	return t, ok
}

// ListTasks returns every task currently held, in no particular order.
func (f *Facade) ListTasks() []*domain.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*domain.Task, 0, len(f.tasks))
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out
}

// DeleteTask removes id, if present.
func (f *Facade) DeleteTask(id string) {
	f.mu.Lock()
	delete(f.tasks, id)
	f.mu.Unlock()
	f.invalidate("task:" + id)
	f.markDirty(CollectionTasks)
}

// --- Settings ---

// SetSetting upserts key=value.
func (f *Facade) SetSetting(key, value string) {
	f.mu.Lock()
	f.settings[key] = value
	f.mu.Unlock()
	f.markDirty(CollectionSettings)
}

// GetSetting returns key's value, if set.
func (f *Facade) GetSetting(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.settings[key]
	return v, ok
}

// --- Releases ---

// PutRelease upserts r.
func (f *Facade) PutRelease(r *domain.Release) {
	f.mu.Lock()
	f.releases[r.ID] = r
	f.mu.Unlock()
	f.markDirty(CollectionReleases)
}

// GetRelease returns the release registered under id, if any.
func (f *Facade) GetRelease(id string) (*domain.Release, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	r, ok := f.releases[id]
	return r, ok
}

// ListReleases returns every release currently held, in no particular order.
func (f *Facade) ListReleases() []*domain.Release {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*domain.Release, 0, len(f.releases))
	for _, r := range f.releases {
		out = append(out, r)
	}
	return out
}

// --- Metrics ---

// RecordMetric appends a sample to the metrics collection. No eviction —
// callers that want bounded retention roll their own cutoff via
// PruneMetricsBefore.
func (f *Facade) RecordMetric(id string, payload map[string]any) {
	sample := MetricSample{ID: id, CapturedAt: time.Now(), Payload: payload}
	f.mu.Lock()
	f.metrics = append(f.metrics, sample)
	f.mu.Unlock()
	f.markDirty(CollectionMetrics)
}

// ListMetrics returns every retained metric sample in insertion order.
func (f *Facade) ListMetrics() []MetricSample {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]MetricSample, len(f.metrics))
	copy(out, f.metrics)
	return out
}

// PruneMetricsBefore discards samples captured before cutoff, returning how
// many were removed.
func (f *Facade) PruneMetricsBefore(cutoff time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.metrics[:0]
	removed := 0
	for _, m := range f.metrics {
		if m.CapturedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	f.metrics = kept
	if removed > 0 {
		f.dirty[CollectionMetrics] = true
	}
	return removed
}

// --- Drafts ---

// PutDraft upserts d.
func (f *Facade) PutDraft(d *domain.TaskDraft) {
	f.mu.Lock()
	f.drafts[d.ID] = d
	f.mu.Unlock()
	f.markDirty(CollectionDrafts)
}

// GetDraft returns the draft registered under id, if any.
func (f *Facade) GetDraft(id string) (*domain.TaskDraft, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	d, ok := f.drafts[id]
	return d, ok
}

// ListDrafts returns every draft currently held, in no particular order.
func (f *Facade) ListDrafts() []*domain.TaskDraft {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]*domain.TaskDraft, 0, len(f.drafts))
	for _, d := range f.drafts {
		out = append(out, d)
	}
	return out
}

// DeleteDraft removes id, if present.
func (f *Facade) DeleteDraft(id string) {
	f.mu.Lock()
	delete(f.drafts, id)
	f.mu.Unlock()
	f.markDirty(CollectionDrafts)
}

// --- Attachments ---

// PutAttachment upserts a.
func (f *Facade) PutAttachment(a *domain.Attachment) {
	f.mu.Lock()
	f.attachments[a.ID] = a
	f.mu.Unlock()
	f.markDirty(CollectionAttachments)
}

// GetAttachment returns the attachment registered under id, if any.
func (f *Facade) GetAttachment(id string) (*domain.Attachment, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	a, ok := f.attachments[id]
	return a, ok
}

// ListAttachmentsForTask returns every attachment registered against taskID.
func (f *Facade) ListAttachmentsForTask(taskID string) []*domain.Attachment {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []*domain.Attachment
	for _, a := range f.attachments {
		if a.TaskID == taskID {
			out = append(out, a)
		}
	}
	return out
}

// DeleteAttachment removes id, if present.
func (f *Facade) DeleteAttachment(id string) {
	f.mu.Lock()
	delete(f.attachments, id)
	f.mu.Unlock()
	f.markDirty(CollectionAttachments)
}
