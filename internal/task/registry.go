package task

import (
	"fmt"
	"sync"
	"time"

	"github.com/mediascribe/mediascribe/internal/errs"
)

type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Snapshot is an immutable copy of one task's state. Readers never see
// the live entry the pipeline is mutating.
type Snapshot struct {
	ID        string
	BVID      string
	MediaID   uint
	Status    Status
	Stage     string
	StageName string
	Message   string
	Progress  float64
	StartedAt time.Time
	StageAt   time.Time
	EndedAt   time.Time
	Details   map[string]any
}

func (s Snapshot) Elapsed(now time.Time) float64 {
	end := s.EndedAt
	if end.IsZero() {
		end = now
	}
	return end.Sub(s.StartedAt).Seconds()
}

type entry struct {
	Snapshot
	evictAt time.Time
}

// Registry owns the live state of every submitted job. All mutation
// goes through the registry mutex; stage callbacks from the job
// goroutine and HTTP readers never touch an entry directly.
type Registry struct {
	mu        sync.RWMutex
	tasks     map[string]*entry
	active    map[string]string // bvid -> task id while processing
	retention time.Duration
	now       func() time.Time
}

func NewRegistry(retention time.Duration) *Registry {
	if retention <= 0 {
		retention = time.Hour
	}
	return &Registry{
		tasks:     make(map[string]*entry),
		active:    make(map[string]string),
		retention: retention,
		now:       time.Now,
	}
}

// Create registers a new processing task for bvid. At most one task
// per bvid may be processing at a time; the duplicate check and the
// insert happen under one lock.
func (r *Registry) Create(bvid string, mediaID uint) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.active[bvid]; ok {
		if t, ok := r.tasks[id]; ok && t.Status == StatusProcessing {
			return id, errs.ErrDuplicateActiveJob
		}
		delete(r.active, bvid)
	}

	now := r.now()
	id := fmt.Sprintf("%s_%d", bvid, now.Unix())
	if _, exists := r.tasks[id]; exists {
		id = fmt.Sprintf("%s_%d", bvid, now.UnixNano())
	}
	r.tasks[id] = &entry{Snapshot: Snapshot{
		ID:        id,
		BVID:      bvid,
		MediaID:   mediaID,
		Status:    StatusProcessing,
		Stage:     StageDownloading,
		StageName: StageName(StageDownloading),
		Message:   "task accepted",
		StartedAt: now,
		StageAt:   now,
	}}
	r.active[bvid] = id
	return id, nil
}

// Update applies one stage progress event. Overall progress only ever
// moves forward while the task is processing; a recomputed value below
// the stored one is clamped to the stored one.
func (r *Registry) Update(id, stage, message string, stageProgress float64, details map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.Status != StatusProcessing {
		return
	}

	if stage != t.Stage {
		t.Stage = stage
		t.StageName = StageName(stage)
		t.StageAt = r.now()
	}
	if message != "" {
		t.Message = message
	}
	if overall := Overall(stage, stageProgress); overall > t.Progress {
		t.Progress = overall
	}
	if len(details) > 0 {
		if t.Details == nil {
			t.Details = make(map[string]any, len(details))
		}
		for k, v := range details {
			t.Details[k] = v
		}
	}
}

// MarkTerminal moves a task to completed or failed exactly once and
// schedules its eviction.
func (r *Registry) MarkTerminal(id string, status Status, message string) {
	if status != StatusCompleted && status != StatusFailed {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.Status != StatusProcessing {
		return
	}

	now := r.now()
	t.Status = status
	t.Message = message
	t.EndedAt = now
	t.evictAt = now.Add(r.retention)
	if status == StatusCompleted {
		t.Stage = StageCompleted
		t.StageName = StageName(StageCompleted)
		t.Progress = 1
	} else {
		t.StageName = StageName(t.Stage)
	}
	delete(r.active, t.BVID)
}

// Get returns a snapshot of the task, with its own details map.
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return Snapshot{}, false
	}
	return t.copySnapshot(), true
}

// ActiveByBVID returns the processing task for a bvid, if any.
func (r *Registry) ActiveByBVID(bvid string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.active[bvid]
	if !ok {
		return Snapshot{}, false
	}
	t, ok := r.tasks[id]
	if !ok {
		return Snapshot{}, false
	}
	return t.copySnapshot(), true
}

// Evict drops a terminal task from memory. In-flight tasks are never
// evicted; durable state survives in the store either way.
func (r *Registry) Evict(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evictLocked(id)
}

func (r *Registry) evictLocked(id string) {
	t, ok := r.tasks[id]
	if !ok || t.Status == StatusProcessing {
		return
	}
	delete(r.tasks, id)
}

// Sweep evicts every terminal task whose retention deadline has
// passed and reports how many were removed.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, t := range r.tasks {
		if t.Status != StatusProcessing && !t.evictAt.IsZero() && now.After(t.evictAt) {
			delete(r.tasks, id)
			n++
		}
	}
	return n
}

// Len reports how many tasks are held in memory.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}

func (e *entry) copySnapshot() Snapshot {
	s := e.Snapshot
	if e.Details != nil {
		s.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			s.Details[k] = v
		}
	}
	return s
}
