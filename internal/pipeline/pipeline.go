package pipeline

import (
	"context"

	"github.com/mediascribe/mediascribe/internal/db"
	"github.com/mediascribe/mediascribe/internal/download"
	"github.com/mediascribe/mediascribe/internal/extract"
	"github.com/mediascribe/mediascribe/internal/model"
	"github.com/mediascribe/mediascribe/internal/transcribe"
)

// Event is one stage progress report flowing from a stage to the task
// registry. Stages only ever see the event channel; the registry
// update mechanics live in a single consumer.
type Event struct {
	Stage    string
	Message  string
	Progress float64
	Details  map[string]any
}

// Downloader acquires a media item by business key.
type Downloader interface {
	Download(ctx context.Context, bvid string, report download.ProgressFunc) (*download.Result, error)
}

// Extractor derives the audio track from the acquired file.
type Extractor interface {
	Extract(ctx context.Context, videoPath string, report extract.ProgressFunc) (*extract.Result, error)
}

// EngineFactory resolves a transcription engine by name at submission
// time. Unknown names fail before a task is created.
type EngineFactory func(name string, opts transcribe.Options) (transcribe.Engine, error)

// Store is the slice of the persistence layer the pipeline writes
// through, narrowed for testability.
type Store interface {
	UpsertMedia(m *model.Media) (uint, error)
	UpdateMedia(id uint, updates map[string]any) error
	AddTranscript(mediaID uint, text, engine string, confidence *float64) (uint, error)
}

type dbStore struct{}

func (dbStore) UpsertMedia(m *model.Media) (uint, error) { return db.UpsertMedia(m) }
func (dbStore) UpdateMedia(id uint, updates map[string]any) error {
	return db.UpdateMedia(id, updates)
}
func (dbStore) AddTranscript(mediaID uint, text, engine string, confidence *float64) (uint, error) {
	return db.AddTranscript(mediaID, text, engine, confidence)
}
