package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mediascribe/mediascribe/internal/conf"
	"github.com/mediascribe/mediascribe/internal/download"
	"github.com/mediascribe/mediascribe/internal/errs"
	"github.com/mediascribe/mediascribe/internal/extract"
	"github.com/mediascribe/mediascribe/internal/model"
	"github.com/mediascribe/mediascribe/internal/task"
	"github.com/mediascribe/mediascribe/internal/transcribe"
	"github.com/mediascribe/mediascribe/pkg/utils"
)

// Submission is one transcription request.
type Submission struct {
	BVID      string
	Engine    string
	ModelSize string
	Prompt    string
}

// Accepted references the task and the durable record of a submission.
type Accepted struct {
	TaskID  string
	MediaID uint
}

// Orchestrator runs each accepted job through download, extraction,
// transcription and finalization on its own goroutine. A fixed slot
// pool bounds how many jobs run at once; submissions beyond the bound
// are rejected rather than queued.
type Orchestrator struct {
	registry   *task.Registry
	store      Store
	downloader Downloader
	extractor  Extractor
	engines    EngineFactory
	slots      chan struct{}
	wg         sync.WaitGroup
}

func New(registry *task.Registry, dl Downloader, ex Extractor, engines EngineFactory, workers int) *Orchestrator {
	if workers <= 0 {
		workers = 2
	}
	return &Orchestrator{
		registry:   registry,
		store:      dbStore{},
		downloader: dl,
		extractor:  ex,
		engines:    engines,
		slots:      make(chan struct{}, workers),
	}
}

// Submit validates the request, creates the durable stub and the task,
// and starts the background job. A bvid that is already processing
// returns the existing reference together with ErrDuplicateActiveJob.
// Submit never blocks on the job itself.
func (o *Orchestrator) Submit(sub Submission) (*Accepted, error) {
	bvid := download.NormalizeBVID(sub.BVID)
	if bvid == "" {
		return nil, errors.New("bv_number is required")
	}

	eng, err := o.engines(sub.Engine, transcribe.Options{ModelSize: sub.ModelSize, Prompt: sub.Prompt})
	if err != nil {
		return nil, err
	}

	if active, ok := o.registry.ActiveByBVID(bvid); ok {
		return &Accepted{TaskID: active.ID, MediaID: active.MediaID}, errs.ErrDuplicateActiveJob
	}

	select {
	case o.slots <- struct{}{}:
	default:
		return nil, errs.ErrTooManyJobs
	}

	release := func() { <-o.slots }

	mediaID, err := o.store.UpsertMedia(&model.Media{
		BVID:   bvid,
		Title:  fmt.Sprintf("Transcribing... (%s)", bvid),
		Status: conf.StatusProcessing,
	})
	if err != nil {
		release()
		return nil, err
	}
	// re-submission after a failure reuses the row; reset its status
	if err := o.store.UpdateMedia(mediaID, map[string]any{"status": conf.StatusProcessing}); err != nil {
		release()
		return nil, err
	}

	taskID, err := o.registry.Create(bvid, mediaID)
	if err != nil {
		release()
		if errors.Is(err, errs.ErrDuplicateActiveJob) {
			return &Accepted{TaskID: taskID, MediaID: mediaID}, err
		}
		return nil, err
	}

	o.wg.Add(1)
	go o.run(taskID, mediaID, bvid, eng, sub)

	return &Accepted{TaskID: taskID, MediaID: mediaID}, nil
}

// Wait blocks until every running job has reached a terminal status.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) run(taskID string, mediaID uint, bvid string, eng transcribe.Engine, sub Submission) {
	defer o.wg.Done()
	defer func() { <-o.slots }()

	// jobs outlive the submitting request; never tie them to its context
	ctx := context.Background()

	events := make(chan Event, 16)
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		for ev := range events {
			o.registry.Update(taskID, ev.Stage, ev.Message, ev.Progress, ev.Details)
		}
	}()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				utils.Log.Errorf("job %s panicked: %v", taskID, r)
				err = errs.NewStageError(task.StageFailed, errors.Errorf("unexpected error: %v", r))
			}
		}()
		return o.execute(ctx, events, mediaID, bvid, eng, sub)
	}()
	close(events)
	<-consumed

	if err != nil {
		utils.Log.Errorf("job %s failed: %v", taskID, err)
		o.registry.MarkTerminal(taskID, task.StatusFailed, err.Error())
		// the failed stub stays durable so the failure is auditable
		if derr := o.store.UpdateMedia(mediaID, map[string]any{
			"status": conf.StatusFailed,
			"title":  fmt.Sprintf("Transcription failed (%s)", bvid),
		}); derr != nil {
			utils.Log.Errorf("job %s: cannot persist failure: %v", taskID, derr)
		}
		return
	}

	o.registry.MarkTerminal(taskID, task.StatusCompleted, "processing complete")
	utils.Log.Infof("job %s completed", taskID)
}

// execute runs the stages strictly in sequence; the first failure
// wins and is tagged with its stage.
func (o *Orchestrator) execute(ctx context.Context, events chan<- Event, mediaID uint, bvid string, eng transcribe.Engine, sub Submission) error {
	report := func(stage string) func(float64, string) {
		return func(p float64, msg string) {
			events <- Event{Stage: stage, Progress: p, Message: msg}
		}
	}

	dl, err := o.downloader.Download(ctx, bvid, report(task.StageDownloading))
	if err != nil {
		return errs.NewStageError(task.StageDownloading, err)
	}

	ex, err := o.extractor.Extract(ctx, dl.VideoPath, report(task.StageExtracting))
	if err != nil {
		return errs.NewStageError(task.StageExtracting, err)
	}

	tr, err := eng.Transcribe(ctx, ex.AudioPath, report(task.StageTranscribing))
	if err != nil {
		return errs.NewStageError(task.StageTranscribing, err)
	}

	report(task.StageFinalizing)(0.5, "saving results")
	updates, blobErr := finalUpdates(bvid, dl, ex, eng.Name(), sub, tr.Summary)
	if blobErr != nil {
		return errs.NewStageError(task.StageFinalizing, blobErr)
	}
	if err := o.store.UpdateMedia(mediaID, updates); err != nil {
		return errs.NewStageError(task.StageFinalizing, err)
	}
	if _, err := o.store.AddTranscript(mediaID, tr.Text, eng.Name(), nil); err != nil {
		return errs.NewStageError(task.StageFinalizing, err)
	}
	report(task.StageFinalizing)(1, "results saved")
	return nil
}

// finalUpdates assembles the media column patch plus the metadata
// blob persisted alongside it.
func finalUpdates(bvid string, dl *download.Result, ex *extract.Result, engine string, sub Submission, summary string) (map[string]any, error) {
	title := fmt.Sprintf("Untitled (%s)", bvid)
	author := ""
	description := ""
	duration := 0.0
	var stats map[string]int64
	if dl.Meta != nil {
		if dl.Meta.Title != "" {
			title = dl.Meta.Title
		}
		author = dl.Meta.Author
		description = dl.Meta.Description
		duration = dl.Meta.Duration
		stats = dl.Meta.Stats
	}
	resolution := ""
	if dl.Info != nil {
		resolution = dl.Info.Resolution
		if duration == 0 {
			duration = dl.Info.Duration
		}
	}

	meta := map[string]any{
		"bv_number":    bvid,
		"title":        title,
		"author":       author,
		"url":          conf.URLBase + bvid,
		"duration":     duration,
		"description":  description,
		"process_date": time.Now().Format(time.RFC3339),
		"stats":        stats,
		"files": map[string]any{
			"video_path":     dl.VideoPath,
			"audio_path":     ex.AudioPath,
			"thumbnail_path": dl.ThumbnailPath,
		},
		"transcription": map[string]any{
			"engine":     engine,
			"model_size": sub.ModelSize,
			"summary":    summary,
		},
	}
	blob, err := json.Marshal(meta)
	if err != nil {
		return nil, errors.Wrap(err, "cannot encode metadata")
	}

	return map[string]any{
		"title":          title,
		"author":         author,
		"video_path":     dl.VideoPath,
		"audio_path":     ex.AudioPath,
		"thumbnail_path": dl.ThumbnailPath,
		"duration":       duration,
		"resolution":     resolution,
		"metadata":       string(blob),
	}, nil
}
