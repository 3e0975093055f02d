package handles

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/mediascribe/mediascribe/internal/conf"
	"github.com/mediascribe/mediascribe/internal/db"
	"github.com/mediascribe/mediascribe/internal/download"
	"github.com/mediascribe/mediascribe/internal/errs"
	"github.com/mediascribe/mediascribe/internal/pipeline"
	"github.com/mediascribe/mediascribe/internal/task"
	"github.com/mediascribe/mediascribe/server/common"
)

// Wired by server.Init before the router starts serving.
var (
	Orchestrator *pipeline.Orchestrator
	Registry     *task.Registry
)

type submitReq struct {
	BVNumber  string `json:"bv_number"`
	Engine    string `json:"engine"`
	ModelSize string `json:"model_size"`
	Prompt    string `json:"prompt"`
}

// SubmitTranscription accepts a job and answers immediately; the work
// itself runs in the background.
func SubmitTranscription(c *gin.Context) {
	var req submitReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.BVNumber) == "" {
		common.ErrorStrResp(c, "missing bv_number", http.StatusBadRequest)
		return
	}

	bvid := download.NormalizeBVID(req.BVNumber)
	if existing, err := db.GetMediaByBVID(bvid); err == nil && existing.Status == conf.StatusTranscribed {
		common.SuccessResp(c, gin.H{
			"message":  "this video is already transcribed",
			"video_id": existing.ID,
			"status":   "completed",
		})
		return
	}

	acc, err := Orchestrator.Submit(pipeline.Submission{
		BVID:      bvid,
		Engine:    req.Engine,
		ModelSize: req.ModelSize,
		Prompt:    req.Prompt,
	})
	switch {
	case errors.Is(err, errs.ErrDuplicateActiveJob):
		common.SuccessResp(c, gin.H{
			"message":  "a job for this video is already running",
			"task_id":  acc.TaskID,
			"video_id": acc.MediaID,
			"status":   string(task.StatusProcessing),
		})
		return
	case errors.Is(err, errs.ErrTooManyJobs):
		common.ErrorStrResp(c, err.Error(), http.StatusTooManyRequests)
		return
	case err != nil:
		common.ErrorResp(c, err, http.StatusBadRequest)
		return
	}

	common.SuccessStatusResp(c, http.StatusAccepted, gin.H{
		"message":    "transcription job accepted",
		"task_id":    acc.TaskID,
		"video_id":   acc.MediaID,
		"status":     string(task.StatusProcessing),
		"stage":      task.StageDownloading,
		"stage_name": task.StageName(task.StageDownloading),
	})
}

// TaskStatus reports the live snapshot of a task. After eviction the
// durable record still answers for terminal jobs: the task id keeps
// its bvid prefix exactly so this fallback can find the row.
func TaskStatus(c *gin.Context) {
	id := c.Param("id")

	if snap, ok := Registry.Get(id); ok {
		resp := gin.H{
			"status":       string(snap.Status),
			"stage":        snap.Stage,
			"stage_name":   snap.StageName,
			"message":      snap.Message,
			"elapsed_time": snap.Elapsed(time.Now()),
			"progress":     snap.Progress,
			"video_id":     snap.MediaID,
		}
		if len(snap.Details) > 0 {
			resp["details"] = snap.Details
		}
		common.SuccessResp(c, resp)
		return
	}

	if bvid, _, ok := strings.Cut(id, "_"); ok {
		if m, err := db.GetMediaByBVID(bvid); err == nil {
			progress := 0.0
			if m.Status == conf.StatusTranscribed {
				progress = 1.0
			}
			common.SuccessResp(c, gin.H{
				"status":   m.Status,
				"video_id": m.ID,
				"progress": progress,
			})
			return
		}
	}

	common.ErrorStrResp(c, "task not found", http.StatusNotFound)
}
