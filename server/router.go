package server

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mediascribe/mediascribe/internal/conf"
	"github.com/mediascribe/mediascribe/internal/pipeline"
	"github.com/mediascribe/mediascribe/internal/task"
	"github.com/mediascribe/mediascribe/server/common"
	"github.com/mediascribe/mediascribe/server/handles"
)

// Init wires the handlers to their collaborators and mounts all routes
// on the engine.
func Init(e *gin.Engine, o *pipeline.Orchestrator, reg *task.Registry) {
	handles.Orchestrator = o
	handles.Registry = reg

	api := e.Group("/api")
	{
		api.POST("/transcribe", handles.SubmitTranscription)
		api.GET("/task/:id", handles.TaskStatus)

		api.GET("/transcriptions", handles.ListMedia)
		api.GET("/transcriptions/recent", handles.RecentMedia)
		api.GET("/transcription/:id", handles.MediaDetail)
		api.PUT("/transcription/:id/content", handles.UpdateTranscriptContent)
		api.DELETE("/transcription/:id", handles.DeleteMedia)
		api.GET("/transcription/:id/export", handles.ExportTranscript)

		api.GET("/tags", handles.ListTags)
		api.POST("/tags", handles.CreateTag)
		api.PUT("/tags/:id", handles.UpdateTag)
		api.DELETE("/tags/:id", handles.DeleteTag)

		api.GET("/transcription/:id/tags", handles.GetMediaTags)
		api.PUT("/transcription/:id/tags", handles.SetMediaTags)
		api.POST("/transcription/:id/tags/:tagID", handles.AddMediaTag)
		api.DELETE("/transcription/:id/tags/:tagID", handles.RemoveMediaTag)
	}

	e.GET("/output/*filepath", serveOutput)

	e.NoRoute(func(c *gin.Context) {
		common.ErrorStrResp(c, "not found", http.StatusNotFound)
	})
}

// serveOutput serves downloaded media and thumbnails from the output
// directory. The requested path is cleaned and must stay inside the
// directory.
func serveOutput(c *gin.Context) {
	rel := strings.TrimPrefix(c.Param("filepath"), "/")
	clean := filepath.Clean(rel)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		common.ErrorStrResp(c, "invalid path", http.StatusBadRequest)
		return
	}
	c.File(filepath.Join(conf.Conf.OutputDir, clean))
}
