package handles

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mediascribe/mediascribe/internal/conf"
	"github.com/mediascribe/mediascribe/internal/db"
	"github.com/mediascribe/mediascribe/internal/errs"
	"github.com/mediascribe/mediascribe/internal/model"
	"github.com/mediascribe/mediascribe/server/common"
)

func formatMediaEntry(m *model.Media) gin.H {
	entry := gin.H{
		"id":             m.ID,
		"bv_number":      m.BVID,
		"title":          m.Title,
		"author":         m.Author,
		"thumbnail_path": m.ThumbnailPath,
		"download_date":  m.CreatedAt,
		"status":         m.Status,
		"duration":       m.Duration,
		"resolution":     m.Resolution,
		"tags":           m.Tags,
		"model_size":     modelSizeFromMetadata(m.Metadata),
	}
	if t, err := db.GetLatestTranscript(m.ID); err == nil {
		entry["transcription"] = gin.H{
			"id":      t.ID,
			"engine":  t.Engine,
			"date":    t.CreatedAt,
			"excerpt": excerpt(t.Text, 100),
		}
	} else {
		entry["transcription"] = nil
	}
	return entry
}

// ListMedia pages through records, optionally filtered by tag.
func ListMedia(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	tagID, _ := strconv.ParseUint(c.DefaultQuery("tag_id", "0"), 10, 64)

	records, total, err := db.ListMedia(limit, offset, "download_date DESC", uint(tagID))
	if err != nil {
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}

	videos := make([]gin.H, 0, len(records))
	for i := range records {
		videos = append(videos, formatMediaEntry(&records[i]))
	}
	common.SuccessResp(c, gin.H{"total": total, "videos": videos})
}

// RecentMedia returns the newest records.
func RecentMedia(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))

	records, _, err := db.ListMedia(limit, 0, "download_date DESC", 0)
	if err != nil {
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}

	videos := make([]gin.H, 0, len(records))
	for i := range records {
		videos = append(videos, formatMediaEntry(&records[i]))
	}
	common.SuccessResp(c, gin.H{"videos": videos})
}

// MediaDetail returns one record with its latest transcript and tags.
func MediaDetail(c *gin.Context) {
	m, ok := mediaFromParam(c)
	if !ok {
		return
	}

	var metadata map[string]any
	if m.Metadata != "" {
		_ = json.Unmarshal([]byte(m.Metadata), &metadata)
	}
	tags, err := db.GetMediaTags(m.ID)
	if err != nil {
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}

	video := gin.H{
		"id":                 m.ID,
		"bv_number":          m.BVID,
		"title":              m.Title,
		"author":             m.Author,
		"url":                conf.URLBase + m.BVID,
		"thumbnail_path":     m.ThumbnailPath,
		"video_path":         m.VideoPath,
		"audio_path":         m.AudioPath,
		"download_date":      m.CreatedAt,
		"status":             m.Status,
		"duration":           m.Duration,
		"formatted_duration": formatDuration(m.Duration),
		"resolution":         m.Resolution,
		"tags":               tags,
		"metadata":           metadata,
	}

	var transcription gin.H
	if t, err := db.GetLatestTranscript(m.ID); err == nil {
		transcription = gin.H{
			"id":         t.ID,
			"engine":     t.Engine,
			"model_size": modelSizeFromMetadata(m.Metadata),
			"date":       t.CreatedAt,
			"confidence": t.Confidence,
			"text":       t.Text,
		}
	} else if m.Status == conf.StatusTranscribed {
		common.ErrorStrResp(c, "transcript not found", http.StatusNotFound)
		return
	}

	common.SuccessResp(c, gin.H{"video": video, "transcription": transcription})
}

type updateContentReq struct {
	Text string `json:"text"`
}

// UpdateTranscriptContent appends a new transcript row; rows are never
// edited in place so the history stays auditable.
func UpdateTranscriptContent(c *gin.Context) {
	m, ok := mediaFromParam(c)
	if !ok {
		return
	}

	var req updateContentReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Text == "" {
		common.ErrorStrResp(c, "missing transcript text", http.StatusBadRequest)
		return
	}

	engine := "manual"
	var confidence *float64
	if prev, err := db.GetLatestTranscript(m.ID); err == nil {
		engine = prev.Engine
		confidence = prev.Confidence
	}

	id, err := db.AddTranscript(m.ID, req.Text, engine, confidence)
	if err != nil {
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, gin.H{
		"message":          "transcript updated",
		"transcription_id": id,
	})
}

// DeleteMedia removes the record, its transcripts and associations.
func DeleteMedia(c *gin.Context) {
	m, ok := mediaFromParam(c)
	if !ok {
		return
	}
	if err := db.DeleteMedia(m.ID); err != nil {
		if errs.IsNotFound(err) {
			common.ErrorStrResp(c, "video not found", http.StatusNotFound)
			return
		}
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, gin.H{"message": "record deleted"})
}

func mediaFromParam(c *gin.Context) (*model.Media, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		common.ErrorStrResp(c, "invalid id", http.StatusBadRequest)
		return nil, false
	}
	m, err := db.GetMedia(uint(id))
	if err != nil {
		if errs.IsNotFound(err) {
			common.ErrorStrResp(c, "video not found", http.StatusNotFound)
		} else {
			common.ErrorResp(c, err, http.StatusInternalServerError)
		}
		return nil, false
	}
	return m, true
}

func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}

func modelSizeFromMetadata(blob string) string {
	if blob == "" {
		return ""
	}
	var meta struct {
		Transcription struct {
			ModelSize string `json:"model_size"`
		} `json:"transcription"`
	}
	if err := json.Unmarshal([]byte(blob), &meta); err != nil {
		return ""
	}
	return meta.Transcription.ModelSize
}

func formatDuration(seconds float64) string {
	if seconds <= 0 {
		return "unknown"
	}
	s := int(seconds)
	h, s := s/3600, s%3600
	m, s := s/60, s%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
