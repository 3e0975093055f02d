package handles

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediascribe/mediascribe/internal/db"
	"github.com/mediascribe/mediascribe/server/common"
)

// ExportTranscript writes the latest transcript of a record as a file
// download in txt, md or json form.
func ExportTranscript(c *gin.Context) {
	m, ok := mediaFromParam(c)
	if !ok {
		return
	}
	t, err := db.GetLatestTranscript(m.ID)
	if err != nil {
		common.ErrorStrResp(c, "no transcript for this video", http.StatusNotFound)
		return
	}

	format := c.DefaultQuery("format", "txt")
	stamp := time.Now().Format("20060102150405")
	filename := fmt.Sprintf("%s_%s.%s", m.BVID, stamp, format)

	var body []byte
	var contentType string
	switch format {
	case "txt":
		contentType = "text/plain; charset=utf-8"
		body = []byte(t.Text)
	case "md":
		contentType = "text/markdown; charset=utf-8"
		body = []byte(fmt.Sprintf(
			"# %s\n\n- Author: %s\n- BV: %s\n- Duration: %s\n- Engine: %s\n- Transcribed: %s\n\n---\n\n%s\n",
			m.Title, m.Author, m.BVID, formatDuration(m.Duration),
			t.Engine, t.CreatedAt.Format("2006-01-02 15:04:05"), t.Text,
		))
	case "json":
		contentType = "application/json; charset=utf-8"
		payload := gin.H{
			"video": gin.H{
				"id":        m.ID,
				"bv_number": m.BVID,
				"title":     m.Title,
				"author":    m.Author,
				"duration":  m.Duration,
			},
			"transcription": gin.H{
				"id":         t.ID,
				"engine":     t.Engine,
				"date":       t.CreatedAt,
				"confidence": t.Confidence,
				"text":       t.Text,
			},
			"exported_at": time.Now(),
		}
		body, err = json.MarshalIndent(payload, "", "  ")
		if err != nil {
			common.ErrorResp(c, err, http.StatusInternalServerError)
			return
		}
	default:
		common.ErrorStrResp(c, "unsupported format: "+format, http.StatusBadRequest)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, body)
}
