package handles

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/mediascribe/mediascribe/internal/db"
	"github.com/mediascribe/mediascribe/internal/errs"
	"github.com/mediascribe/mediascribe/server/common"
)

const defaultTagColor = "#3498db"

// ListTags returns every tag, sorted by name.
func ListTags(c *gin.Context) {
	tags, err := db.ListTags()
	if err != nil {
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, gin.H{"tags": tags})
}

type tagReq struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func CreateTag(c *gin.Context) {
	var req tagReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		common.ErrorStrResp(c, "missing tag name", http.StatusBadRequest)
		return
	}
	if req.Color == "" {
		req.Color = defaultTagColor
	}

	id, err := db.CreateTag(strings.TrimSpace(req.Name), req.Color)
	if err != nil {
		if errors.Is(err, errs.ErrTagExists) {
			common.ErrorStrResp(c, err.Error(), http.StatusBadRequest)
			return
		}
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessStatusResp(c, http.StatusCreated, gin.H{
		"message": "tag created",
		"tag_id":  id,
	})
}

func UpdateTag(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	var req tagReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorStrResp(c, "invalid request body", http.StatusBadRequest)
		return
	}
	updates := map[string]any{}
	if strings.TrimSpace(req.Name) != "" {
		updates["name"] = strings.TrimSpace(req.Name)
	}
	if req.Color != "" {
		updates["color"] = req.Color
	}

	if err := db.UpdateTag(id, updates); err != nil {
		if errs.IsNotFound(err) {
			common.ErrorStrResp(c, "tag not found", http.StatusNotFound)
			return
		}
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, gin.H{"message": "tag updated"})
}

func DeleteTag(c *gin.Context) {
	id, ok := uintParam(c, "id")
	if !ok {
		return
	}
	if err := db.DeleteTag(id); err != nil {
		if errs.IsNotFound(err) {
			common.ErrorStrResp(c, "tag not found", http.StatusNotFound)
			return
		}
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, gin.H{"message": "tag deleted"})
}

// GetMediaTags lists the tags of one media record.
func GetMediaTags(c *gin.Context) {
	m, ok := mediaFromParam(c)
	if !ok {
		return
	}
	tags, err := db.GetMediaTags(m.ID)
	if err != nil {
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, gin.H{"video_id": m.ID, "tags": tags})
}

type setTagsReq struct {
	Tags []uint `json:"tags"`
}

// SetMediaTags reconciles the record's tag set to exactly the ids in
// the request.
func SetMediaTags(c *gin.Context) {
	m, ok := mediaFromParam(c)
	if !ok {
		return
	}
	var req setTagsReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Tags == nil {
		common.ErrorStrResp(c, "missing tags", http.StatusBadRequest)
		return
	}
	if err := db.SetMediaTags(m.ID, req.Tags); err != nil {
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, gin.H{"message": "tags updated", "video_id": m.ID})
}

// AddMediaTag attaches one tag; a duplicate add is a no-op.
func AddMediaTag(c *gin.Context) {
	m, ok := mediaFromParam(c)
	if !ok {
		return
	}
	tagID, ok := uintParam(c, "tagID")
	if !ok {
		return
	}
	if err := db.AddTagToMedia(m.ID, tagID); err != nil {
		if errs.IsNotFound(err) {
			common.ErrorStrResp(c, "tag not found", http.StatusNotFound)
			return
		}
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, gin.H{"message": "tag added", "video_id": m.ID, "tag_id": tagID})
}

func RemoveMediaTag(c *gin.Context) {
	m, ok := mediaFromParam(c)
	if !ok {
		return
	}
	tagID, ok := uintParam(c, "tagID")
	if !ok {
		return
	}
	if err := db.RemoveTagFromMedia(m.ID, tagID); err != nil {
		if errs.IsNotFound(err) {
			common.ErrorStrResp(c, "tag not associated with this video", http.StatusBadRequest)
			return
		}
		common.ErrorResp(c, err, http.StatusInternalServerError)
		return
	}
	common.SuccessResp(c, gin.H{"message": "tag removed", "video_id": m.ID, "tag_id": tagID})
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		common.ErrorStrResp(c, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return uint(v), true
}
