package common

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mediascribe/mediascribe/pkg/utils"
)

// SuccessResp writes the payload with success=true merged in.
func SuccessResp(c *gin.Context, data gin.H) {
	SuccessStatusResp(c, http.StatusOK, data)
}

func SuccessStatusResp(c *gin.Context, status int, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["success"] = true
	c.JSON(status, data)
}

// ErrorStrResp writes a failure envelope with a plain message.
func ErrorStrResp(c *gin.Context, msg string, status int) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// ErrorResp logs server-side failures before answering.
func ErrorResp(c *gin.Context, err error, status int) {
	if status >= http.StatusInternalServerError {
		utils.Log.Errorf("request %s %s failed: %+v", c.Request.Method, c.Request.URL.Path, err)
	}
	ErrorStrResp(c, err.Error(), status)
}
