package common

import (
	"github.com/gin-gonic/gin"
)

// OK writes {ok:true, data, ...extra} with the given status.
func OK(c *gin.Context, status int, data any, extra gin.H) {
	body := gin.H{"ok": true}
	if data != nil {
		body["data"] = data
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(status, body)
}

// Fail writes {ok:false, error} and aborts the chain.
func Fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": msg})
}
