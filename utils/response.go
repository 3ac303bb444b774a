package utils

import "github.com/gin-gonic/gin"

// JSONSuccess wraps a payload in the standard response envelope.
func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

// JSONError sends a failure envelope with a single message.
func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"success": false, "error": message})
}

// JSONFieldErrors sends a failure envelope carrying the per-field
// detail of a validation failure.
func JSONFieldErrors(c *gin.Context, code int, message string, fields interface{}) {
	c.JSON(code, gin.H{"success": false, "error": message, "fields": fields})
}
