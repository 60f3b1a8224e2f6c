package middleware

import "github.com/gin-gonic/gin"

// abortJSON stops the chain with the relay's uniform error envelope.
func abortJSON(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   message,
	})
}
