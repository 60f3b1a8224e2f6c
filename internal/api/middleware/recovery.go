package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/heysagnik/chikki/internal/infrastructure/logging"
)

const genericError = "Internal Server Error"

// Recovery turns panics into a 500 envelope. In production the message is
// generic; otherwise it carries the panic value.
func Recovery(log *logging.Logger, production bool) gin.HandlerFunc {
	log = logging.OrNop(log)
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Error("panic recovered",
			zap.String("request_id", GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stack"),
		)
		msg := genericError
		if !production {
			msg = fmt.Sprint(recovered)
		}
		abortJSON(c, http.StatusInternalServerError, msg)
	})
}

// ErrorHandler answers for handlers that attached errors with c.Error but
// wrote no response.
func ErrorHandler(log *logging.Logger, production bool) gin.HandlerFunc {
	log = logging.OrNop(log)
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last()
		log.Error("unhandled error",
			zap.String("request_id", GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err.Err),
		)
		status := http.StatusInternalServerError
		if IsBodyTooLarge(err.Err) {
			status = http.StatusRequestEntityTooLarge
		}
		msg := genericError
		if !production {
			msg = err.Error()
		}
		abortJSON(c, status, msg)
	}
}
