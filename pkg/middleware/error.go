package middleware

import (
	"github.com/gin-gonic/gin"

	"arkada-rewards/pkg/errutil"
)

// Error renders the last handler error as a JSON body keyed off its
// CoreStatus when none was written yet.
func Error() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		err := c.Errors.Last()
		if err == nil || c.Writer.Written() {
			return
		}

		if v, ok := err.Err.(errutil.BaseError); ok {
			c.JSON(v.Code.HTTPStatus(), v.JSON())
			return
		}

		c.JSON(errutil.StatusInternal.HTTPStatus(), gin.H{"message": "internal error"})
	}
}
