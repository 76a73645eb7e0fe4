package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"TeamHive/logger"
	"TeamHive/tools/errs"
)

// ReplyError maps a taxonomy error onto the wire. Store-level errors are
// logged here and leave as a generic 500; their detail never reaches the
// client.
func ReplyError(c *gin.Context, err error) {
	ce := errs.Unpack(err)
	if ce.Code == errs.InternalCode {
		logger.Errorf("[http] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		ce = errs.ErrInternal // strip detail
	}
	c.AbortWithStatusJSON(errs.HTTPStatus(err), ce)
}

func ReplyOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func ReplyCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}
