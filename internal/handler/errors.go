package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/simple-orders/internal/domain"
)

// errorResponse is the wire shape of every error.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// respondError maps a domain failure to its transport status. Unrecognized
// errors are logged and masked as 500.
func respondError(c *gin.Context, err error) {
	var (
		notFound     *domain.NotFoundError
		invalidOp    *domain.InvalidOperationError
		invalidInput *domain.InvalidInputError
	)
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, errorResponse{http.StatusNotFound, notFound.Error()})
	case errors.As(err, &invalidOp):
		c.JSON(http.StatusBadRequest, errorResponse{http.StatusBadRequest, invalidOp.Error()})
	case errors.As(err, &invalidInput):
		c.JSON(http.StatusBadRequest, errorResponse{http.StatusBadRequest, invalidInput.Error()})
	default:
		zctx.From(c.Request.Context()).Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{http.StatusInternalServerError, "internal error"})
	}
}

// respondBadRequest reports a malformed request body or path parameter.
func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, errorResponse{http.StatusBadRequest, msg})
}
