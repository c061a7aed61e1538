package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"edusync/internal/httpmiddleware"
	"edusync/internal/school"
)

// fail maps a service error onto a status code. Unclassified errors are
// logged and returned as 500 with their message.
func (h *Handler) fail(c *gin.Context, err error) {
	var notFound *school.NotFoundError
	var conflict *school.ConflictError
	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	default:
		h.log.ErrorContext(c.Request.Context(), "request failed",
			"request_id", httpmiddleware.RequestID(c),
			"route", c.FullPath(),
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// pathID parses an integer path parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return id, true
}
