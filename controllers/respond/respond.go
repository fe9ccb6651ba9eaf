// Package respond writes service results and errors as JSON.
package respond

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Mouuuuu1/valoria/apperr"
	"github.com/gin-gonic/gin"
)

// Error attaches err to the context for the request logger and writes the
// status mapped from its kind. Internal errors are not echoed to the client.
func Error(c *gin.Context, err error) {
	_ = c.Error(err)
	status := apperr.HTTPStatus(err)

	var e *apperr.Error
	if !errors.As(err, &e) || status == http.StatusInternalServerError {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	body := gin.H{"error": e.Message, "code": e.Kind.String()}
	if e.ProductID != 0 {
		body["product_id"] = e.ProductID
	}
	c.JSON(status, body)
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": apperr.KindValidation.String()})
}

// ID parses a positive numeric path parameter.
func ID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name, "code": apperr.KindValidation.String()})
		return 0, false
	}
	return uint(id), true
}

// Page reads the page and limit query parameters; absent or malformed values
// read as zero and are normalized by the services.
func Page(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return page, limit
}
