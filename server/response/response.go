package response

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	errs "github.com/kphotone-reward/backend/errors"
	"github.com/pkg/errors"
)

// JSON writes the standard envelope.
func JSON(c *gin.Context, message string, status int, data interface{}, err error) {
	responsedata := gin.H{
		"message":   message,
		"data":      data,
		"errors":    errorBody(err),
		"status":    http.StatusText(status),
		"timestamp": time.Now().Format("2006-01-02 15:04:05"),
	}
	c.JSON(status, responsedata)
}

// HandleErrors maps err onto its HTTP status and writes the envelope.
// Anything that is not an *errs.Error is logged and reported as internal.
func HandleErrors(c *gin.Context, err error) {
	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		JSON(c, apiErr.Message, apiErr.Status, nil, apiErr)
		return
	}
	log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	JSON(c, errs.ErrInternalServerError.Message, http.StatusInternalServerError, nil, errs.ErrInternalServerError)
}

func errorBody(err error) interface{} {
	if err == nil {
		return nil
	}
	var apiErr *errs.Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return gin.H{"message": err.Error(), "code": errs.CodeBadRequest}
}
