package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
)

// Stable error codes returned to clients in the response envelope.
const (
	CodeBadRequest              = "BAD_REQUEST"
	CodeUnauthorized            = "UNAUTHORIZED"
	CodeForbidden               = "FORBIDDEN"
	CodeNotFound                = "NOT_FOUND"
	CodeAlreadyExists           = "ALREADY_EXISTS"
	CodeInvalidState            = "INVALID_STATE"
	CodeAlreadyAssigned         = "ALREADY_ASSIGNED"
	CodeNotAssigned             = "NOT_ASSIGNED"
	CodeAlreadyRewarded         = "ALREADY_REWARDED"
	CodeDuplicatePendingRequest = "DUPLICATE_PENDING_REQUEST"
	CodeInsufficientBalance     = "INSUFFICIENT_BALANCE"
	CodeInvalidPoints           = "INVALID_POINTS"
	CodeNoEligibleSurveys       = "NO_ELIGIBLE_SURVEYS"
	CodeTooManyRequests         = "TOO_MANY_REQUESTS"
	CodeInternal                = "INTERNAL"
)

// Error is the error type surfaced by services and handlers.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
	Code    string `json:"code,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by code so sentinels survive WithMessage and wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code != "" {
		return t.Code == e.Code
	}
	return t == e
}

// WithMessage returns a copy of e carrying a more specific message.
func (e *Error) WithMessage(format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Status: e.Status, Code: e.Code}
}

func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
		Code:    codeForStatus(status),
	}
}

func newCoded(code, message string, status int) *Error {
	return &Error{Message: message, Status: status, Code: code}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorized
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeAlreadyExists
	case http.StatusTooManyRequests:
		return CodeTooManyRequests
	default:
		return CodeInternal
	}
}

var (
	ErrInternalServerError = newCoded(CodeInternal, "internal server error", http.StatusInternalServerError)
	ErrBadRequest          = newCoded(CodeBadRequest, "bad request", http.StatusBadRequest)
	ErrUnauthorized        = newCoded(CodeUnauthorized, "unauthorized", http.StatusUnauthorized)
	ErrForbidden           = newCoded(CodeForbidden, "forbidden", http.StatusForbidden)
	ErrInvalidPassword     = newCoded(CodeUnauthorized, "invalid email or password", http.StatusUnauthorized)
	InActiveUserError      = newCoded(CodeForbidden, "account is inactive, please contact admin", http.StatusForbidden)

	ErrNotFound                = newCoded(CodeNotFound, "resource not found", http.StatusNotFound)
	ErrAlreadyExists           = newCoded(CodeAlreadyExists, "resource already exists", http.StatusConflict)
	ErrInvalidState            = newCoded(CodeInvalidState, "operation not allowed in current state", http.StatusConflict)
	ErrAlreadyAssigned         = newCoded(CodeAlreadyAssigned, "survey already assigned to this user", http.StatusConflict)
	ErrNotAssigned             = newCoded(CodeNotAssigned, "survey not assigned to user", http.StatusNotFound)
	ErrAlreadyRewarded         = newCoded(CodeAlreadyRewarded, "reward already credited for this survey", http.StatusConflict)
	ErrDuplicatePendingRequest = newCoded(CodeDuplicatePendingRequest, "you already have a pending redemption request", http.StatusConflict)
	ErrInsufficientBalance     = newCoded(CodeInsufficientBalance, "insufficient points", http.StatusUnprocessableEntity)
	ErrInvalidPoints           = newCoded(CodeInvalidPoints, "invalid points", http.StatusUnprocessableEntity)
	ErrNoEligibleSurveys       = newCoded(CodeNoEligibleSurveys, "no eligible rewarded surveys", http.StatusUnprocessableEntity)
)

// GetUniqueContraintError turns a unique violation into a conflict naming the field.
func GetUniqueContraintError(err error) *Error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, field := range []string{"email", "survey_code", "phone"} {
		if strings.Contains(msg, field) {
			return ErrAlreadyExists.WithMessage("%s already exists", strings.ReplaceAll(field, "_", " "))
		}
	}
	return ErrAlreadyExists
}

// ErrorHandler is the gin-rate-limit hook invoked when a caller is over quota.
func ErrorHandler(c *gin.Context, info ratelimit.Info) {
	retryAfter := int(time.Until(info.ResetTime).Seconds()) + 1
	c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"message": "too many requests, try again in " + info.ResetTime.Format("15:04:05"),
		"errors":  newCoded(CodeTooManyRequests, "rate limit exceeded", http.StatusTooManyRequests),
		"status":  http.StatusTooManyRequests,
	})
}
