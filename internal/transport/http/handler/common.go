package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"healthhub/internal/app"
	"healthhub/internal/paging"
	"healthhub/internal/remote"
	"healthhub/internal/transport/http/middleware"
	"healthhub/internal/transport/http/response"
)

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok && userID > 0
}

func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
	}
	return userID, ok
}

func intParam(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// feedQuery reads ?page&size&search&mode. Unparsable numbers fall back to the
// feed defaults.
func feedQuery(c *gin.Context) app.FeedQuery {
	q := app.FeedQuery{Mode: paging.ModeReplace}
	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			q.Page = parsed
		}
	}
	if raw := c.Query("size"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			q.Size = parsed
		}
	}
	if c.Query("mode") == string(paging.ModeAppend) {
		q.Mode = paging.ModeAppend
	}
	if search := c.Query("search"); search != "" {
		q.Filters = paging.Filters{"search": search}
	}
	return q
}

// errorStatus maps a service error to its HTTP status, business code and
// message. fallback is the message for errors without a dedicated mapping.
func errorStatus(err error, fallback string) (int, int, string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
		return http.StatusBadRequest, response.CodeBadRequest, err.Error()
	case errors.Is(err, app.ErrUnknownStep):
		return http.StatusBadRequest, response.CodeUnknownStep, err.Error()
	case errors.Is(err, app.ErrOnboardingIncomplete):
		return http.StatusConflict, response.CodeIncomplete, err.Error()
	case errors.Is(err, app.ErrNotRetryable), errors.Is(err, app.ErrMessageNotDeletable):
		return http.StatusConflict, response.CodeConflict, err.Error()
	case errors.Is(err, app.ErrNoSession):
		return http.StatusNotFound, response.CodeSessionNotFound, err.Error()
	case errors.Is(err, app.ErrSessionInvalid):
		return http.StatusGone, response.CodeSessionInvalid, app.ErrSessionInvalid.Error()
	case errors.Is(err, app.ErrMessageNotFound):
		return http.StatusNotFound, response.CodeMessageNotFound, err.Error()
	case errors.Is(err, app.ErrNotificationNotFound):
		return http.StatusNotFound, response.CodeNotFound, err.Error()
	case errors.Is(err, app.ErrCapability):
		return http.StatusForbidden, response.CodeCapability, err.Error()
	case remote.StatusOf(err) == http.StatusNotFound:
		return http.StatusNotFound, response.CodeNotFound, "resource not found"
	case errors.Is(err, remote.ErrUnexpectedStatus),
		errors.Is(err, remote.ErrInvalidPayload),
		errors.Is(err, remote.ErrUnavailable):
		return http.StatusBadGateway, response.CodeUpstream, fallback
	default:
		return http.StatusInternalServerError, response.CodeInternalServer, fallback
	}
}

func writeError(c *gin.Context, err error, fallback string) {
	writeErrorWithData(c, err, fallback, nil)
}

// writeErrorWithData also returns data, such as the state the view should
// render after the failure. Validation errors always carry their fields.
func writeErrorWithData(c *gin.Context, err error, fallback string, data interface{}) {
	var validationErr *app.ValidationError
	if errors.As(err, &validationErr) {
		response.ErrorWithData(c, http.StatusBadRequest, response.CodeValidation, "validation failed", validationErr.Fields)
		return
	}
	status, code, message := errorStatus(err, fallback)
	if data == nil {
		response.Error(c, status, code, message)
		return
	}
	response.ErrorWithData(c, status, code, message, data)
}

func writeBindError(c *gin.Context, err error) {
	writeError(c, app.FromValidation(err), "invalid request payload")
}
