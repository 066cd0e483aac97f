package handlers

import (
	"log"
	"net/http"
	"strconv"

	apperrors "it-inventory/internal/errors"
	"it-inventory/internal/middleware"
	"it-inventory/internal/validation"

	"github.com/gin-gonic/gin"
)

// respond writes data as JSON and adds the logged-in user, if any, under "current_user".
func respond(c *gin.Context, status int, data gin.H) {
	if data == nil {
		data = gin.H{}
	}

	if u, ok := middleware.CurrentUser(c); ok {
		data["current_user"] = gin.H{
			"id":          u.ID,
			"username":    u.Username,
			"is_admin":    u.IsAdmin,
			"is_elevated": u.IsElevated,
		}
	}

	c.JSON(status, data)
}

// fail maps err onto an HTTP status. Unexpected errors are logged and reported generically.
func fail(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !apperrors.As(err, &appErr) {
		appErr = apperrors.Wrap(apperrors.ErrInternal, "unexpected error", err)
	}

	switch appErr.Code {
	case apperrors.ErrValidation:
		body := gin.H{"error": appErr.Message}
		if len(appErr.Fields) > 0 {
			body["fields"] = appErr.Fields
		}
		respond(c, http.StatusBadRequest, body)
	case apperrors.ErrDuplicate:
		respond(c, http.StatusConflict, gin.H{"error": appErr.Message})
	case apperrors.ErrNotFound:
		respond(c, http.StatusNotFound, gin.H{"error": appErr.Message})
	case apperrors.ErrPermission:
		respond(c, http.StatusForbidden, gin.H{"error": appErr.Message})
	case apperrors.ErrUnsupported:
		respond(c, http.StatusUnsupportedMediaType, gin.H{"error": appErr.Message})
	default:
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		respond(c, http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func invalid(v validation.Violations) error {
	return apperrors.Validation("invalid input", v)
}

// paramID reads the :id path parameter. Anything that is not a positive integer is reported
// as not found.
func paramID(c *gin.Context, what string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		fail(c, apperrors.NotFound(what))
		return 0, false
	}
	return uint(id), true
}
