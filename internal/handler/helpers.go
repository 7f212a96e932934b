package handler

import (
	"net/http"
	"time"

	"backend/internal/middleware"
	"backend/internal/model"
	"backend/pkg/apperror"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// writeError translates a service error into the response envelope. Tagged
// errors map to their HTTP status; anything untagged is a 500 and the detail
// stays in the server log.
func writeError(c *gin.Context, err error) {
	var status int
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindValidation:
		status = http.StatusBadRequest
	case apperror.KindConflict:
		status = http.StatusConflict
	case apperror.KindScope:
		status = http.StatusForbidden
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Internal server error"))
		return
	}
	c.JSON(status, response.Error(status, err.Error()))
}

// mustActor aborts with 401 when no actor is present. Routes behind
// RequireRole always have one; this guards against wiring mistakes.
func mustActor(c *gin.Context) (model.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
	}
	return actor, ok
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name))
		return uuid.Nil, false
	}
	return id, true
}

// uuidQuery parses an optional UUID query parameter. The bool is false when
// the value is present but malformed.
func uuidQuery(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name))
		return nil, false
	}
	return &id, true
}

// timeQuery parses an optional RFC3339 query parameter.
func timeQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid "+name+", expected RFC3339"))
		return nil, false
	}
	return &t, true
}

// periodQuery parses the from/to range, defaulting to the last 30 days.
func periodQuery(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now().UTC()
	from, ok := timeQuery(c, "from")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok := timeQuery(c, "to")
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	start := now.AddDate(0, 0, -30)
	if from != nil {
		start = *from
	}
	end := now
	if to != nil {
		end = *to
	}
	return start, end, true
}
