package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/supertrooper/backend/internal/logging"
	"github.com/supertrooper/backend/internal/service"
)

// Response helpers

func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

func SuccessPaged(c *gin.Context, list interface{}, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"list":      list,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func Error(c *gin.Context, httpCode int, message string) {
	c.JSON(httpCode, gin.H{"error": message})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, message)
}

func InternalError(c *gin.Context, err error) {
	logging.FromContext(c).WithError(err).Error("unexpected error")
	Error(c, http.StatusInternalServerError, err.Error())
}

// handleError maps service errors onto status codes.
func handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrEmailTaken):
		Error(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidArgument):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err)
	}
}

// pathID parses a numeric path parameter, answering 400 when it is not one.
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional numeric query parameter. An absent value yields
// nil; a malformed one answers 400.
func queryID(c *gin.Context, name string) (*uint, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		BadRequest(c, "invalid "+name)
		return nil, false
	}
	id := uint(v)
	return &id, true
}

// queryTime parses an optional RFC 3339 query parameter, answering 400 when
// it is malformed.
func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	s := c.Query(name)
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		BadRequest(c, "invalid "+name)
		return nil, false
	}
	return &t, true
}

func actorID(c *gin.Context) (uint, bool) {
	id, ok := queryID(c, "admin_user_id")
	if !ok || id == nil {
		return 0, ok
	}
	return *id, true
}

func parsePage(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
