package query

import (
	"errors"
	"net/http"
	"time"

	httperr "github.com/MercuryTechnologies/streamly/internal/core/errors"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all query API routes on the given router.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.GET("/v1/stats/:metric", s.HandleLiveStats)
	r.GET("/v1/rules/:rule/history", s.HandleHistory)
}

// HandleLiveStats handles GET /v1/stats/:metric — the current value of every
// statistic tracking the metric.
func (s *Service) HandleLiveStats(c *gin.Context) {
	metric := c.Param("metric")

	points, err := s.LivePoints(metric)
	if err != nil {
		c.JSON(http.StatusNotFound, httperr.ErrorResponse{
			ErrorType: httperr.HttpUnknownMetricError,
			Message:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metric": metric,
		"stats":  points,
	})
}

// HandleHistory handles GET /v1/rules/:rule/history
// Query parameters: start, end (RFC 3339), limit.
func (s *Service) HandleHistory(c *gin.Context) {
	ruleName := c.Param("rule")

	var query struct {
		Start time.Time `form:"start" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
		End   time.Time `form:"end" binding:"required" time_format:"2006-01-02T15:04:05Z07:00"`
		Limit int       `form:"limit"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
			ErrorType: httperr.HttpInvalidJsonError,
			Message:   "Invalid query parameters",
			Details:   err.Error(),
		})
		return
	}

	points, err := s.History(c.Request.Context(), ruleName, query.Start, query.End, query.Limit)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownRule):
			c.JSON(http.StatusNotFound, httperr.ErrorResponse{
				ErrorType: httperr.HttpUnknownRuleError,
				Message:   err.Error(),
			})
		case errors.Is(err, ErrInvalidRange):
			c.JSON(http.StatusBadRequest, httperr.ErrorResponse{
				ErrorType: httperr.HttpInvalidJsonError,
				Message:   err.Error(),
			})
		default:
			c.JSON(http.StatusInternalServerError, httperr.ErrorResponse{
				ErrorType: httperr.HttpInternalError,
				Message:   "Failed to query snapshot history",
			})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rule":   ruleName,
		"start":  query.Start,
		"end":    query.End,
		"points": points,
	})
}
