package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/services"
)

// AnalyticsHandler handles audit analytics requests.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetStats handles windowed security/usage statistics
// @Summary     Get audit statistics
// @Description Get counters for the trailing window with period-over-period change against the preceding window
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       days query int false "Window length in days (1-365, default 30)"
// @Success     200 {object} services.AuditStats "Windowed statistics"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Audit visibility required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs/stats [get]
func (h *AnalyticsHandler) GetStats(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query struct {
		Days int `form:"days" binding:"omitempty,min=1,max=365"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if query.Days == 0 {
		query.Days = 30
	}

	stats, err := h.analyticsService.Stats(scope, query.Days)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetTrend handles day-bucketed trend series
// @Summary     Get a metric trend
// @Description Get a day-bucketed time series for one metric over one period
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       metric query string true "Metric (passwords, users, logins, security_events, collaboration)"
// @Param       period query string true "Period (7d, 30d, 90d, 1y)"
// @Success     200 {object} map[string][]services.TrendPoint "Trend series"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Audit visibility required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs/trend [get]
func (h *AnalyticsHandler) GetTrend(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query struct {
		Metric string `form:"metric" binding:"required,trend_metric"`
		Period string `form:"period" binding:"required,trend_period"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	series, err := h.analyticsService.Trend(scope, query.Metric, query.Period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"metric": query.Metric, "period": query.Period, "points": series})
}
