package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/pagination"
	"vaultadmin/internal/services"
)

// AuditLogHandler handles audit log search and export requests.
type AuditLogHandler struct {
	searchService services.AuditSearchServicer
	exportService services.ExportServicer
}

// NewAuditLogHandler creates a new AuditLogHandler.
func NewAuditLogHandler(searchService services.AuditSearchServicer, exportService services.ExportServicer) *AuditLogHandler {
	return &AuditLogHandler{searchService: searchService, exportService: exportService}
}

// Search handles simple audit log search
// @Summary     Search audit logs
// @Description Get a paginated list of audit log entries with single-value filters
// @Tags        audit-logs
// @Produce     json
// @Security    BearerAuth
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Param       search     query string false "Free-text search across action, resource, IP, actor name and email"
// @Param       action     query string false "Filter by action tag"
// @Param       status     query string false "Filter by status (SUCCESS, FAILED, WARNING, BLOCKED)"
// @Param       user_id    query string false "Filter by actor user ID"
// @Param       start_date query string false "Start of date range (RFC3339 or YYYY-MM-DD)"
// @Param       end_date   query string false "End of date range (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[services.AuditLogEntry] "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Audit visibility required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs [get]
func (h *AuditLogHandler) Search(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseSimpleFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.searchService.Search(scope, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AdvancedSearchRequest is the structured multi-criteria filter payload.
// It maps onto the same predicate type the simple search uses.
type AdvancedSearchRequest struct {
	Actions     []string   `json:"actions"`
	Resources   []string   `json:"resources"`
	Statuses    []string   `json:"statuses" binding:"omitempty,dive,audit_status"`
	UserIDs     []string   `json:"user_ids"`
	IPAddresses []string   `json:"ip_addresses"`
	DateRange   *DateRange `json:"date_range"`
	SearchText  string     `json:"search_text"`
	// HasDetails: nil = any, true = details present, false = details absent.
	HasDetails *bool `json:"has_details"`
	Page       int   `json:"page" binding:"omitempty,min=1"`
	PageSize   int   `json:"page_size" binding:"omitempty,min=1,max=100"`
}

// DateRange is a closed interval on created_at; either bound may be omitted.
type DateRange struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// AdvancedSearch handles structured multi-criteria audit log search
// @Summary     Advanced audit log search
// @Description Search audit logs with array filters, a date range, free text, and a details tri-state
// @Tags        audit-logs
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body AdvancedSearchRequest true "Filter specification"
// @Success     200 {object} pagination.PageResponse[services.AuditLogEntry] "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Audit visibility required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs/search [post]
func (h *AuditLogHandler) AdvancedSearch(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req AdvancedSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := req.toFilter()
	if err != nil {
		respondWithError(c, err)
		return
	}

	page := pagination.PageRequest{Page: req.Page, PageSize: req.PageSize}
	result, err := h.searchService.Search(scope, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetRecent handles the polling read for new entries
// @Summary     Get recent audit logs
// @Description Get entries created after the given cursor, newest first, with the next cursor timestamp
// @Tags        audit-logs
// @Produce     json
// @Security    BearerAuth
// @Param       since query string false "Cursor timestamp (RFC3339); omit for the newest entries"
// @Param       limit query int    false "Maximum entries (default 50, max 100)"
// @Success     200 {object} services.RecentLogs "Entries and next cursor"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Audit visibility required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs/recent [get]
func (h *AuditLogHandler) GetRecent(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query struct {
		Since string `form:"since"`
		Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var since *time.Time
	if query.Since != "" {
		t, parseErr := time.Parse(time.RFC3339, query.Since)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid since, use RFC3339"))
			return
		}
		since = &t
	}

	result, err := h.searchService.Recent(scope, since, query.Limit)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Export handles rendering filtered entries for compliance tooling
// @Summary     Export audit logs
// @Description Export entries matching the filters as CSV or JSON; the export itself is audited
// @Tags        audit-logs
// @Produce     json
// @Security    BearerAuth
// @Param       format     query string true  "Export format (csv or json)"
// @Param       search     query string false "Free-text search"
// @Param       action     query string false "Filter by action tag"
// @Param       status     query string false "Filter by status"
// @Param       user_id    query string false "Filter by actor user ID"
// @Param       start_date query string false "Start of date range (RFC3339 or YYYY-MM-DD)"
// @Param       end_date   query string false "End of date range (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} services.ExportResult "Rendered document"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Audit visibility required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs/export [get]
func (h *AuditLogHandler) Export(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query struct {
		Format string `form:"format" binding:"required,export_format"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseSimpleFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.exportService.Export(scope, filter, query.Format)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// parseSimpleFilter reads the single-value filter query parameters shared by
// simple search and export.
func parseSimpleFilter(c *gin.Context) (services.AuditFilter, error) {
	var startDate, endDate *time.Time

	if v := c.Query("start_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return services.AuditFilter{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid start_date format, use RFC3339 or YYYY-MM-DD")
		}
		startDate = &t
	}
	if v := c.Query("end_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return services.AuditFilter{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid end_date format, use RFC3339 or YYYY-MM-DD")
		}
		endDate = &t
	}

	return services.SimpleFilter(
		c.Query("search"),
		c.Query("action"),
		c.Query("status"),
		c.Query("user_id"),
		startDate,
		endDate,
	), nil
}

// toFilter converts the request body into the shared predicate type.
func (r AdvancedSearchRequest) toFilter() (services.AuditFilter, error) {
	filter := services.AuditFilter{
		Actions:     r.Actions,
		Resources:   r.Resources,
		Statuses:    r.Statuses,
		UserIDs:     r.UserIDs,
		IPAddresses: r.IPAddresses,
		SearchText:  r.SearchText,
	}

	if r.DateRange != nil {
		if r.DateRange.Start != nil && *r.DateRange.Start != "" {
			t, err := parseFlexibleTime(*r.DateRange.Start)
			if err != nil {
				return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date_range.start")
			}
			filter.StartDate = &t
		}
		if r.DateRange.End != nil && *r.DateRange.End != "" {
			t, err := parseFlexibleTime(*r.DateRange.End)
			if err != nil {
				return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid date_range.end")
			}
			filter.EndDate = &t
		}
	}

	if r.HasDetails != nil {
		if *r.HasDetails {
			filter.HasDetails = services.DetailsPresent
		} else {
			filter.HasDetails = services.DetailsAbsent
		}
	}

	return filter, nil
}
