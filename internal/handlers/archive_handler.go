package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/models"
	"vaultadmin/internal/pagination"
	"vaultadmin/internal/services"
)

// ArchiveHandler handles audit archival requests.
type ArchiveHandler struct {
	archiveService services.ArchiveServicer
	recorder       services.AuditRecorder
}

// NewArchiveHandler creates a new ArchiveHandler.
func NewArchiveHandler(archiveService services.ArchiveServicer, recorder services.AuditRecorder) *ArchiveHandler {
	return &ArchiveHandler{archiveService: archiveService, recorder: recorder}
}

// ArchiveRequest is the archival run payload.
type ArchiveRequest struct {
	OlderThanDays int `json:"older_than_days" binding:"required,min=1,max=3650"`
}

// ArchiveLogs handles triggering an archival run
// @Summary     Archive old audit logs
// @Description Compress and remove entries older than the retention threshold; all-or-nothing
// @Tags        archives
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ArchiveRequest true "Retention threshold"
// @Success     200 {object} services.ArchiveResult "Run summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Audit visibility required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs/archive [post]
func (h *ArchiveHandler) ArchiveLogs(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.archiveService.Archive(scope, req.OlderThanDays, &scope.UserID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.recorder.Log(scope, "ARCHIVE_AUDIT_LOGS", "AuditLogArchive", &result.ArchiveID,
		c.ClientIP(), c.Request.UserAgent(), models.StatusSuccess,
		map[string]any{"archived_count": result.ArchivedCount, "older_than_days": req.OlderThanDays})

	c.JSON(http.StatusOK, result)
}

// GetArchives handles browsing past archival runs
// @Summary     List archives
// @Description Get a paginated list of archival runs, newest first
// @Tags        archives
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.AuditLogArchive] "Paginated archives"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Audit visibility required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /audit-logs/archives [get]
func (h *ArchiveHandler) GetArchives(c *gin.Context) {
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

	result, err := h.archiveService.ListArchives(scope, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
