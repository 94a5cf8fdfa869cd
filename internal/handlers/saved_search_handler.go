package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/pagination"
	"vaultadmin/internal/services"
)

// SavedSearchHandler handles saved search requests.
type SavedSearchHandler struct {
	savedSearchService services.SavedSearchServicer
	searchService      services.AuditSearchServicer
}

// NewSavedSearchHandler creates a new SavedSearchHandler.
func NewSavedSearchHandler(savedSearchService services.SavedSearchServicer, searchService services.AuditSearchServicer) *SavedSearchHandler {
	return &SavedSearchHandler{savedSearchService: savedSearchService, searchService: searchService}
}

// SaveSearchRequest is the payload for storing a search.
type SaveSearchRequest struct {
	Name        *string                `json:"name" binding:"omitempty,max=100"`
	SearchQuery string                 `json:"search_query" binding:"max=500"`
	Filters     *AdvancedSearchRequest `json:"filters"`
}

// Create handles storing a search for the calling user
// @Summary     Save a search
// @Description Store a named or unnamed search for later replay
// @Tags        saved-searches
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body SaveSearchRequest true "Search to store"
// @Success     201 {object} models.SavedSearch "Stored search"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Audit visibility required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /saved-searches [post]
func (h *SavedSearchHandler) Create(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req SaveSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter *services.AuditFilter
	if req.Filters != nil {
		f, convErr := req.Filters.toFilter()
		if convErr != nil {
			respondWithError(c, convErr)
			return
		}
		filter = &f
	}

	search, err := h.savedSearchService.Create(scope, req.Name, req.SearchQuery, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"saved_search": search})
}

// List handles listing the caller's saved searches
// @Summary     List saved searches
// @Description Get the caller's saved searches, most recently used first (max 20)
// @Tags        saved-searches
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string][]models.SavedSearch "Saved searches"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Audit visibility required"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /saved-searches [get]
func (h *SavedSearchHandler) List(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	searches, err := h.savedSearchService.List(scope)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"saved_searches": searches})
}

// Delete handles removing a saved search
// @Summary     Delete a saved search
// @Description Delete one of the caller's saved searches
// @Tags        saved-searches
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Saved search ID"
// @Success     200 {object} MessageResponse "Deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Missing or not owned"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /saved-searches/{id} [delete]
func (h *SavedSearchHandler) Delete(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.savedSearchService.Delete(scope, id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Saved search deleted successfully"})
}

// Execute handles replaying a saved search
// @Summary     Execute a saved search
// @Description Replay a stored search and return the matching entries; bumps its last-used time
// @Tags        saved-searches
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Saved search ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.AuditLogEntry] "Paginated entries"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     403 {object} ErrorResponse "Missing or not owned"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /saved-searches/{id}/execute [post]
func (h *SavedSearchHandler) Execute(c *gin.Context) {
	scope, err := currentScope(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	id, err := parsePathUUID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	_, filter, err := h.savedSearchService.Execute(scope, id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.searchService.Search(scope, *filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
