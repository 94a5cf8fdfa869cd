package services

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/models"
)

// listSavedSearchLimit caps List; older unused searches age out of view.
const listSavedSearchLimit = 20

// savedSearchService persists per-user filter specifications.
type savedSearchService struct {
	db *gorm.DB
}

// NewSavedSearchService creates a new SavedSearchServicer.
func NewSavedSearchService(db *gorm.DB) SavedSearchServicer {
	return &savedSearchService{db: db}
}

// Create stores a search for the calling user. Name is optional: unnamed
// entries act as search history and differ from named ones only by UI
// convention. The filter is stored as an opaque blob replayed verbatim by
// Execute.
func (s *savedSearchService) Create(scope Scope, name *string, searchQuery string, filter *AuditFilter) (*models.SavedSearch, error) {
	var filtersJSON string
	if filter != nil {
		data, err := json.Marshal(filter)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		filtersJSON = string(data)
	}

	search := &models.SavedSearch{
		UserID:      scope.UserID,
		TenantID:    scope.TenantID,
		Name:        name,
		SearchQuery: searchQuery,
		Filters:     filtersJSON,
		LastUsedAt:  time.Now(),
	}
	if err := s.db.Create(search).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return search, nil
}

// List returns the caller's searches, most recently used first, capped at 20.
func (s *savedSearchService) List(scope Scope) ([]models.SavedSearch, error) {
	var searches []models.SavedSearch
	if err := s.db.Where("user_id = ?", scope.UserID).
		Order("last_used_at DESC").
		Limit(listSavedSearchLimit).
		Find(&searches).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return searches, nil
}

// Delete removes a search owned by the caller. A missing search and a search
// owned by someone else both return ErrSavedSearchAccess; the response never
// reveals whether the id exists.
func (s *savedSearchService) Delete(scope Scope, id string) error {
	result := s.db.Where("id = ? AND user_id = ?", id, scope.UserID).Delete(&models.SavedSearch{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrSavedSearchAccess
	}
	return nil
}

// Execute resolves a stored search back into its query and filter and bumps
// last_used_at. "Used" means invoked: the timestamp moves even when the
// replayed search goes on to match nothing. Concurrent executions race on
// the timestamp with last-write-wins semantics.
func (s *savedSearchService) Execute(scope Scope, id string) (string, *AuditFilter, error) {
	var search models.SavedSearch
	err := s.db.Where("id = ? AND user_id = ?", id, scope.UserID).First(&search).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperrors.ErrSavedSearchAccess
		}
		return "", nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&search).Update("last_used_at", time.Now()).Error; err != nil {
		return "", nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	filter := &AuditFilter{}
	if search.Filters != "" {
		if err := json.Unmarshal([]byte(search.Filters), filter); err != nil {
			return "", nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	if filter.SearchText == "" {
		filter.SearchText = search.SearchQuery
	}
	return search.SearchQuery, filter, nil
}
