package services

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/logger"
	"vaultadmin/internal/models"
	"vaultadmin/internal/pagination"
)

const (
	minArchiveDays = 1
	maxArchiveDays = 3650
)

// archiveService moves audit entries older than a cutoff into compressed
// archive records.
type archiveService struct {
	db *gorm.DB

	// postDeleteHook runs inside the archival transaction after the delete;
	// tests use it to force a rollback at the worst possible moment.
	postDeleteHook func(tx *gorm.DB) error
}

// NewArchiveService creates a new ArchiveServicer.
func NewArchiveService(db *gorm.DB) ArchiveServicer {
	return &archiveService{db: db}
}

// Archive compresses and removes all entries older than now-olderThanDays
// within the tenant scope. Copy and delete commit as one transaction: either
// exactly one archive record exists and every matching row is gone, or
// nothing changed. Entries written during the run are never candidates since
// they cannot predate the cutoff.
func (s *archiveService) Archive(scope Scope, olderThanDays int, archiverUserID *string) (*ArchiveResult, error) {
	if olderThanDays < minArchiveDays || olderThanDays > maxArchiveDays {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("olderThanDays must be between %d and %d", minArchiveDays, maxArchiveDays))
	}

	cutoff := time.Now().AddDate(0, 0, -olderThanDays)

	var result *ArchiveResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		selection := tx.Where("created_at < ?", cutoff)
		if scope.TenantID != nil {
			selection = selection.Where("tenant_id = ?", *scope.TenantID)
		}

		var entries []models.AuditLog
		if err := selection.Order("created_at ASC").Find(&entries).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		payload, err := compressEntries(entries)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrArchiveFailed, err)
		}

		archive := &models.AuditLogArchive{
			TenantID:       scope.TenantID,
			ArchiveDate:    time.Now(),
			ArchiverUserID: archiverUserID,
			EntryCount:     int64(len(entries)),
			CutoffDate:     cutoff,
			Payload:        payload,
		}
		if err := tx.Create(archive).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		ids := make([]string, len(entries))
		for i, e := range entries {
			ids[i] = e.ID
		}
		deleted := tx.Where("id IN ?", ids).Delete(&models.AuditLog{})
		if deleted.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, deleted.Error)
		}
		if len(ids) > 0 && deleted.RowsAffected != int64(len(ids)) {
			// A partial archive is a correctness violation, not a degraded
			// mode. Roll everything back.
			return apperrors.WithMessage(apperrors.ErrArchiveFailed,
				fmt.Sprintf("archived %d entries but deleted %d", len(ids), deleted.RowsAffected))
		}

		if s.postDeleteHook != nil {
			if err := s.postDeleteHook(tx); err != nil {
				return err
			}
		}

		result = &ArchiveResult{ArchivedCount: int64(len(entries)), ArchiveID: archive.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Infow("archival run completed",
		"archive_id", result.ArchiveID,
		"archived_count", result.ArchivedCount,
		"cutoff", cutoff,
	)
	return result, nil
}

// ListArchives returns archive records newest first, scoped to the tenant
// when resolvable. Archives are coarse run summaries, so unlike entry search
// there is no filtering beyond the scope.
func (s *archiveService) ListArchives(scope Scope, page pagination.PageRequest) (*pagination.PageResponse[models.AuditLogArchive], error) {
	page.Clamp()

	base := s.db.Model(&models.AuditLogArchive{})
	if scope.TenantID != nil {
		base = base.Where("tenant_id = ?", *scope.TenantID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var archives []models.AuditLogArchive
	if err := base.Scopes(pagination.Paginate(page)).
		Order("archive_date DESC").
		Find(&archives).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(archives, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// compressEntries serializes entries to gzip-compressed JSON.
func compressEntries(entries []models.AuditLog) ([]byte, error) {
	data, err := json.Marshal(entries)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressArchive restores the entries stored in an archive payload. Used
// by compliance tooling and tests to verify archives remain readable.
func DecompressArchive(payload []byte) ([]models.AuditLog, error) {
	zr, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var entries []models.AuditLog
	if err := json.NewDecoder(zr).Decode(&entries); err != nil {
		return nil, err
	}
	return entries, nil
}
