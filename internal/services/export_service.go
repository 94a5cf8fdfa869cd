package services

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/models"
)

// Export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatJSON = "json"
)

// exportEnvelopeVersion identifies the JSON export schema for downstream
// compliance tooling.
const exportEnvelopeVersion = "1.0"

// ActionExportLogs tags the audit entry every successful export appends.
const ActionExportLogs = "EXPORT_AUDIT_LOGS"

// csvHeader is the fixed export column order. Compliance parsers depend on
// it; never reorder.
var csvHeader = []string{
	"id", "user", "email", "action", "resource", "resource_id",
	"ip_address", "user_agent", "status", "timestamp", "details",
}

// exportService renders filtered audit entries as CSV or JSON documents.
type exportService struct {
	db       *gorm.DB
	recorder AuditRecorder
	maxRows  int
}

// NewExportService creates a new ExportServicer. maxRows bounds the result
// set since exports are not cancellable mid-flight.
func NewExportService(db *gorm.DB, recorder AuditRecorder, maxRows int) ExportServicer {
	return &exportService{db: db, recorder: recorder, maxRows: maxRows}
}

// Export renders every entry matching the filter in the requested format and
// appends one audit entry recording the export. Failures before that point
// leave no side effects, so callers can retry idempotently.
func (s *exportService) Export(scope Scope, filter AuditFilter, format string) (*ExportResult, error) {
	if format != ExportFormatCSV && format != ExportFormatJSON {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "format must be csv or json")
	}

	base := applyAuditFilter(s.db.Model(&models.AuditLog{}), filter, scope.TenantID)

	var entries []models.AuditLog
	q := base.Order("audit_logs.created_at DESC")
	if s.maxRows > 0 {
		q = q.Limit(s.maxRows)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	enriched, err := enrichActors(s.db, entries)
	if err != nil {
		return nil, err
	}

	var result *ExportResult
	switch format {
	case ExportFormatCSV:
		result = &ExportResult{
			Content:       renderCSV(enriched),
			MimeType:      "text/csv",
			FileExtension: "csv",
			Count:         len(enriched),
		}
	case ExportFormatJSON:
		content, err := renderJSON(enriched)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		result = &ExportResult{
			Content:       content,
			MimeType:      "application/json",
			FileExtension: "json",
			Count:         len(enriched),
		}
	}

	// Exporting audit data is itself auditable.
	if err := s.recorder.Record(scope, ActionExportLogs, "AuditLog", nil, "", "", models.StatusSuccess,
		map[string]any{"format": format, "count": result.Count}); err != nil {
		return nil, err
	}

	return result, nil
}

// jsonExport is the stable envelope wrapping JSON exports.
type jsonExport struct {
	Version    string          `json:"version"`
	ExportDate time.Time       `json:"export_date"`
	Count      int             `json:"count"`
	Logs       []AuditLogEntry `json:"logs"`
}

func renderJSON(entries []AuditLogEntry) (string, error) {
	envelope := jsonExport{
		Version:    exportEnvelopeVersion,
		ExportDate: time.Now().UTC(),
		Count:      len(entries),
		Logs:       entries,
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func renderCSV(entries []AuditLogEntry) string {
	var b strings.Builder
	writeCSVRow(&b, csvHeader)
	for _, e := range entries {
		writeCSVRow(&b, []string{
			e.ID,
			e.ActorName,
			e.ActorEmail,
			e.Action,
			e.Resource,
			strValue(e.ResourceID),
			e.IPAddress,
			e.UserAgent,
			e.Status,
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.Details,
		})
	}
	return b.String()
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(csvEscape(f))
	}
	b.WriteByte('\n')
}

// csvEscape quote-wraps a field only when it contains a comma, a double
// quote, or a newline, doubling internal quotes. Downstream compliance
// tooling parses this output bit-for-bit; the rule must not change.
func csvEscape(field string) string {
	if !strings.ContainsAny(field, ",\"\n") {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func strValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
