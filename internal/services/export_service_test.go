package services

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"vaultadmin/internal/models"
	"vaultadmin/internal/testutil"
)

func newExportService(db *gorm.DB, maxRows int) ExportServicer {
	return NewExportService(db, NewAuditRecorder(db), maxRows)
}

func TestCSVEscape(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
	}{
		{"plain_field_unquoted", "LOGIN", "LOGIN"},
		{"empty_field_unquoted", "", ""},
		{"leading_space_unquoted", " padded", " padded"},
		{"comma_quoted", "a,b", `"a,b"`},
		{"quote_doubled", `say "hi"`, `"say ""hi"""`},
		{"newline_quoted", "line1\nline2", "\"line1\nline2\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := csvEscape(tt.in); got != tt.want {
				t.Errorf("csvEscape(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExportService_Export(t *testing.T) {
	t.Run("csv_round_trips_awkward_fields", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExportService(db, 0)

		details := `{"reason":"bad, \"quoted\" value"}`
		actor := testutil.CreateTestUser(t, db, nil)
		entry := testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{
			ActorUserID: &actor.ID,
			Action:      "UPDATE_PASSWORD",
			Resource:    "Password",
			Details:     details,
		})

		result, err := svc.Export(Scope{UserID: actor.ID}, AuditFilter{}, ExportFormatCSV)
		testutil.AssertNoError(t, err)

		if result.MimeType != "text/csv" || result.FileExtension != "csv" {
			t.Errorf("unexpected content metadata: %s/%s", result.MimeType, result.FileExtension)
		}
		if result.Count != 1 {
			t.Errorf("expected 1 exported row, got %d", result.Count)
		}

		records, err := csv.NewReader(strings.NewReader(result.Content)).ReadAll()
		testutil.AssertNoError(t, err)
		if len(records) != 2 {
			t.Fatalf("expected header plus 1 row, got %d records", len(records))
		}

		header := records[0]
		if len(header) != len(csvHeader) || header[0] != "id" || header[len(header)-1] != "details" {
			t.Errorf("unexpected header: %v", header)
		}

		row := records[1]
		if row[0] != entry.ID {
			t.Errorf("expected id %s, got %s", entry.ID, row[0])
		}
		if row[1] != actor.Name || row[2] != actor.Email {
			t.Errorf("expected actor %s/%s, got %s/%s", actor.Name, actor.Email, row[1], row[2])
		}
		if row[len(row)-1] != details {
			t.Errorf("details did not survive the round trip: %q", row[len(row)-1])
		}
		if _, err := time.Parse(time.RFC3339, row[9]); err != nil {
			t.Errorf("expected RFC3339 timestamp, got %q: %v", row[9], err)
		}
	})

	t.Run("json_envelope_is_versioned", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExportService(db, 0)

		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN"})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN_FAILED", Status: models.StatusFailed})

		result, err := svc.Export(Scope{}, AuditFilter{}, ExportFormatJSON)
		testutil.AssertNoError(t, err)

		if result.MimeType != "application/json" || result.FileExtension != "json" {
			t.Errorf("unexpected content metadata: %s/%s", result.MimeType, result.FileExtension)
		}

		var envelope struct {
			Version    string          `json:"version"`
			ExportDate time.Time       `json:"export_date"`
			Count      int             `json:"count"`
			Logs       []AuditLogEntry `json:"logs"`
		}
		if err := json.Unmarshal([]byte(result.Content), &envelope); err != nil {
			t.Fatalf("failed to parse export: %v", err)
		}

		if envelope.Version != exportEnvelopeVersion {
			t.Errorf("expected version %q, got %q", exportEnvelopeVersion, envelope.Version)
		}
		if envelope.Count != 2 || len(envelope.Logs) != 2 {
			t.Errorf("expected 2 logs, got count=%d len=%d", envelope.Count, len(envelope.Logs))
		}
		if envelope.ExportDate.IsZero() {
			t.Error("expected export date to be set")
		}
	})

	t.Run("honors_filter_and_row_cap", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExportService(db, 2)

		for i := 0; i < 5; i++ {
			testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{
				Action: "LOGIN_FAILED", Status: models.StatusFailed,
				CreatedAt: time.Now().Add(-time.Duration(i) * time.Minute),
			})
		}
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN"})

		result, err := svc.Export(Scope{}, AuditFilter{Actions: []string{"LOGIN_FAILED"}}, ExportFormatJSON)
		testutil.AssertNoError(t, err)

		if result.Count != 2 {
			t.Errorf("expected row cap of 2 applied, got %d", result.Count)
		}
	})

	t.Run("successful_export_is_audited", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExportService(db, 0)

		user := testutil.CreateTestUser(t, db, nil)
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{})

		_, err := svc.Export(Scope{UserID: user.ID}, AuditFilter{}, ExportFormatCSV)
		testutil.AssertNoError(t, err)

		var record models.AuditLog
		if err := db.First(&record, "action = ?", ActionExportLogs).Error; err != nil {
			t.Fatalf("expected an export audit entry: %v", err)
		}
		if record.ActorUserID == nil || *record.ActorUserID != user.ID {
			t.Error("expected export entry attributed to the exporting user")
		}
		if record.Status != models.StatusSuccess {
			t.Errorf("expected SUCCESS status, got %s", record.Status)
		}
		if !strings.Contains(record.Details, `"format":"csv"`) {
			t.Errorf("expected format in details, got %s", record.Details)
		}
	})

	t.Run("rejects_unknown_format_without_side_effects", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newExportService(db, 0)

		_, err := svc.Export(Scope{}, AuditFilter{}, "xml")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		if got := countAuditLogs(t, db); got != 0 {
			t.Errorf("expected no audit entry for rejected export, got %d", got)
		}
	})
}
