package services

import (
	"testing"
	"time"

	"vaultadmin/internal/models"
	"vaultadmin/internal/testutil"
)

func TestMetricStat(t *testing.T) {
	tests := []struct {
		name       string
		current    int64
		previous   int64
		change     string
		changeType string
	}{
		{"empty_baseline_reports_zero", 10, 0, "0%", "positive"},
		{"both_zero", 0, 0, "0%", "positive"},
		{"increase_is_negative", 10, 4, "150%", "negative"},
		{"decrease_is_positive", 5, 10, "50%", "positive"},
		{"flat_is_positive", 7, 7, "0%", "positive"},
		{"drop_to_zero", 0, 8, "100%", "positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stat := metricStat(tt.current, tt.previous)
			if stat.Value != tt.current {
				t.Errorf("expected value %d, got %d", tt.current, stat.Value)
			}
			if stat.Change != tt.change {
				t.Errorf("expected change %q, got %q", tt.change, stat.Change)
			}
			if stat.ChangeType != tt.changeType {
				t.Errorf("expected change type %q, got %q", tt.changeType, stat.ChangeType)
			}
		})
	}
}

func TestAnalyticsService_Stats(t *testing.T) {
	t.Run("counts_current_window_against_previous", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)

		now := time.Now()
		current := now.AddDate(0, 0, -3)
		previous := now.AddDate(0, 0, -10)

		// 2 failed logins this week, 4 the week before.
		for i := 0; i < 2; i++ {
			testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{
				Action: ActionLoginFailed, Status: models.StatusFailed, CreatedAt: current,
			})
		}
		for i := 0; i < 4; i++ {
			testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{
				Action: ActionLoginFailed, Status: models.StatusFailed, CreatedAt: previous,
			})
		}
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{
			Action: ActionCreatePassword, Resource: "Password", CreatedAt: current,
		})

		stats, err := svc.Stats(Scope{}, 7)
		testutil.AssertNoError(t, err)

		if stats.TotalEvents != 3 {
			t.Errorf("expected 3 total events in window, got %d", stats.TotalEvents)
		}
		if stats.FailedLogins.Value != 2 {
			t.Errorf("expected 2 failed logins, got %d", stats.FailedLogins.Value)
		}
		if stats.FailedLogins.Change != "50%" || stats.FailedLogins.ChangeType != "positive" {
			t.Errorf("expected 50%%/positive, got %s/%s", stats.FailedLogins.Change, stats.FailedLogins.ChangeType)
		}
		if stats.PasswordChanges != 1 {
			t.Errorf("expected 1 password change, got %d", stats.PasswordChanges)
		}
	})

	t.Run("rising_alerts_flagged_negative", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)

		now := time.Now()
		for i := 0; i < 10; i++ {
			testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{
				Status: models.StatusBlocked, CreatedAt: now.AddDate(0, 0, -2),
			})
		}
		for i := 0; i < 4; i++ {
			testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{
				Status: models.StatusWarning, CreatedAt: now.AddDate(0, 0, -10),
			})
		}

		stats, err := svc.Stats(Scope{}, 7)
		testutil.AssertNoError(t, err)

		if stats.SecurityAlerts.Value != 10 {
			t.Errorf("expected 10 alerts, got %d", stats.SecurityAlerts.Value)
		}
		if stats.SecurityAlerts.Change != "150%" || stats.SecurityAlerts.ChangeType != "negative" {
			t.Errorf("expected 150%%/negative, got %s/%s", stats.SecurityAlerts.Change, stats.SecurityAlerts.ChangeType)
		}
	})

	t.Run("rejects_out_of_range_window", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)

		_, err := svc.Stats(Scope{}, 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.Stats(Scope{}, 366)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("scoped_to_tenant", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)

		tenant := testutil.CreateTestTenant(t, db)
		other := testutil.CreateTestTenant(t, db)
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{TenantID: &tenant.ID})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{TenantID: &other.ID})

		stats, err := svc.Stats(Scope{TenantID: &tenant.ID}, 7)
		testutil.AssertNoError(t, err)
		if stats.TotalEvents != 1 {
			t.Errorf("expected 1 event in tenant scope, got %d", stats.TotalEvents)
		}
	})
}

func TestAnalyticsService_Trend(t *testing.T) {
	t.Run("returns_dense_zero_filled_series", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)

		// Two password events today, none on any other day.
		for i := 0; i < 2; i++ {
			testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{
				Action: ActionCreatePassword, Resource: "Password", CreatedAt: time.Now(),
			})
		}
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN"})

		series, err := svc.Trend(Scope{}, "passwords", "7d")
		testutil.AssertNoError(t, err)

		if len(series) != 7 {
			t.Fatalf("expected 7 points, got %d", len(series))
		}
		var total int64
		for _, p := range series {
			if p.Date == "" {
				t.Error("expected every point to carry a date")
			}
			total += p.Count
		}
		if total != 2 {
			t.Errorf("expected 2 password events across the series, got %d", total)
		}
	})

	t.Run("excludes_events_outside_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)

		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{
			Action: "LOGIN", CreatedAt: time.Now().AddDate(0, 0, -20),
		})

		series, err := svc.Trend(Scope{}, "logins", "7d")
		testutil.AssertNoError(t, err)

		var total int64
		for _, p := range series {
			total += p.Count
		}
		if total != 0 {
			t.Errorf("expected no events inside the 7d window, got %d", total)
		}
	})

	t.Run("rejects_unknown_metric_and_period", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAnalyticsService(db)

		_, err := svc.Trend(Scope{}, "bogus", "7d")
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		_, err = svc.Trend(Scope{}, "logins", "14d")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}
