package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"vaultadmin/internal/models"
	"vaultadmin/internal/testutil"
)

func countMatching(t *testing.T, db *gorm.DB, f AuditFilter, tenantID *string) int64 {
	t.Helper()
	var count int64
	if err := applyAuditFilter(db.Model(&models.AuditLog{}), f, tenantID).Count(&count).Error; err != nil {
		t.Fatalf("filter query failed: %v", err)
	}
	return count
}

func TestApplyAuditFilter(t *testing.T) {
	t.Run("empty_filter_matches_all", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN"})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "CREATE_PASSWORD", Resource: "Password"})

		if got := countMatching(t, db, AuditFilter{}, nil); got != 2 {
			t.Errorf("expected 2 matches, got %d", got)
		}
	})

	t.Run("membership_filters_and_compose", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN", Status: models.StatusSuccess})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN_FAILED", Status: models.StatusFailed})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN_FAILED", Status: models.StatusBlocked})

		f := AuditFilter{
			Actions:  []string{"LOGIN_FAILED"},
			Statuses: []string{models.StatusFailed},
		}
		if got := countMatching(t, db, f, nil); got != 1 {
			t.Errorf("expected 1 match for ANDed filters, got %d", got)
		}

		// Dropping a sub-filter can only widen the result set.
		f.Statuses = nil
		if got := countMatching(t, db, f, nil); got != 2 {
			t.Errorf("expected 2 matches without status filter, got %d", got)
		}
	})

	t.Run("all_matching_value_equals_omitted", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Status: models.StatusSuccess})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Status: models.StatusFailed})

		omitted := countMatching(t, db, AuditFilter{}, nil)
		allValues := countMatching(t, db, AuditFilter{
			Statuses: []string{models.StatusSuccess, models.StatusFailed, models.StatusWarning, models.StatusBlocked},
		}, nil)
		if omitted != allValues {
			t.Errorf("omitted filter matched %d but all-matching filter matched %d", omitted, allValues)
		}
	})

	t.Run("date_range_closed_interval", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		now := time.Now()
		old := testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{CreatedAt: now.AddDate(0, 0, -10)})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{CreatedAt: now})

		start := old.CreatedAt.Add(-time.Hour)
		end := old.CreatedAt.Add(time.Hour)
		f := AuditFilter{StartDate: &start, EndDate: &end}
		if got := countMatching(t, db, f, nil); got != 1 {
			t.Errorf("expected 1 match inside range, got %d", got)
		}

		// Either bound alone works.
		f = AuditFilter{StartDate: &end}
		if got := countMatching(t, db, f, nil); got != 1 {
			t.Errorf("expected 1 match after start bound, got %d", got)
		}
	})

	t.Run("degenerate_date_range_matches_nothing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{})

		now := time.Now()
		earlier := now.AddDate(0, 0, -1)
		f := AuditFilter{StartDate: &now, EndDate: &earlier}
		if got := countMatching(t, db, f, nil); got != 0 {
			t.Errorf("expected degenerate range to match nothing, got %d", got)
		}
	})

	t.Run("search_text_is_case_insensitive_and_narrows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		actor := testutil.CreateTestUser(t, db, nil)
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{ActorUserID: &actor.ID, Action: "CREATE_PASSWORD", Resource: "Password"})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN"})

		if got := countMatching(t, db, AuditFilter{SearchText: "password"}, nil); got != 1 {
			t.Errorf("expected 1 match on action substring, got %d", got)
		}

		// Matches actor email through the join.
		if got := countMatching(t, db, AuditFilter{SearchText: actor.Email}, nil); got != 1 {
			t.Errorf("expected 1 match on actor email, got %d", got)
		}

		// The free-text OR still ANDs with other constraints.
		f := AuditFilter{SearchText: "password", Statuses: []string{models.StatusBlocked}}
		if got := countMatching(t, db, f, nil); got != 0 {
			t.Errorf("expected search text to narrow, not widen; got %d", got)
		}
	})

	t.Run("has_details_tri_state", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Details: `{"k":"v"}`})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{})

		if got := countMatching(t, db, AuditFilter{HasDetails: DetailsAny}, nil); got != 2 {
			t.Errorf("DetailsAny: expected 2, got %d", got)
		}
		if got := countMatching(t, db, AuditFilter{HasDetails: DetailsPresent}, nil); got != 1 {
			t.Errorf("DetailsPresent: expected 1, got %d", got)
		}
		if got := countMatching(t, db, AuditFilter{HasDetails: DetailsAbsent}, nil); got != 1 {
			t.Errorf("DetailsAbsent: expected 1, got %d", got)
		}
	})

	t.Run("tenant_scope_always_applied", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		tenantA := testutil.CreateTestTenant(t, db)
		tenantB := testutil.CreateTestTenant(t, db)
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{TenantID: &tenantA.ID})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{TenantID: &tenantB.ID})

		if got := countMatching(t, db, AuditFilter{}, &tenantA.ID); got != 1 {
			t.Errorf("expected tenant scope to isolate, got %d", got)
		}
		if got := countMatching(t, db, AuditFilter{}, nil); got != 2 {
			t.Errorf("expected tenant-less scope to see all, got %d", got)
		}
	})
}

func TestSimpleFilter(t *testing.T) {
	t.Run("single_values_become_one_element_filters", func(t *testing.T) {
		f := SimpleFilter("text", "LOGIN", models.StatusFailed, "user-1", nil, nil)

		if len(f.Actions) != 1 || f.Actions[0] != "LOGIN" {
			t.Errorf("expected one-element actions, got %v", f.Actions)
		}
		if len(f.Statuses) != 1 || f.Statuses[0] != models.StatusFailed {
			t.Errorf("expected one-element statuses, got %v", f.Statuses)
		}
		if len(f.UserIDs) != 1 || f.UserIDs[0] != "user-1" {
			t.Errorf("expected one-element user ids, got %v", f.UserIDs)
		}
		if f.SearchText != "text" {
			t.Errorf("expected search text passthrough, got %q", f.SearchText)
		}
	})

	t.Run("empty_values_impose_no_constraint", func(t *testing.T) {
		f := SimpleFilter("", "", "", "", nil, nil)
		if f.Actions != nil || f.Statuses != nil || f.UserIDs != nil {
			t.Errorf("expected empty filter, got %+v", f)
		}
	})

	t.Run("composes_identically_to_advanced", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)

		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN_FAILED", Status: models.StatusFailed})
		testutil.CreateTestAuditLog(t, db, testutil.AuditLogSpec{Action: "LOGIN"})

		simple := SimpleFilter("", "LOGIN_FAILED", "", "", nil, nil)
		advanced := AuditFilter{Actions: []string{"LOGIN_FAILED"}}

		if a, b := countMatching(t, db, simple, nil), countMatching(t, db, advanced, nil); a != b {
			t.Errorf("simple and advanced filters diverged: %d vs %d", a, b)
		}
	})
}
