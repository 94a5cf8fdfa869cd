package services

import (
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	apperrors "vaultadmin/internal/errors"
	"vaultadmin/internal/models"
)

// Action tags with analytics significance.
const (
	ActionLoginFailed = "LOGIN_FAILED"

	ActionCreatePassword = "CREATE_PASSWORD"
	ActionUpdatePassword = "UPDATE_PASSWORD"
	ActionDeletePassword = "DELETE_PASSWORD"
)

// passwordChangeActions is the fixed action set counted as password changes.
var passwordChangeActions = []string{ActionCreatePassword, ActionUpdatePassword, ActionDeletePassword}

// securityAlertStatuses are the statuses counted as security alerts.
var securityAlertStatuses = []string{models.StatusFailed, models.StatusBlocked, models.StatusWarning}

// trendPeriodDays maps the exposed trend periods to day counts.
var trendPeriodDays = map[string]int{
	"7d":  7,
	"30d": 30,
	"90d": 90,
	"1y":  365,
}

const (
	minStatsWindowDays = 1
	maxStatsWindowDays = 365
)

// analyticsService computes windowed counts and period-over-period deltas
// over the audit event store.
type analyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return &analyticsService{db: db}
}

// queryMod narrows an audit_logs query to one metric. Stats and Trend pull
// their predicates from the same table so the two read paths cannot diverge.
type queryMod func(q *gorm.DB) *gorm.DB

func failedLoginsMod(q *gorm.DB) *gorm.DB {
	return q.Where("audit_logs.action = ?", ActionLoginFailed)
}

func passwordChangesMod(q *gorm.DB) *gorm.DB {
	return q.Where("audit_logs.action IN ?", passwordChangeActions)
}

func securityAlertsMod(q *gorm.DB) *gorm.DB {
	return q.Where("audit_logs.status IN ?", securityAlertStatuses)
}

// metricMods maps trend metrics to their predicates.
var metricMods = map[string]queryMod{
	"passwords": func(q *gorm.DB) *gorm.DB {
		return q.Where("audit_logs.resource = ?", "Password")
	},
	"users": func(q *gorm.DB) *gorm.DB {
		return q.Where("audit_logs.resource = ?", "User")
	},
	"logins": func(q *gorm.DB) *gorm.DB {
		return q.Where("audit_logs.action LIKE ?", "LOGIN%")
	},
	"security_events": securityAlertsMod,
	"collaboration": func(q *gorm.DB) *gorm.DB {
		return q.Where("audit_logs.resource IN ?", []string{"Team", "SharedFolder"})
	},
}

// Stats computes counters for the current window [now-d, now] and percent
// change against the previous, equal-length adjacent window [now-2d, now-d].
func (s *analyticsService) Stats(scope Scope, windowDays int) (*AuditStats, error) {
	if windowDays < minStatsWindowDays || windowDays > maxStatsWindowDays {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("days must be between %d and %d", minStatsWindowDays, maxStatsWindowDays))
	}

	now := time.Now()
	windowStart := now.AddDate(0, 0, -windowDays)
	prevStart := now.AddDate(0, 0, -2*windowDays)

	totalEvents, err := s.countWindow(scope, windowStart, now, nil)
	if err != nil {
		return nil, err
	}

	failedCur, err := s.countWindow(scope, windowStart, now, failedLoginsMod)
	if err != nil {
		return nil, err
	}
	failedPrev, err := s.countWindow(scope, prevStart, windowStart, failedLoginsMod)
	if err != nil {
		return nil, err
	}

	passwordChanges, err := s.countWindow(scope, windowStart, now, passwordChangesMod)
	if err != nil {
		return nil, err
	}

	alertsCur, err := s.countWindow(scope, windowStart, now, securityAlertsMod)
	if err != nil {
		return nil, err
	}
	alertsPrev, err := s.countWindow(scope, prevStart, windowStart, securityAlertsMod)
	if err != nil {
		return nil, err
	}

	return &AuditStats{
		TotalEvents:     totalEvents,
		FailedLogins:    metricStat(failedCur, failedPrev),
		PasswordChanges: passwordChanges,
		SecurityAlerts:  metricStat(alertsCur, alertsPrev),
	}, nil
}

// Trend returns a day-bucketed series for one metric over one period. It is
// the lower-fidelity, chart-facing variant of Stats and rides on the same
// metric predicates and window arithmetic.
func (s *analyticsService) Trend(scope Scope, metric, period string) ([]TrendPoint, error) {
	mod, ok := metricMods[metric]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown trend metric: "+metric)
	}
	days, ok := trendPeriodDays[period]
	if !ok {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown trend period: "+period)
	}
	return s.bucketDaily(scope, days, mod)
}

// countWindow counts entries in [from, to) narrowed by an optional metric
// predicate, always within the tenant scope.
func (s *analyticsService) countWindow(scope Scope, from, to time.Time, mod queryMod) (int64, error) {
	q := s.db.Model(&models.AuditLog{}).
		Where("audit_logs.created_at >= ? AND audit_logs.created_at < ?", from, to)
	if scope.TenantID != nil {
		q = q.Where("audit_logs.tenant_id = ?", *scope.TenantID)
	}
	if mod != nil {
		q = mod(q)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}

// dayExpr returns the SQL expression that truncates created_at to a
// YYYY-MM-DD string for the active dialect.
func (s *analyticsService) dayExpr() string {
	if s.db.Dialector.Name() == "sqlite" {
		return "strftime('%Y-%m-%d', audit_logs.created_at)"
	}
	return "to_char(audit_logs.created_at, 'YYYY-MM-DD')"
}

// bucketDaily groups matching entries per calendar day over the trailing
// window, filling empty days with zero so charts get a dense series.
func (s *analyticsService) bucketDaily(scope Scope, days int, mod queryMod) ([]TrendPoint, error) {
	now := time.Now()
	start := now.AddDate(0, 0, -(days - 1)).Truncate(24 * time.Hour)

	day := s.dayExpr()
	q := s.db.Model(&models.AuditLog{}).
		Select(day+" AS date, COUNT(*) AS count").
		Where("audit_logs.created_at >= ?", start).
		Group(day)
	if scope.TenantID != nil {
		q = q.Where("audit_logs.tenant_id = ?", *scope.TenantID)
	}
	if mod != nil {
		q = mod(q)
	}

	var rows []TrendPoint
	if err := q.Scan(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Date] = r.Count
	}

	series := make([]TrendPoint, 0, days)
	for d := 0; d < days; d++ {
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		series = append(series, TrendPoint{Date: date, Count: counts[date]})
	}
	return series, nil
}

// metricStat formats a current/previous pair for a metric where growth is
// bad (failed logins, security alerts). An empty previous window reports
// "0%" no matter the current value: there is no meaningful baseline, and an
// infinite increase would only mislead.
func metricStat(current, previous int64) MetricStat {
	stat := MetricStat{Value: current, Change: "0%", ChangeType: "positive"}
	if previous == 0 {
		return stat
	}

	pct := math.Round(float64(current-previous) / float64(previous) * 100)
	stat.Change = fmt.Sprintf("%d%%", int64(math.Abs(pct)))
	if current > previous {
		stat.ChangeType = "negative"
	}
	return stat
}
