// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("audit_status", validateAuditStatus)
		_ = v.RegisterValidation("export_format", validateExportFormat)
		_ = v.RegisterValidation("trend_metric", validateTrendMetric)
		_ = v.RegisterValidation("trend_period", validateTrendPeriod)
		_ = v.RegisterValidation("user_role", validateUserRole)
	}
}

func validateAuditStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "SUCCESS", "FAILED", "WARNING", "BLOCKED":
		return true
	}
	return false
}

func validateExportFormat(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "csv", "json":
		return true
	}
	return false
}

func validateTrendMetric(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "passwords", "users", "logins", "security_events", "collaboration":
		return true
	}
	return false
}

func validateTrendPeriod(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "7d", "30d", "90d", "1y":
		return true
	}
	return false
}

func validateUserRole(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "admin", "auditor", "member":
		return true
	}
	return false
}
