package validator

import (
	"fakturscan/internal/domain"
	"fakturscan/internal/validator/faktur"
)

// Validator is the interface for a single built-in validation rule.
type Validator interface {
	Validate(data *faktur.Invoice) []faktur.ValidationResult
	RuleKey() string
	RuleName() string
	RuleType() domain.ValidationRuleType
	Severity() domain.ValidationSeverity
}
