package faktur

import (
	"fmt"

	"fakturscan/internal/domain"
)

// requiredValidator checks that the money fields were captured at all.
type requiredValidator struct {
	ruleKey  string
	ruleName string
	validate func(*Invoice) []ValidationResult
}

func (v *requiredValidator) RuleKey() string                     { return v.ruleKey }
func (v *requiredValidator) RuleName() string                    { return v.ruleName }
func (v *requiredValidator) RuleType() domain.ValidationRuleType { return domain.ValidationRuleRequired }
func (v *requiredValidator) Severity() domain.ValidationSeverity {
	return domain.ValidationSeverityWarning
}

func (v *requiredValidator) Validate(data *Invoice) []ValidationResult {
	return v.validate(data)
}

func requiredResult(present bool, line int, fieldPath, ruleName string) ValidationResult {
	msg := fmt.Sprintf("%s: %s is present", ruleName, fieldPath)
	if !present {
		msg = fmt.Sprintf("%s: %s is missing", ruleName, fieldPath)
	}
	actual := "present"
	if !present {
		actual = "missing"
	}
	return ValidationResult{
		Passed: present, Kind: domain.IssueMissingField, Line: line, FieldPath: fieldPath,
		ExpectedValue: "present", ActualValue: actual, Message: msg,
	}
}

// RequiredFieldValidators returns the missing-field rules for items and text-mode totals.
func RequiredFieldValidators() []*requiredValidator {
	return []*requiredValidator{
		{
			ruleKey: "required.line_item.money_fields", ruleName: "Required: Line Item Amounts",
			validate: func(d *Invoice) []ValidationResult {
				var results []ValidationResult
				for i := range d.Items {
					item := &d.Items[i]
					for _, label := range domain.MoneyColumns {
						results = append(results, requiredResult(item.Present(label), item.LineNo,
							itemPath(item.LineNo, string(label)), "Required: Line Item Amounts"))
					}
				}
				return results
			},
		},
		{
			ruleKey: "required.summary.money_fields", ruleName: "Required: Summary Totals",
			validate: func(d *Invoice) []ValidationResult {
				if !d.TextOnly {
					return nil
				}
				results := make([]ValidationResult, 0, len(domain.MoneyColumns))
				for _, label := range domain.MoneyColumns {
					results = append(results, requiredResult(d.SummaryFound.Get(label), 0,
						"summary."+string(label), "Required: Summary Totals"))
				}
				return results
			},
		},
	}
}
