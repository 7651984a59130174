package faktur

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fakturscan/internal/domain"
	"fakturscan/internal/normalize"
)

// mathValidator checks arithmetic relationships between amounts.
type mathValidator struct {
	ruleKey  string
	ruleName string
	ruleType domain.ValidationRuleType
	severity domain.ValidationSeverity
	validate func(*Invoice) []ValidationResult
}

func (v *mathValidator) RuleKey() string                     { return v.ruleKey }
func (v *mathValidator) RuleName() string                    { return v.ruleName }
func (v *mathValidator) RuleType() domain.ValidationRuleType { return v.ruleType }
func (v *mathValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *mathValidator) Validate(data *Invoice) []ValidationResult {
	return v.validate(data)
}

func fmtd(d decimal.Decimal) string {
	return normalize.FormatDecimal(d)
}

func mathResult(passed bool, kind domain.IssueKind, line int, fieldPath, expected, actual, ruleName string) ValidationResult {
	msg := fmt.Sprintf("%s: %s matches", ruleName, fieldPath)
	if !passed {
		msg = fmt.Sprintf("%s: %s mismatch (expected %s, got %s)", ruleName, fieldPath, expected, actual)
	}
	return ValidationResult{
		Passed: passed, Kind: kind, Line: line, FieldPath: fieldPath,
		ExpectedValue: expected, ActualValue: actual, Message: msg,
	}
}

// checkable reports whether an item's DPP and PPN can take part in arithmetic.
func checkable(it *domain.LineItem) bool {
	return it.Malformed == 0 && it.Present(domain.ColumnDPP) && it.Present(domain.ColumnPPN)
}

func reconcileDeclared(label domain.ColumnLabel, ruleName string, computed func(*Invoice) decimal.Decimal) func(*Invoice) []ValidationResult {
	return func(d *Invoice) []ValidationResult {
		declared, ok := d.Declared[label]
		if !ok {
			return nil
		}
		got := computed(d)
		passed := d.Tolerance.Within(got, declared)
		fp := "declared." + string(label)
		return []ValidationResult{mathResult(passed, domain.IssueTotalsMismatch, 0, fp, fmtd(declared), fmtd(got), ruleName)}
	}
}

// MathValidators returns the PPN consistency and totals reconciliation rules.
// The summary is computed from the items, so the item sum is checked against
// the printed totals by the recon.declared rules.
func MathValidators() []*mathValidator {
	return []*mathValidator{
		{
			ruleKey: "math.line_item.ppn", ruleName: "Math: Line Item PPN",
			ruleType: domain.ValidationRuleSumCheck, severity: domain.ValidationSeverityError,
			validate: func(d *Invoice) []ValidationResult {
				if d.Rate.IsZero() {
					return nil
				}
				results := make([]ValidationResult, 0, len(d.Items))
				for i := range d.Items {
					item := &d.Items[i]
					if !checkable(item) {
						continue
					}
					expected := item.NormalizedValues.DPP.Mul(d.Rate)
					passed := d.Tolerance.Within(item.NormalizedValues.PPN, expected)
					fp := itemPath(item.LineNo, "ppn")
					results = append(results, mathResult(passed, domain.IssueToleranceViolation, item.LineNo, fp,
						fmtd(expected), fmtd(item.NormalizedValues.PPN), "Math: Line Item PPN"))
				}
				return results
			},
		},
		{
			ruleKey: "math.totals.ppn", ruleName: "Math: Total PPN",
			ruleType: domain.ValidationRuleSumCheck, severity: domain.ValidationSeverityError,
			validate: func(d *Invoice) []ValidationResult {
				if d.Rate.IsZero() {
					return nil
				}
				if d.TextOnly && (!d.SummaryFound.DPP || !d.SummaryFound.PPN) {
					return nil
				}
				expected := d.Summary.DPP.Mul(d.Rate)
				passed := d.Tolerance.Within(d.Summary.PPN, expected)
				return []ValidationResult{mathResult(passed, domain.IssueToleranceViolation, 0, "summary.ppn",
					fmtd(expected), fmtd(d.Summary.PPN), "Math: Total PPN")}
			},
		},
		{
			ruleKey: "recon.declared.harga_jual", ruleName: "Reconciliation: Declared Harga Jual",
			ruleType: domain.ValidationRuleReconciliation, severity: domain.ValidationSeverityCritical,
			validate: reconcileDeclared(domain.ColumnHargaJual, "Reconciliation: Declared Harga Jual",
				func(d *Invoice) decimal.Decimal { return d.Summary.HargaJual }),
		},
		{
			ruleKey: "recon.declared.dpp", ruleName: "Reconciliation: Declared DPP",
			ruleType: domain.ValidationRuleReconciliation, severity: domain.ValidationSeverityCritical,
			validate: reconcileDeclared(domain.ColumnDPP, "Reconciliation: Declared DPP",
				func(d *Invoice) decimal.Decimal { return d.Summary.DPP }),
		},
		{
			ruleKey: "recon.declared.ppn", ruleName: "Reconciliation: Declared PPN",
			ruleType: domain.ValidationRuleReconciliation, severity: domain.ValidationSeverityCritical,
			validate: reconcileDeclared(domain.ColumnPPN, "Reconciliation: Declared PPN",
				func(d *Invoice) decimal.Decimal { return d.Summary.PPN }),
		},
	}
}
