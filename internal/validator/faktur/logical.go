package faktur

import (
	"fmt"

	"fakturscan/internal/domain"
)

// logicalValidator checks structural constraints on the invoice data.
type logicalValidator struct {
	ruleKey  string
	ruleName string
	severity domain.ValidationSeverity
	validate func(*Invoice) []ValidationResult
}

func (v *logicalValidator) RuleKey() string                     { return v.ruleKey }
func (v *logicalValidator) RuleName() string                    { return v.ruleName }
func (v *logicalValidator) RuleType() domain.ValidationRuleType { return domain.ValidationRuleCustom }
func (v *logicalValidator) Severity() domain.ValidationSeverity { return v.severity }

func (v *logicalValidator) Validate(data *Invoice) []ValidationResult {
	return v.validate(data)
}

func logicResult(passed bool, kind domain.IssueKind, line int, fieldPath, expected, actual, okMsg, failMsg string) ValidationResult {
	msg := okMsg
	if !passed {
		msg = failMsg
	}
	return ValidationResult{
		Passed: passed, Kind: kind, Line: line, FieldPath: fieldPath,
		ExpectedValue: expected, ActualValue: actual, Message: msg,
	}
}

// LogicalValidators returns the structural, zero-rating and OCR quality rules.
func LogicalValidators() []*logicalValidator {
	return []*logicalValidator{
		{
			ruleKey: "logic.line_item.harga_jual_gte_dpp", ruleName: "Logical: Line Item Harga Jual >= DPP",
			severity: domain.ValidationSeverityError,
			validate: func(d *Invoice) []ValidationResult {
				var results []ValidationResult
				for i := range d.Items {
					item := &d.Items[i]
					if item.Malformed > 0 || !item.Present(domain.ColumnHargaJual) || !item.Present(domain.ColumnDPP) {
						continue
					}
					hj, dpp := item.NormalizedValues.HargaJual, item.NormalizedValues.DPP
					passed := hj.Add(d.Tolerance.MinAbs).GreaterThanOrEqual(dpp)
					fp := itemPath(item.LineNo, "harga_jual")
					results = append(results, logicResult(passed, domain.IssueStructuralViolation, item.LineNo, fp,
						">= "+fmtd(dpp), fmtd(hj),
						fmt.Sprintf("Logical: Line Item Harga Jual >= DPP: %s is not below DPP", fp),
						fmt.Sprintf("Logical: Line Item Harga Jual >= DPP: %s (%s) is below DPP (%s)", fp, fmtd(hj), fmtd(dpp))))
				}
				return results
			},
		},
		{
			ruleKey: "logic.totals.harga_jual_gte_dpp", ruleName: "Logical: Total Harga Jual >= DPP",
			severity: domain.ValidationSeverityError,
			validate: func(d *Invoice) []ValidationResult {
				if d.TextOnly && (!d.SummaryFound.HargaJual || !d.SummaryFound.DPP) {
					return nil
				}
				hj, dpp := d.Summary.HargaJual, d.Summary.DPP
				passed := hj.Add(d.Tolerance.MinAbs).GreaterThanOrEqual(dpp)
				return []ValidationResult{logicResult(passed, domain.IssueStructuralViolation, 0, "summary.harga_jual",
					">= "+fmtd(dpp), fmtd(hj),
					"Logical: Total Harga Jual >= DPP: holds",
					fmt.Sprintf("Logical: Total Harga Jual >= DPP: harga jual %s is below DPP %s", fmtd(hj), fmtd(dpp)))}
			},
		},
		{
			ruleKey: "logic.line_item.non_negative", ruleName: "Logical: Line Item Non-Negative Amounts",
			severity: domain.ValidationSeverityError,
			validate: func(d *Invoice) []ValidationResult {
				var results []ValidationResult
				for i := range d.Items {
					item := &d.Items[i]
					for _, label := range domain.MoneyColumns {
						val := item.NormalizedValues.Get(label)
						fp := itemPath(item.LineNo, string(label))
						passed := !val.IsNegative()
						results = append(results, logicResult(passed, domain.IssueStructuralViolation, item.LineNo, fp,
							">= 0", fmtd(val),
							fmt.Sprintf("Logical: Line Item Non-Negative Amounts: %s is non-negative", fp),
							fmt.Sprintf("Logical: Line Item Non-Negative Amounts: %s is negative (%s)", fp, fmtd(val))))
					}
				}
				return results
			},
		},
		{
			ruleKey: "logic.ppnbm.standard_rate", ruleName: "Logical: PPnBM Requires Standard Rate",
			severity: domain.ValidationSeverityError,
			validate: func(d *Invoice) []ValidationResult {
				if !d.Summary.PPnBM.IsPositive() {
					return nil
				}
				passed := d.Rate.Equal(RateStandard)
				return []ValidationResult{logicResult(passed, domain.IssueStructuralViolation, 0, "summary.detected_tax_rate",
					RateStandard.String(), d.Rate.String(),
					"Logical: PPnBM Requires Standard Rate: rate is 11%",
					fmt.Sprintf("Logical: PPnBM Requires Standard Rate: PPnBM %s present but rate is %s", fmtd(d.Summary.PPnBM), d.Rate.String()))}
			},
		},
		{
			ruleKey: "logic.zero_rated.ppn", ruleName: "Logical: Zero-Rated Without PPN",
			severity: domain.ValidationSeverityWarning,
			validate: func(d *Invoice) []ValidationResult {
				if !d.Rate.IsZero() {
					return nil
				}
				passed := !d.Summary.PPN.IsPositive()
				return []ValidationResult{logicResult(passed, domain.IssueZeroRatedWithTax, 0, "summary.ppn",
					fmtd(d.Summary.PPN.Mul(d.Rate)), fmtd(d.Summary.PPN),
					"Logical: Zero-Rated Without PPN: no PPN charged",
					fmt.Sprintf("Logical: Zero-Rated Without PPN: zero-rated invoice carries PPN %s", fmtd(d.Summary.PPN)))}
			},
		},
		{
			ruleKey: "logic.line_item.ocr_confidence", ruleName: "Logical: OCR Confidence",
			severity: domain.ValidationSeverityWarning,
			validate: func(d *Invoice) []ValidationResult {
				var results []ValidationResult
				for i := range d.Items {
					item := &d.Items[i]
					c := item.MinSourceConfidence
					if c <= 0 {
						continue
					}
					passed := c >= d.LowOCRConfidence
					fp := itemPath(item.LineNo, "source_confidence")
					results = append(results, logicResult(passed, domain.IssueLowConfidence, item.LineNo, fp,
						fmt.Sprintf(">= %.2f", d.LowOCRConfidence), fmt.Sprintf("%.2f", c),
						fmt.Sprintf("Logical: OCR Confidence: %s is acceptable", fp),
						fmt.Sprintf("Logical: OCR Confidence: %s is low (%.2f)", fp, c)))
				}
				return results
			},
		},
	}
}
