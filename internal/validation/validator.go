// =============================================================================
// E-Bilanz Converter - Validation Engine
// =============================================================================
//
// This module checks a target table against the template it is about to be
// injected into. Injection itself never fails: a name that matches nothing is
// silently ignored and a monetary value is written as given. Validation makes
// both cases visible before the document is generated.
//
// RULES:
//   unknown_tag             The table names a tag that does not occur in the
//                           template. Usually a typo or a taxonomy version
//                           mismatch.
//   invalid_monetary_value  A GAAP-CI fact gets a value that is not a plain
//                           decimal number with at most two fractional digits.
//                           Injected GAAP-CI facts always carry decimals="2".
//
// SEVERITY:
//   Findings are warnings. With TreatWarningsAsErrors they become errors and
//   the result is no longer valid.
//
// =============================================================================

package validation

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/ginjaninja78/ebilanz-converter/internal/taxonomy"
	"github.com/ginjaninja78/ebilanz-converter/internal/xbrl"
)

// Rule names.
const (
	RuleUnknownTag           = "unknown_tag"
	RuleInvalidMonetaryValue = "invalid_monetary_value"
)

// Severity levels.
const (
	SeverityWarning = "warning"
	SeverityError   = "error"
)

// monetaryPrecision is the number of fractional digits written for GAAP-CI facts.
const monetaryPrecision = 2

var decimalPattern = regexp.MustCompile(`^[+-]?[0-9]+(\.([0-9]+))?$`)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single validation finding.
type ValidationError struct {
	// Severity is SeverityWarning or SeverityError.
	Severity string

	// Tag is the table entry the finding is about.
	Tag string

	// Value is the table value, if any.
	Value string

	// Rule is the violated rule.
	Rule string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("[%s] Tag '%s': %s", strings.ToUpper(e.Severity), e.Tag, e.Message)
	}
	return fmt.Sprintf("[%s] Tag '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.Tag,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	// IsValid is true if there are no errors.
	IsValid bool

	// Errors contains all findings, warnings included, sorted by tag name.
	Errors []*ValidationError

	// ErrorCount is the number of errors.
	ErrorCount int

	// WarningCount is the number of warnings.
	WarningCount int

	// TagsValidated is the number of table entries checked.
	TagsValidated int
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// TreatWarningsAsErrors turns every finding into an error.
	// Default: false
	TreatWarningsAsErrors bool
}

// Table is the target table as seen by the validator. *tags.Table implements it.
type Table interface {
	Names() []string
	Get(name string) (*string, bool)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validate checks every table entry against the template tree.
//
// PARAMETERS:
//   - root: The parsed template.
//   - table: The target table.
//   - options: Validation options.
//
// RETURNS:
//   - The validation result.
func Validate(root *xbrl.Element, table Table, options ValidationOptions) *ValidationResult {
	severity := SeverityWarning
	if options.TreatWarningsAsErrors {
		severity = SeverityError
	}

	// Collect the taxonomy of every element name in the template.
	known := make(map[string]taxonomy.Taxonomy)
	root.Walk(func(e *xbrl.Element) {
		known[e.Name] = e.Taxonomy
	})

	result := &ValidationResult{}

	for _, name := range table.Names() {
		result.TagsValidated++
		value, _ := table.Get(name)

		class, ok := known[name]
		if !ok {
			result.add(&ValidationError{
				Severity: severity,
				Tag:      name,
				Value:    deref(value),
				Rule:     RuleUnknownTag,
				Message:  "Tag does not occur in the template",
			})
			continue
		}

		if class == taxonomy.GaapCi && value != nil {
			if message := validateMonetary(*value); message != "" {
				result.add(&ValidationError{
					Severity: severity,
					Tag:      name,
					Value:    *value,
					Rule:     RuleInvalidMonetaryValue,
					Message:  message,
				})
			}
		}
	}

	result.IsValid = result.ErrorCount == 0
	return result
}

func (r *ValidationResult) add(finding *ValidationError) {
	r.Errors = append(r.Errors, finding)
	if finding.Severity == SeverityError {
		r.ErrorCount++
	} else {
		r.WarningCount++
	}
}

// validateMonetary returns a message if value is not a valid monetary amount.
func validateMonetary(value string) string {
	match := decimalPattern.FindStringSubmatch(value)
	if match == nil {
		return fmt.Sprintf("Value '%s' is not a valid decimal number", value)
	}

	if len(match[2]) > monetaryPrecision {
		return fmt.Sprintf("Value '%s' has more than %d decimal places", value, monetaryPrecision)
	}

	return ""
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

// FormatErrors formats validation findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}

// WriteErrorLog writes validation findings to a log file next to the output.
//
// PARAMETERS:
//   - errors: The findings to write.
//   - outputPath: The path of the log file.
//
// RETURNS:
//   - An error if the file cannot be written.
func WriteErrorLog(errors []*ValidationError, outputPath string) error {
	if err := os.WriteFile(outputPath, []byte(FormatErrors(errors)), 0o644); err != nil {
		return fmt.Errorf("failed to write validation log: %w", err)
	}
	return nil
}
