// Package validation checks written outputs before any source is removed.
package validation

import (
	"fmt"
	"os"
	"strings"

	"github.com/five82/imgtidy/internal/codec"
)

// Options contains optional parameters for validation.
type Options struct {
	ExpectedFormat     string
	ExpectedDimensions *[2]int
}

// Step is a single validation check.
type Step struct {
	Name    string
	Passed  bool
	Details string
}

// Result holds the outcome of validating one output file.
type Result struct {
	Format             string
	ActualDimensions   [2]int
	ExpectedDimensions *[2]int
	Size               int64
	Steps              []Step
}

// IsValid reports whether every step passed.
func (r *Result) IsValid() bool {
	for _, s := range r.Steps {
		if !s.Passed {
			return false
		}
	}
	return true
}

// Failures returns the details of failed steps joined for display.
func (r *Result) Failures() string {
	var msgs []string
	for _, s := range r.Steps {
		if !s.Passed {
			msgs = append(msgs, s.Name+": "+s.Details)
		}
	}
	return strings.Join(msgs, "; ")
}

// ValidateOutput checks that outputPath is a non-empty, decodable image of
// the expected format and dimensions. An error is returned only when the
// file cannot be inspected at all.
func ValidateOutput(outputPath string, opts Options) (*Result, error) {
	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat output: %w", err)
	}

	result := &Result{Size: info.Size()}
	if info.Size() == 0 {
		result.Steps = append(result.Steps, Step{Name: "Size", Passed: false, Details: "Output is empty"})
		return result, nil
	}
	result.Steps = append(result.Steps, Step{Name: "Size", Passed: true, Details: fmt.Sprintf("%d bytes", info.Size())})

	w, h, format, err := codec.DecodeConfig(outputPath)
	if err != nil {
		result.Steps = append(result.Steps, Step{Name: "Decode", Passed: false, Details: err.Error()})
		return result, nil
	}
	result.Format = format
	result.ActualDimensions = [2]int{w, h}
	result.Steps = append(result.Steps, Step{Name: "Decode", Passed: true, Details: "Header readable"})

	if opts.ExpectedFormat != "" {
		result.Steps = append(result.Steps, validateFormat(format, opts.ExpectedFormat))
	}

	if opts.ExpectedDimensions != nil {
		result.ExpectedDimensions = opts.ExpectedDimensions
		ok, msg := validateDimensions(w, h, opts.ExpectedDimensions[0], opts.ExpectedDimensions[1])
		result.Steps = append(result.Steps, Step{Name: "Dimensions", Passed: ok, Details: msg})
	}

	return result, nil
}

func validateFormat(actual, expected string) Step {
	if strings.EqualFold(actual, expected) {
		return Step{Name: "Format", Passed: true, Details: "Output is " + actual}
	}
	return Step{Name: "Format", Passed: false, Details: fmt.Sprintf("Expected %s, found %s", expected, actual)}
}

// validateDimensions checks that dimensions match expected values.
func validateDimensions(actualW, actualH, expectedW, expectedH int) (bool, string) {
	if actualW == expectedW && actualH == expectedH {
		return true, fmt.Sprintf("Dimensions match: %dx%d", actualW, actualH)
	}
	return false, fmt.Sprintf("Dimension mismatch: got %dx%d, expected %dx%d",
		actualW, actualH, expectedW, expectedH)
}
