package domain

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"

	m "covhook.dev/pkg/covhook/internal/model"
)

// Report is the ordered outcome of a threshold validation.
type Report struct {
	Diagnostics []string
	Passed      bool
}

// Validator checks a coverage map against thresholds.
type Validator interface {
	// Evaluate computes the report without side effects.
	Evaluate(coverage *m.CoverageMap) Report
	// Validate evaluates, writes one diagnostic per line and returns the verdict.
	Validate(coverage *m.CoverageMap) bool
}

type validator struct {
	thresholds m.Thresholds
	out        io.Writer
}

// NewValidator creates a Validator writing diagnostics to out. A nil out only
// logs them.
func NewValidator(thresholds m.Thresholds, out io.Writer) Validator {
	return &validator{thresholds: thresholds, out: out}
}

func (v *validator) Validate(coverage *m.CoverageMap) bool {
	report := v.Evaluate(coverage)

	for _, diagnostic := range report.Diagnostics {
		slog.Warn("coverage threshold not met", "diagnostic", diagnostic)

		if v.out != nil {
			_, _ = fmt.Fprintln(v.out, diagnostic)
		}
	}

	return report.Passed
}

func (v *validator) Evaluate(coverage *m.CoverageMap) Report {
	global := coverage.Summary()
	files := coverage.Files()

	perFile := make([]m.Summary, len(files))
	for i, f := range files {
		fc, _ := coverage.FileCoverageFor(f)
		perFile[i] = fc.Summary()
	}

	var diagnostics []string

	for _, metric := range m.Metrics {
		if threshold, ok := v.thresholds.Global.Threshold(metric); ok {
			pct := global[metric].Pct()
			if !meets(pct, threshold) {
				diagnostics = append(diagnostics, fmt.Sprintf(
					"Coverage threshold for %s (%s%%) not met globally (%s%%)",
					metric, formatNumber(threshold), FormatPct(pct)))
			}
		}

		if threshold, ok := v.thresholds.Each.Threshold(metric); ok {
			var offenders []string

			for i, f := range files {
				pct := perFile[i][metric].Pct()
				if !meets(pct, threshold) {
					offenders = append(offenders, fmt.Sprintf("- %s (%s%%)", f, FormatPct(pct)))
				}
			}

			if len(offenders) > 0 {
				diagnostics = append(diagnostics, fmt.Sprintf(
					"Coverage threshold for %s (%s%%) not met for:\n%s",
					metric, formatNumber(threshold), strings.Join(offenders, "\n")))
			}
		}
	}

	return Report{Diagnostics: diagnostics, Passed: len(diagnostics) == 0}
}

// meets applies a threshold to pct as reported, rounded to two decimals.
// Non-negative thresholds are floors, negative ones are allowed shortfalls
// from 100.
func meets(pct, threshold float64) bool {
	floor := threshold
	if threshold < 0 {
		floor = 100 + threshold
	}

	return roundPct(pct) >= roundPct(floor)
}

func roundPct(pct float64) float64 {
	return math.Round(pct*100) / 100
}

// FormatPct rounds pct to two decimals and trims trailing zeros.
func FormatPct(pct float64) string {
	return formatNumber(roundPct(pct))
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
