package controller

import (
	"bytes"
	"context"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"covhook.dev/pkg/covhook/internal/domain"
	m "covhook.dev/pkg/covhook/internal/model"
)

var (
	passStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// SimpleUI implements UI using cobra Command's output.
type SimpleUI struct {
	cmd    *cobra.Command
	styled bool
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command, styled bool) *SimpleUI {
	return &SimpleUI{cmd: cmd, styled: styled}
}

// DisplayCoverage prints a per-file coverage table.
func (s *SimpleUI) DisplayCoverage(ctx context.Context, coverage *m.CoverageMap) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderCoverageTable(coverage))

	return nil
}

func renderCoverageTable(coverage *m.CoverageMap) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	header := []string{"File"}

	for _, metric := range m.Metrics {
		header = append(header, string(metric))
	}

	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
	})

	for _, f := range coverage.Files() {
		fc, _ := coverage.FileCoverageFor(f)
		table.Append(summaryRow(f, fc.Summary()))
	}

	table.SetFooter(summaryRow(fmt.Sprintf("All files (%d)", coverage.Len()), coverage.Summary()))
	table.Render()

	return tableBuffer.String()
}

func summaryRow(label string, sum m.Summary) []string {
	row := []string{label}

	for _, metric := range m.Metrics {
		counts := sum[metric]
		row = append(row, fmt.Sprintf("%s%% (%d/%d)", domain.FormatPct(counts.Pct()), counts.Covered, counts.Total))
	}

	return row
}

// DisplayVerdict prints the overall threshold outcome.
func (s *SimpleUI) DisplayVerdict(ctx context.Context, report domain.Report) {
	if err := ctx.Err(); err != nil {
		return
	}

	if report.Passed {
		s.printf("%s\n", s.style(passStyle, "Coverage thresholds met"))
		return
	}

	s.printf("%s\n", s.style(failStyle, fmt.Sprintf("Coverage thresholds not met (%d failure(s))", len(report.Diagnostics))))
}

// DisplayServing prints where the coverage server listens.
func (s *SimpleUI) DisplayServing(ctx context.Context, info ServeInfo) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("Serving %s as %q on http://%s\n", info.Root, info.PackageName, info.Addr)
	s.printf("%s\n", s.style(dimStyle, "Coverage collected at "+info.CollectPath))

	if info.Watching {
		s.printf("%s\n", s.style(dimStyle, "Watching for source changes"))
	}
}

// DisplayText prints text verbatim.
func (s *SimpleUI) DisplayText(ctx context.Context, text string) {
	if err := ctx.Err(); err != nil {
		return
	}

	s.printf("%s", text)
}

func (s *SimpleUI) style(style lipgloss.Style, text string) string {
	if !s.styled {
		return text
	}

	return style.Render(text)
}

func (s *SimpleUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}
