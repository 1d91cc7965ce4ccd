package controller

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covhook.dev/pkg/covhook/internal/domain"
	m "covhook.dev/pkg/covhook/internal/model"
)

func newTestUI() (*SimpleUI, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	return NewSimpleUI(cmd, false), out
}

func sampleCoverage() *m.CoverageMap {
	fc := m.NewFileCoverage("/src/a.js")
	fc.StatementMap["0"] = m.Range{Start: m.Position{Line: 1}}
	fc.StatementMap["1"] = m.Range{Start: m.Position{Line: 2}}
	fc.StatementMap["2"] = m.Range{Start: m.Position{Line: 3}}
	fc.S["0"], fc.S["1"], fc.S["2"] = 1, 1, 0
	fc.F["0"] = 1
	fc.B["0"] = []int{1, 0}

	cm := m.NewCoverageMap()
	cm.AddFileCoverage(fc)
	cm.AddFileCoverage(m.NewFileCoverage("/src/empty.js"))

	return cm
}

func TestSimpleUI_DisplayCoverage(t *testing.T) {
	ui, out := newTestUI()

	require.NoError(t, ui.DisplayCoverage(context.Background(), sampleCoverage()))

	text := out.String()
	assert.Contains(t, text, "STATEMENTS")
	assert.Contains(t, text, "/src/a.js")
	assert.Contains(t, text, "66.67% (2/3)")
	assert.Contains(t, text, "50% (1/2)")
	assert.Contains(t, text, "100% (0/0)")
	assert.Contains(t, text, "ALL FILES (2)")
	assert.Less(t, strings.Index(text, "/src/a.js"), strings.Index(text, "/src/empty.js"))
}

func TestSimpleUI_DisplayVerdict(t *testing.T) {
	ui, out := newTestUI()

	ui.DisplayVerdict(context.Background(), domain.Report{Passed: true})
	ui.DisplayVerdict(context.Background(), domain.Report{Diagnostics: []string{"a", "b"}})

	assert.Equal(t, "Coverage thresholds met\nCoverage thresholds not met (2 failure(s))\n", out.String())
}

func TestSimpleUI_DisplayServing(t *testing.T) {
	ui, out := newTestUI()

	ui.DisplayServing(context.Background(), ServeInfo{
		Addr:        "127.0.0.1:8081",
		Root:        "/srv/app",
		PackageName: "my-el",
		CollectPath: domain.DefaultCollectPath,
		Watching:    true,
	})

	assert.Equal(t, `Serving /srv/app as "my-el" on http://127.0.0.1:8081
Coverage collected at /__coverage__
Watching for source changes
`, out.String())
}

func TestSimpleUI_CanceledContext(t *testing.T) {
	ui, out := newTestUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, ui.DisplayCoverage(ctx, sampleCoverage()), context.Canceled)
	ui.DisplayText(ctx, "ignored")
	assert.Empty(t, out.String())
}

func TestSimpleUI_StyledVerdictKeepsText(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	NewSimpleUI(cmd, true).DisplayVerdict(context.Background(), domain.Report{Passed: true})

	assert.Contains(t, out.String(), "Coverage thresholds met")
}
