// Package controller provides output adapters for displaying coverage results.
package controller

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"covhook.dev/pkg/covhook/internal/domain"
	m "covhook.dev/pkg/covhook/internal/model"
)

// UI defines how commands present their results.
type UI interface {
	DisplayCoverage(ctx context.Context, coverage *m.CoverageMap) error
	DisplayVerdict(ctx context.Context, report domain.Report)
	DisplayServing(ctx context.Context, info ServeInfo)
	DisplayText(ctx context.Context, text string)
}

// ServeInfo describes a running coverage server.
type ServeInfo struct {
	Addr        string
	Root        string
	PackageName string
	CollectPath string
	Watching    bool
}

// NewUI returns the UI for cmd. Styling is applied only when styled is set.
func NewUI(cmd *cobra.Command, styled bool) UI {
	return NewSimpleUI(cmd, styled)
}

// IsTTY reports whether f is attached to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
