package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRewriteNamespace(t *testing.T) {
	t.Run("replaces first occurrence only", func(t *testing.T) {
		code := "var " + EngineCoverageInit + "\nvar " + EngineCoverageInit

		got := RewriteNamespace(code)

		assert.Equal(t, "var "+SharedCoverageInit+"\nvar "+EngineCoverageInit, got)
	})

	t.Run("leaves other code untouched", func(t *testing.T) {
		code := "var coverage = other();"
		assert.Equal(t, code, RewriteNamespace(code))
	})

	t.Run("idempotent on rewritten code", func(t *testing.T) {
		once := RewriteNamespace("x; " + EngineCoverageInit)
		assert.Equal(t, once, RewriteNamespace(once))
	})
}
