package domain

import "strings"

// EngineCoverageInit is the counter-store initialization the engine emits
// when no store hook is configured.
const EngineCoverageInit = `coverage = global[gcv] || (global[gcv] = {});`

// SharedCoverageInit points counters at the harness-wide store, creating it
// when absent.
const SharedCoverageInit = `coverage = global.WCT.share.__coverage__ || (global.WCT = { share: { __coverage__: {} } }).share.__coverage__;`

// SharedCoverageStore is the expression naming the harness-wide store.
const SharedCoverageStore = `global.WCT.share.__coverage__ || (global.WCT = { share: { __coverage__: {} } }).share.__coverage__`

// CoverageKey is the fixed counter-storage identifier.
const CoverageKey = "__coverage__"

// RewriteNamespace replaces the first engine counter-store initialization in
// code with the shared one. Code without it is returned unchanged.
func RewriteNamespace(code string) string {
	return strings.Replace(code, EngineCoverageInit, SharedCoverageInit, 1)
}
