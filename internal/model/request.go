package model

import (
	"net/http"
	"sort"
	"strings"
)

// Request is the framework-agnostic view of an inbound asset request.
type Request struct {
	// Path is the URL path without the query string.
	Path string
	// UserAgent drives capability negotiation.
	UserAgent string
	// BaseURL is the mount the request arrived under, e.g. "/components/".
	BaseURL string
}

// NewRequest extracts a Request from an http.Request.
func NewRequest(r *http.Request) Request {
	return Request{
		Path:      r.URL.Path,
		UserAgent: r.Header.Get("User-Agent"),
		BaseURL:   BaseURL(r.URL.Path),
	}
}

// BaseURL returns the first path segment of p wrapped in slashes.
func BaseURL(p string) string {
	trimmed := strings.TrimPrefix(p, "/")

	idx := strings.Index(trimmed, "/")
	if idx < 0 {
		return "/"
	}

	return "/" + trimmed[:idx] + "/"
}

// Capability is a syntax or platform feature a browser supports.
type Capability string

// Known capabilities.
const (
	CapES2015        Capability = "es2015"
	CapES2016        Capability = "es2016"
	CapES2017        Capability = "es2017"
	CapES2018        Capability = "es2018"
	CapModules       Capability = "modules"
	CapPush          Capability = "push"
	CapServiceWorker Capability = "serviceworker"
)

// Capabilities is a capability profile.
type Capabilities map[Capability]struct{}

// NewCapabilities builds a profile from a list.
func NewCapabilities(caps ...Capability) Capabilities {
	out := make(Capabilities, len(caps))
	for _, c := range caps {
		out[c] = struct{}{}
	}

	return out
}

// Has reports whether c is supported.
func (c Capabilities) Has(cap Capability) bool {
	_, ok := c[cap]
	return ok
}

// String lists capabilities in sorted order.
func (c Capabilities) String() string {
	names := make([]string, 0, len(c))
	for cap := range c {
		names = append(names, string(cap))
	}

	sort.Strings(names)

	return strings.Join(names, ",")
}

// CompileTarget is the syntax level code is lowered to.
type CompileTarget string

// Compile targets from most to least advanced.
const (
	TargetES2018 CompileTarget = "es2018"
	TargetES2017 CompileTarget = "es2017"
	TargetES2016 CompileTarget = "es2016"
	TargetES2015 CompileTarget = "es2015"
	TargetES5    CompileTarget = "es5"
	// TargetNone leaves syntax untouched.
	TargetNone CompileTarget = ""
)

// CompileMode selects how the compile target is chosen.
type CompileMode string

// Compile modes.
const (
	CompileAuto   CompileMode = "auto"
	CompileAlways CompileMode = "always"
	CompileNever  CompileMode = "never"
)

// ModuleResolution selects how bare import specifiers are rewritten.
type ModuleResolution string

// Module resolution strategies.
const (
	ResolutionNode ModuleResolution = "node"
	ResolutionNone ModuleResolution = "none"
)

// TransformOptions parameterize the compatibility transform for one request.
type TransformOptions struct {
	CompileTarget    CompileTarget
	TransformModules bool
	ModuleResolution ModuleResolution
	// FilePath is the absolute on-disk path of the served file.
	FilePath string
	// IsComponentRequest marks requests for the package under test itself.
	IsComponentRequest bool
	PackageName        string
	// ComponentDir is where dependencies are installed.
	ComponentDir string
	RootDir      string
}
