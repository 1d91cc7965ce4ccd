package domain

import (
	"context"
	"path/filepath"

	m "covhook.dev/pkg/covhook/internal/model"
)

// Transformer downgrades instrumented code for a requester's capabilities.
type Transformer interface {
	Transform(ctx context.Context, code string, opts m.TransformOptions) (string, error)
}

// compileLevels is the preference order for compile targets, most advanced first.
var compileLevels = []m.CompileTarget{m.TargetES2018, m.TargetES2017, m.TargetES2016, m.TargetES2015}

// CompileTarget picks the syntax level to lower to. "always" forces es5,
// "never" disables lowering, "auto" takes the most advanced supported level.
func CompileTarget(caps m.Capabilities, mode m.CompileMode) m.CompileTarget {
	switch mode {
	case m.CompileAlways:
		return m.TargetES5
	case m.CompileNever:
		return m.TargetNone
	}

	for _, level := range compileLevels {
		if caps.Has(m.Capability(level)) {
			return level
		}
	}

	return m.TargetES5
}

// TransformConfig is the request-independent part of the transform setup.
type TransformConfig struct {
	Root                     string
	NPM                      bool
	Compile                  m.CompileMode
	ComponentURL             string
	ModuleResolution         m.ModuleResolution
	ComponentRequestOverride *bool
}

// ComponentDir is where dependencies live under the active convention.
func (c TransformConfig) ComponentDir() string {
	if c.NPM {
		return filepath.Join(c.Root, "node_modules")
	}

	return filepath.Join(c.Root, "bower_components")
}

// Options derives the transform options for one request.
func (c TransformConfig) Options(req m.Request, caps m.Capabilities, packageName, filePath string) m.TransformOptions {
	resolution := c.ModuleResolution
	if resolution == "" {
		resolution = m.ResolutionNone
		if c.NPM {
			resolution = m.ResolutionNode
		}
	}

	isComponent := req.BaseURL == c.ComponentURL
	if c.ComponentRequestOverride != nil {
		isComponent = *c.ComponentRequestOverride
	}

	return m.TransformOptions{
		CompileTarget:      CompileTarget(caps, c.Compile),
		TransformModules:   !caps.Has(m.CapModules),
		ModuleResolution:   resolution,
		FilePath:           filePath,
		IsComponentRequest: isComponent,
		PackageName:        packageName,
		ComponentDir:       c.ComponentDir(),
		RootDir:            c.Root,
	}
}
