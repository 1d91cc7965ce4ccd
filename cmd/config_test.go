package cmd

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"covhook.dev/pkg/covhook/internal/domain"
	m "covhook.dev/pkg/covhook/internal/model"
)

// setConfig overrides viper keys for the duration of a test.
func setConfig(t *testing.T, values map[string]any) {
	t.Helper()

	for key, value := range values {
		viper.Set(key, value)
	}

	t.Cleanup(func() {
		for key := range values {
			viper.Set(key, nil)
		}
	})
}

func TestConfigConstants(t *testing.T) {
	assert.Equal(t, "covhook", configBaseName)
	assert.Equal(t, "covhook.yaml", configFileName)
	assert.Equal(t, ".", configFolderPath)
	assert.Equal(t, "output", outputFlagName)
	assert.Equal(t, "exclude", excludeFlagName)
	assert.Equal(t, "parallel", parallelFlagName)
	assert.Equal(t, "merge.parallel", parallelKey)
	assert.Equal(t, "COVHOOK", envPrefix)
}

func TestConfigVersionConstants(t *testing.T) {
	assert.Equal(t, "version", configVersionKey)
	assert.Equal(t, 1, currentConfigVersion)
}

func TestConfigDefaults(t *testing.T) {
	assert.Equal(t, defaultOutputDir, viper.GetString(outputFlagName))
	assert.Equal(t, "/components/", viper.GetString(componentURLKey))
	assert.Equal(t, "auto", viper.GetString(compileKey))
	assert.Equal(t, domain.DefaultCollectPath, viper.GetString(serveCollectPathKey))
	assert.Equal(t, defaultServeAddr, viper.GetString(serveAddrKey))
	assert.False(t, viper.IsSet(componentRequestOverrideKey))
}

func TestParseSlogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"-4", slog.LevelDebug},
		{"chatty", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, parseSlogLevel(tt.value, slog.LevelInfo))
		})
	}
}

func TestConfigureLogger_WritesToFile(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	logPath := filepath.Join(t.TempDir(), "covhook.log")
	configureLogger(logPath, true)

	slog.Debug("instrumented", "path", "/src/a.js")

	content, err := os.ReadFile(logPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "msg=instrumented")
	assert.Contains(t, string(content), "path=/src/a.js")
}

func TestMiddlewareOptions(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		opts, err := middlewareOptions("/srv/app")
		require.NoError(t, err)

		assert.Equal(t, "/srv/app", opts.Root)
		assert.Equal(t, "/components/", opts.ComponentURL)
		assert.Equal(t, m.CompileAuto, opts.Compile)
		assert.Nil(t, opts.Exclude)
		assert.Nil(t, opts.ComponentRequestOverride)
		assert.Empty(t, opts.Include)
	})

	t.Run("explicit empty exclude", func(t *testing.T) {
		setConfig(t, map[string]any{excludeKey: []string{}})

		opts, err := middlewareOptions("/srv/app")
		require.NoError(t, err)
		assert.NotNil(t, opts.Exclude)
		assert.Empty(t, opts.Exclude)
	})

	t.Run("overrides", func(t *testing.T) {
		setConfig(t, map[string]any{
			packageNameKey:              "my-el",
			npmKey:                      true,
			includeKey:                  []string{"src/**"},
			excludeKey:                  []string{"src/vendor/**"},
			moduleResolutionKey:         "node",
			componentRequestOverrideKey: false,
			babelPluginsKey:             []string{"decorators"},
			compileKey:                  "always",
		})

		opts, err := middlewareOptions("/srv/app")
		require.NoError(t, err)

		assert.Equal(t, "my-el", opts.PackageName)
		assert.True(t, opts.NPM)
		assert.Equal(t, []string{"src/**"}, opts.Include)
		assert.Equal(t, []string{"src/vendor/**"}, opts.Exclude)
		assert.Equal(t, m.ResolutionNode, opts.ModuleResolution)
		require.NotNil(t, opts.ComponentRequestOverride)
		assert.False(t, *opts.ComponentRequestOverride)
		assert.Equal(t, []string{"decorators"}, opts.BabelPlugins)
		assert.Equal(t, m.CompileAlways, opts.Compile)
	})

	t.Run("invalid compile mode", func(t *testing.T) {
		setConfig(t, map[string]any{compileKey: "sometimes"})

		_, err := middlewareOptions("/srv/app")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "compile")
	})

	t.Run("invalid module resolution", func(t *testing.T) {
		setConfig(t, map[string]any{moduleResolutionKey: "classic"})

		_, err := middlewareOptions("/srv/app")
		require.Error(t, err)
	})
}

func TestResolveRoot(t *testing.T) {
	root, err := resolveRoot([]string{"testdata/../app"})
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "app"), root)

	setConfig(t, map[string]any{rootKey: "/srv/app"})

	root, err = resolveRoot(nil)
	require.NoError(t, err)
	assert.Equal(t, "/srv/app", root)
}

func TestLoadThresholds(t *testing.T) {
	setConfig(t, map[string]any{thresholdsKey: map[string]any{
		"global": 80,
		"each":   map[string]any{"lines": -5},
	}})

	thresholds, err := loadThresholds()
	require.NoError(t, err)

	global, ok := thresholds.Global.Threshold(m.Statements)
	require.True(t, ok)
	assert.InDelta(t, 80.0, global, 0)

	each, ok := thresholds.Each.Threshold(m.Lines)
	require.True(t, ok)
	assert.InDelta(t, -5.0, each, 0)

	_, ok = thresholds.Each.Threshold(m.Branches)
	assert.False(t, ok)
}

func TestLoadThresholds_Invalid(t *testing.T) {
	setConfig(t, map[string]any{thresholdsKey: map[string]any{"sometimes": 10}})

	_, err := loadThresholds()
	require.Error(t, err)
}
