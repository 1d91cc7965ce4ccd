package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"covhook.dev/pkg/covhook/internal/domain"
	m "covhook.dev/pkg/covhook/internal/model"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "covhook"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName   = "output"
	verboseFlagName  = "verbose"
	parallelFlagName = "parallel"

	npmFlagName         = "npm"
	packageNameFlagName = "package-name"
	includeFlagName     = "include"
	excludeFlagName     = "exclude"

	rootKey                     = "root"
	packageNameKey              = "package_name"
	npmKey                      = "npm"
	includeKey                  = "include"
	excludeKey                  = "exclude"
	ignoreBasePathKey           = "ignore_base_path"
	componentURLKey             = "component_url"
	moduleResolutionKey         = "module_resolution"
	componentRequestOverrideKey = "component_request_override"
	babelPluginsKey             = "babel_plugins"
	compileKey                  = "compile"
	thresholdsKey               = "thresholds"
	parallelKey                 = "merge.parallel"

	serveAddrKey        = "serve.addr"
	serveWatchKey       = "serve.watch"
	serveCollectPathKey = "serve.collect_path"

	defaultOutputDir    = "coverage"
	defaultComponentURL = "/components/"
	defaultServeAddr    = "127.0.0.1:8081"
	defaultParallel     = 4

	coverageFileName = "coverage-final.json"

	envPrefix = "COVHOOK"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".covhook.log"
	defaultLogLevel      = int(slog.LevelInfo)
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultOutputDir)
	viper.SetDefault(npmKey, false)
	viper.SetDefault(includeKey, []string{})
	viper.SetDefault(ignoreBasePathKey, false)
	viper.SetDefault(componentURLKey, defaultComponentURL)
	viper.SetDefault(compileKey, string(m.CompileAuto))
	viper.SetDefault(parallelKey, defaultParallel)
	viper.SetDefault(serveAddrKey, defaultServeAddr)
	viper.SetDefault(serveWatchKey, false)
	viper.SetDefault(serveCollectPathKey, domain.DefaultCollectPath)
	viper.SetDefault(thresholdsKey, map[string]any{"global": 0})

	// exclude and component_request_override stay unset so "absent" keeps
	// its own meaning.

	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return
		}

		slog.Warn("failed to read config", "error", err)
	}
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Allow numeric slog levels as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger configures the global slog logger.
//
// By default it logs at Info; if verbose is true it logs at Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	var logLevel slog.Level
	if verbose {
		logLevel = slog.LevelDebug
	} else {
		logLevel = parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}

// resolveRoot picks the source root from the argument, the config, or the
// working directory, in that order.
func resolveRoot(args []string) (string, error) {
	root := viper.GetString(rootKey)
	if len(args) > 0 {
		root = args[0]
	}

	if root == "" {
		root = "."
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve root %s: %w", root, err)
	}

	return abs, nil
}

// middlewareOptions reads the middleware configuration from viper.
func middlewareOptions(root string) (domain.MiddlewareOptions, error) {
	opts := domain.MiddlewareOptions{
		Root:             root,
		PackageName:      viper.GetString(packageNameKey),
		NPM:              viper.GetBool(npmKey),
		Include:          viper.GetStringSlice(includeKey),
		IgnoreBasePath:   viper.GetBool(ignoreBasePathKey),
		ComponentURL:     viper.GetString(componentURLKey),
		ModuleResolution: m.ModuleResolution(viper.GetString(moduleResolutionKey)),
		BabelPlugins:     viper.GetStringSlice(babelPluginsKey),
		Compile:          m.CompileMode(viper.GetString(compileKey)),
	}

	if viper.IsSet(excludeKey) {
		opts.Exclude = viper.GetStringSlice(excludeKey)
		if opts.Exclude == nil {
			opts.Exclude = []string{}
		}
	}

	if viper.IsSet(componentRequestOverrideKey) {
		override := viper.GetBool(componentRequestOverrideKey)
		opts.ComponentRequestOverride = &override
	}

	switch opts.ModuleResolution {
	case "", m.ResolutionNode, m.ResolutionNone:
	default:
		return opts, fmt.Errorf("invalid %s %q: want node or none", moduleResolutionKey, opts.ModuleResolution)
	}

	switch opts.Compile {
	case m.CompileAuto, m.CompileAlways, m.CompileNever:
	default:
		return opts, fmt.Errorf("invalid %s %q: want auto, always or never", compileKey, opts.Compile)
	}

	return opts, nil
}

// loadThresholds decodes the thresholds section of the config.
func loadThresholds() (m.Thresholds, error) {
	thresholds, err := m.ParseThresholds(viper.Get(thresholdsKey))
	if err != nil {
		slog.Error("invalid thresholds", "error", err)
		return m.Thresholds{}, fmt.Errorf("failed to load thresholds: %w", err)
	}

	return thresholds, nil
}
