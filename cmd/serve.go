package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"covhook.dev/pkg/covhook/internal/controller"
	"covhook.dev/pkg/covhook/internal/domain"
	"covhook.dev/pkg/covhook/internal/engine"
	m "covhook.dev/pkg/covhook/internal/model"
	"covhook.dev/pkg/covhook/internal/transform"
)

const (
	addrFlagName        = "addr"
	watchFlagName       = "watch"
	collectPathFlagName = "collect-path"

	shutdownTimeout = 5 * time.Second
)

var serveAddrFlag string
var serveWatchFlag bool
var serveCollectPathFlag string

// serveCmd represents the serve command.
var serveCmd = newServeCmd()

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [root]",
		Short: "Serve sources with coverage instrumentation",
		Long: `Serve the component at root (default: current directory) with matching
scripts and pages instrumented. Browsers post their coverage to the collect
path; on shutdown the merged coverage is written to the output directory and
checked against the configured thresholds.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveRoot(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return runServe(ctx, cmd, root)
		},
	}

	configureServeFlags(cmd)

	return cmd
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func configureServeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&serveAddrFlag, addrFlagName, viper.GetString(serveAddrKey), "address to listen on")
	bindFlagToConfig(cmd.Flags().Lookup(addrFlagName), serveAddrKey)

	cmd.Flags().BoolVarP(&serveWatchFlag, watchFlagName, "w", viper.GetBool(serveWatchKey), "drop cached instrumentation when sources change")
	bindFlagToConfig(cmd.Flags().Lookup(watchFlagName), serveWatchKey)

	cmd.Flags().StringVar(&serveCollectPathFlag, collectPathFlagName, viper.GetString(serveCollectPathKey), "path browsers post coverage to")
	bindFlagToConfig(cmd.Flags().Lookup(collectPathFlagName), serveCollectPathKey)
}

// newCoverageMiddleware builds the middleware for root from the config.
func newCoverageMiddleware(root string) (*domain.Middleware, error) {
	opts, err := middlewareOptions(root)
	if err != nil {
		return nil, err
	}

	return domain.NewMiddleware(opts, domain.MiddlewareDeps{
		FS:          fsAdapter,
		Manifests:   manifestAdapter,
		Engine:      engine.NewEngine(engine.WithCoverageStore(domain.SharedCoverageStore)),
		Transformer: transform.NewTransformer(manifestAdapter),
	})
}

// newServeHandler routes coverage posts to the collector and every other
// request through the middleware to a file server rooted at root.
func newServeHandler(mw *domain.Middleware, collector domain.Collector, collectPath string) http.Handler {
	files := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, mw.AbsolutePath(r.URL.Path))
	})

	mux := http.NewServeMux()
	mux.Handle(collectPath, collector)
	mux.Handle("/", mw.Handler(files))

	return mux
}

func runServe(ctx context.Context, cmd *cobra.Command, root string) error {
	mw, err := newCoverageMiddleware(root)
	if err != nil {
		return err
	}

	spillDir, err := os.MkdirTemp("", "covhook-")
	if err != nil {
		return fmt.Errorf("failed to create spill directory: %w", err)
	}
	defer os.RemoveAll(spillDir)

	collector, err := domain.NewCollector(coverageStore, spillDir)
	if err != nil {
		return err
	}
	defer collector.Close()

	collectPath := viper.GetString(serveCollectPathKey)

	listener, err := net.Listen("tcp", viper.GetString(serveAddrKey))
	if err != nil {
		slog.Error("failed to listen", "addr", viper.GetString(serveAddrKey), "error", err)
		return fmt.Errorf("failed to listen: %w", err)
	}

	server := &http.Server{
		Handler:           newServeHandler(mw, collector, collectPath),
		ReadHeaderTimeout: 10 * time.Second,
	}

	watch := viper.GetBool(serveWatchKey)

	newUI(cmd).DisplayServing(ctx, controller.ServeInfo{
		Addr:        listener.Addr().String(),
		Root:        root,
		PackageName: mw.PackageName(),
		CollectPath: collectPath,
		Watching:    watch,
	})

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), shutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if watch {
		group.Go(func() error {
			return watchSources(groupCtx, root, mw.ClearCache)
		})
	}

	if err := group.Wait(); err != nil {
		slog.Error("serve stopped", "error", err)
		return err
	}

	coverage, err := collector.Finalize()
	if err != nil {
		return err
	}

	out := m.Path(filepath.Join(viper.GetString(outputFlagName), coverageFileName))
	if err := coverageStore.Save(out, coverage); err != nil {
		return err
	}

	slog.Info("coverage written", "path", out, "payloads", collector.Len(), "files", coverage.Len())

	return reportCoverage(context.WithoutCancel(ctx), cmd, coverage)
}

// watchSources calls onChange whenever a file under root changes until ctx
// is done.
func watchSources(ctx context.Context, root string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := fsAdapter.Dirs(m.Path(root))
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", root, err)
	}

	for _, dir := range dirs {
		if err := watcher.Add(string(dir)); err != nil {
			slog.Warn("failed to watch directory", "dir", dir, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}

			slog.Debug("source changed", "path", event.Name, "op", event.Op.String())
			onChange()

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			slog.Warn("watcher error", "error", err)
		}
	}
}
