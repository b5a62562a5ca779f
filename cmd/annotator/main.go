// Command annotator replays a log of review-session interaction events
// through the annotation coordinator and prints the resulting bookmark
// annotations as JSON. With broadcasting enabled, collaborators connected
// over WebSocket see live strokes and committed edits as they are replayed.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/framereview/annotations/internal/api"
	"github.com/framereview/annotations/internal/broadcast"
	"github.com/framereview/annotations/internal/broadcast/websocket"
	"github.com/framereview/annotations/internal/config"
	"github.com/framereview/annotations/internal/coordinator"
	"github.com/framereview/annotations/internal/dispatcher"
	"github.com/framereview/annotations/internal/logging"
	"github.com/framereview/annotations/internal/monitor"
	intOtel "github.com/framereview/annotations/internal/otel"
	"github.com/framereview/annotations/internal/parser"
	"github.com/framereview/annotations/internal/storage"
	v1 "github.com/framereview/annotations/internal/storage/memory/export/v1"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion = "0.0.1"
	BuildDate      = "unknown"

	ServiceName = "annotator"
)

const shutdownTimeout = 5 * time.Second

type options struct {
	configDir string
	input     string
	output    string
	linger    time.Duration
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := pflag.NewFlagSet(ServiceName, pflag.ContinueOnError)
	flags.StringVar(&opts.configDir, "config-dir", ".", "directory containing "+config.FileName)
	flags.StringVarP(&opts.input, "input", "i", "-", "NDJSON event log to replay, - for stdin")
	flags.StringVarP(&opts.output, "output", "o", "-", "file to write bookmarks to, - for stdout")
	flags.DurationVar(&opts.linger, "linger", 0, "keep broadcasting for this long after the replay")
	flags.String("log-level", "info", "debug, info, warn or error")
	flags.String("storage", "memory", "bookmark store: memory, sqlite or postgres")
	flags.Bool("serve", false, "broadcast collaboration messages over WebSocket")
	flags.String("listen", "127.0.0.1:8765", "broadcast listen address")
	if err := flags.Parse(args); err != nil {
		return opts, err
	}

	for key, name := range map[string]string{
		"logLevel":          "log-level",
		"storage.type":      "storage",
		"broadcast.enabled": "serve",
		"broadcast.listen":  "listen",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
			return opts, fmt.Errorf("binding flag %s: %w", name, err)
		}
	}
	return opts, nil
}

func run(args []string) error {
	sessionStart := time.Now()

	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	configErr := config.Load(opts.configDir)

	// logging: file when the logs dir is usable, console otherwise
	logManager := logging.NewSlogManager()
	logManager.SetServiceName(ServiceName)

	var coord *coordinator.Coordinator
	logManager.SetContextProvider(func() []slog.Attr {
		if coord == nil {
			return nil
		}
		return coord.LogAttrs()
	})

	var logOut io.Writer
	logPath := logging.LogFilePath(viper.GetString("logsDir"), ServiceName, sessionStart)
	if err := os.MkdirAll(viper.GetString("logsDir"), 0755); err == nil {
		if f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644); err == nil {
			defer f.Close()
			logOut = f
		}
	}

	var otelProvider *intOtel.Provider
	var otelLogProvider *sdklog.LoggerProvider
	otelCfg := config.GetOTelConfig()
	if otelCfg.Enabled {
		otelProvider, err = intOtel.New(intOtel.FromAppConfig(otelCfg, CurrentVersion, logOut))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize OTel provider: %v\n", err)
		} else {
			otelLogProvider = otelProvider.LoggerProvider()
		}
	}

	logManager.Setup(logOut, viper.GetString("logLevel"), otelLogProvider)
	logger := logManager.Logger()
	logger.Info("Starting up", "version", CurrentVersion, "build", BuildDate)
	if configErr != nil {
		logger.Warn("Failed to load config, using defaults!", "error", configErr)
	}
	if logOut != nil {
		logger.Info("Logging to file", "path", logPath)
	}

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := logManager.Flush(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush logs: %v\n", err)
		}
		if otelProvider != nil {
			if err := otelProvider.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Failed to shut down OTel: %v\n", err)
			}
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// storage
	store, err := initStorage(config.GetStorageConfig(), logManager)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()

	// broadcast
	var pub broadcast.Publisher = broadcast.Nop{}
	bcCfg := config.GetBroadcastConfig()
	if bcCfg.Enabled {
		server := websocket.New(logger)
		addr, err := server.Start(bcCfg.Listen)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Close(sctx); err != nil {
				logger.Warn("Failed to close broadcast server", "error", err)
			}
		}()
		logger.Info("Broadcasting collaboration messages", "addr", addr)
		pub = server
	}

	// coordinator and dispatcher
	coord, err = coordinator.New(coordinator.Dependencies{
		Store:     store,
		Publisher: pub,
		Logger:    logger,
		Config:    config.GetCoordinatorConfig(),
		Captions:  config.GetCaptionDefaults(),
	})
	if err != nil {
		return fmt.Errorf("creating coordinator: %w", err)
	}
	d, err := dispatcher.New(logger)
	if err != nil {
		return fmt.Errorf("creating dispatcher: %w", err)
	}
	coord.RegisterHandlers(d, parser.NewParser(logger))

	loopCtx, stopLoop := context.WithCancel(ctx)
	loopDone := make(chan error, 1)
	go func() { loopDone <- coord.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	// status monitor
	if monCfg := config.GetMonitorConfig(); monCfg.Enabled {
		statusPath := monCfg.StatusFile
		if statusPath == "" {
			statusPath = filepath.Join(viper.GetString("logsDir"), ServiceName+"_status.json")
		}
		mon := monitor.NewService(monitor.Dependencies{
			Source:   coord,
			Logger:   logger,
			Path:     statusPath,
			Interval: monCfg.Interval,
		})
		if err := mon.Start(); err != nil {
			logger.Warn("Failed to start status monitor", "error", err)
		} else {
			defer mon.Stop()
		}
	}

	// replay
	in, closeIn, err := openInput(opts.input)
	if err != nil {
		return err
	}
	defer closeIn()

	start := time.Now()
	stats, err := replay(ctx, in, d, logger)
	if err != nil {
		return err
	}
	if err := coord.Sync(ctx); err != nil {
		return err
	}
	logger.Info("Replay finished",
		"lines", stats.Lines,
		"dispatched", stats.Dispatched,
		"dropped", stats.Dropped,
		"duration", time.Since(start))

	if bcCfg.Enabled && opts.linger > 0 {
		logger.Info("Lingering for collaborators", "duration", opts.linger)
		select {
		case <-time.After(opts.linger):
		case <-ctx.Done():
		}
		if ctx.Err() == nil {
			if err := coord.Sync(ctx); err != nil {
				return err
			}
		}
	}

	if f, ok := store.(storage.Flusher); ok {
		if err := f.Flush(); err != nil {
			logger.Error("Failed to flush storage", "error", err)
		}
	}

	export, err := writeBookmarks(store, opts.output)
	if err != nil {
		return err
	}

	if apiCfg := config.GetAPIConfig(); apiCfg.Enabled {
		uploadExport(apiCfg, opts.output, export, logger)
	}
	return nil
}

func uploadExport(cfg config.APIConfig, path string, export v1.Export, logger *slog.Logger) {
	if path == "-" || path == "" {
		logger.Warn("Upload skipped, bookmarks were written to stdout")
		return
	}
	client := api.New(cfg.ServerURL, cfg.APIKey)
	if err := client.Healthcheck(); err != nil {
		logger.Error("Review server unreachable, upload skipped", "url", cfg.ServerURL, "error", err)
		return
	}
	meta := api.MetadataFor(export, cfg.Project, cfg.Tag)
	if err := client.Upload(path, meta); err != nil {
		logger.Error("Failed to upload bookmarks", "path", path, "error", err)
		return
	}
	logger.Info("Uploaded bookmarks", "url", cfg.ServerURL, "frames", meta.Frames, "bookmarks", meta.Bookmarks)
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "-" || path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening event log: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func writeBookmarks(store storage.Backend, path string) (v1.Export, error) {
	bms, err := store.Bookmarks()
	if err != nil {
		return v1.Export{}, fmt.Errorf("listing bookmarks: %w", err)
	}
	export, err := v1.Build(bms, time.Now())
	if err != nil {
		return v1.Export{}, err
	}

	var w io.Writer = os.Stdout
	if path != "-" && path != "" {
		f, err := os.Create(path)
		if err != nil {
			return v1.Export{}, fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		w = f
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(export); err != nil {
		return v1.Export{}, fmt.Errorf("writing bookmarks to %s: %w", path, err)
	}
	return export, nil
}
