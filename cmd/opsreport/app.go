package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/warp/opsreport/blob"
	"github.com/warp/opsreport/config"
	"github.com/warp/opsreport/export"
	"github.com/warp/opsreport/notify"
	"github.com/warp/opsreport/remote"
	"github.com/warp/opsreport/store/sqlite"
	"github.com/warp/opsreport/syncer"
)

// app is the wired object graph shared by every command.
type app struct {
	cfg       config.Config
	loader    *config.Loader
	logs      *config.Logs
	store     *sqlite.Store
	syncer    *syncer.Syncer
	publisher *export.Publisher
	registry  *prometheus.Registry
}

// notifierFunc builds the notifier for user-facing messages once the log
// outputs exist: stderr for the CLI, the hub and buffer for the server.
type notifierFunc func(logs *config.Logs) notify.Notifier

// newApp loads config and wires store, remote, syncer and publisher.
func newApp(ctx context.Context, notifiers notifierFunc) (*app, error) {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logs := config.NewLogs(cfg.Log)
	notifier := notifiers(logs)
	store, err := sqlite.New(cfg.Storage.Path, logs.Logger("store"))
	if err != nil {
		logs.Close()
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	client := remote.New(cfg.Remote.Client(), remote.WithLogger(logs.Logger("remote")))
	s := syncer.New(store, client,
		syncer.WithJournal(store),
		syncer.WithMetrics(syncer.NewMetrics(registry)),
		syncer.WithNotifier(notifier),
		syncer.WithLogger(logs.Logger("sync")),
	)

	archive, err := blob.Open(ctx, cfg.Export.Archive)
	if err != nil {
		store.Close()
		logs.Close()
		return nil, fmt.Errorf("failed to open export archive: %w", err)
	}
	publisher := &export.Publisher{
		Surface:  surfaceFor(cfg.Export.OpenCommand),
		Archive:  archive,
		Notifier: notifier,
		Logger:   logs.Logger("export"),
	}

	return &app{
		cfg:       cfg,
		loader:    loader,
		logs:      logs,
		store:     store,
		syncer:    s,
		publisher: publisher,
		registry:  registry,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
	}
	a.logs.Close()
}

// surfaceFor builds the print surface. "none" disables it, so Publish goes
// straight to the archive.
func surfaceFor(command string) export.Surface {
	fields := strings.Fields(command)
	switch {
	case len(fields) == 0:
		return export.CommandSurface{}
	case fields[0] == "none":
		return nil
	}
	return export.CommandSurface{Command: fields[0], Args: fields[1:]}
}

// stderrNotifications is the notifierFunc of the one-shot commands.
func stderrNotifications(*config.Logs) notify.Notifier { return stderrNotifier }

// stderrNotifier prints notifications for CLI users.
var stderrNotifier = notify.Func(func(n notify.Notification) {
	style := okStyle
	switch n.Level {
	case notify.LevelInfo:
		style = dimStyle
	case notify.LevelError:
		style = errorStyle
	}
	fmt.Fprintln(os.Stderr, style.Render(n.Message))
})
