package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/1broseidon/displaysnap/internal/config"
	"github.com/1broseidon/displaysnap/internal/daemon"
	"github.com/1broseidon/displaysnap/internal/engine"
	"github.com/1broseidon/displaysnap/internal/ipc"
	"github.com/1broseidon/displaysnap/internal/profile"
	"github.com/1broseidon/displaysnap/internal/winpark"
	"github.com/1broseidon/displaysnap/internal/x11"
)

func runDaemon() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	}))
	log.Printf("Configuration loaded (auto_apply: %q, debounce: %dms)",
		cfg.AutoApply.Profile, cfg.AutoApply.DebounceMS)

	// Connect to display server
	conn, err := x11.NewConnection()
	if err != nil {
		log.Fatalf("Failed to connect to display: %v", err)
	}
	defer conn.Close()

	if err := conn.SelectScreenChange(); err != nil {
		log.Fatalf("Failed to subscribe to screen change events: %v", err)
	}

	eng, err := buildEngine(conn, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}

	log.Println("displaysnap daemon started successfully")

	// Create config reload channel
	reloadChan := make(chan struct{}, 1)

	// Start IPC server
	ipcServer, err := ipc.NewServer(eng, cfg, reloadChan)
	if err != nil {
		log.Fatalf("Failed to create IPC server: %v", err)
	}
	if err := ipcServer.Start(); err != nil {
		log.Fatalf("Failed to start IPC server: %v", err)
	}
	defer ipcServer.Stop()

	// Start topology watcher
	watcher := daemon.NewWatcher(watcherConfig(cfg, logger), eng)

	watcherCtx, watcherCancel := context.WithCancel(context.Background())
	defer watcherCancel()
	go watcher.Run(watcherCtx)

	// Setup signal handlers
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	// Handle signals and config reloads
	go func() {
		for {
			select {
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					log.Println("Received SIGHUP, reloading config...")
					newCfg, err := config.Load()
					if err != nil {
						log.Printf("Config reload failed: %v", err)
						continue
					}
					ipcServer.UpdateConfig(newCfg)
					watcher.UpdateConfig(watcherConfig(newCfg, logger))
					log.Println("Config reloaded successfully")

				case os.Interrupt, syscall.SIGTERM:
					log.Println("Shutting down displaysnap daemon...")
					watcherCancel()
					ipcServer.Stop()
					conn.Close()
					os.Exit(0)
				}

			case <-reloadChan:
				// Config was reloaded via IPC, update the watcher
				watcher.UpdateConfig(watcherConfig(ipcServer.GetConfig(), logger))
			}
		}
	}()

	// Event loop (blocking): forward RandR notifications to the watcher.
	log.Println("Entering event loop...")
	for conn.WaitScreenChange() {
		watcher.Notify()
	}
}

func watcherConfig(cfg *config.Config, logger *slog.Logger) daemon.WatcherConfig {
	return daemon.WatcherConfig{
		Profile:       cfg.AutoApply.Profile,
		Debounce:      time.Duration(cfg.AutoApply.DebounceMS) * time.Millisecond,
		DisableExtras: cfg.DisableExtras,
		ManageWindows: cfg.ManageWindowsEnabled(),
		Logger:        logger,
	}
}

// buildEngine assembles the daemon's engine over an existing connection.
func buildEngine(conn *x11.Connection, cfg *config.Config, logger *slog.Logger) (*engine.Engine, error) {
	dir := cfg.ProfilesDir
	if dir == "" {
		var err error
		dir, err = profile.DefaultDir()
		if err != nil {
			return nil, err
		}
	}
	store, err := profile.NewStore(dir)
	if err != nil {
		return nil, err
	}

	var parker *winpark.Parker
	if cfg.ManageWindowsEnabled() {
		cachePath, err := winpark.CachePath()
		if err != nil {
			logger.Warn("window parking disabled", "error", err)
		} else {
			parker = winpark.NewParker(winpark.NewX11Desktop(conn), cachePath, logger)
		}
	}

	return engine.New(x11.NewBackend(conn), store, parker, logger), nil
}
