// Package main is the entry point for the icebard menu bar daemon.
package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"fyne.io/systray"

	"github.com/john-rice/Ice/internal/config"
	"github.com/john-rice/Ice/internal/controlitem"
	"github.com/john-rice/Ice/internal/hotkey"
	"github.com/john-rice/Ice/internal/icedbus"
	"github.com/john-rice/Ice/internal/menubar"
	"github.com/john-rice/Ice/internal/pointer"
	"github.com/john-rice/Ice/internal/state"
	"github.com/john-rice/Ice/internal/store"
)

const (
	appID   = "com.johnrice.Ice"
	appName = "icebard"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/ice/ice.toml)")
	showVersion := flag.Bool("version", false, "Show version and exit")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *showVersion {
		println(appName, "version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.MenuBar.UseSystemTray {
		runWithSystray(cfg, *configPath, logger)
		return
	}

	os.Exit(run(cfg, *configPath, logger, runOptions{}))
}

// runWithSystray runs the daemon inside the system tray event loop,
// backing each section's control item with a checkable tray item.
func runWithSystray(cfg *config.Config, configPath string, logger *slog.Logger) {
	exitCode := 0

	systray.Run(func() {
		systray.SetTitle("Ice")
		systray.SetTooltip("Menu bar section visibility")

		// The factory closes over the registry pointer so tray clicks
		// can toggle sections once the registry exists.
		var registry atomic.Pointer[menubar.Registry]
		factory := func(rec controlitem.Record) (controlitem.ControlItem, error) {
			name := strings.TrimPrefix(rec.Autosave, "ice-")
			item := systray.AddMenuItemCheckbox(name, "toggle the "+name+" section",
				rec.State == controlitem.StateShown)
			return controlitem.NewSystrayItem(item, rec.Autosave, rec.Position, rec.State, func() {
				r := registry.Load()
				if r == nil {
					return
				}
				if s := r.Section(menubar.SectionName(name)); s != nil {
					s.Toggle()
				}
			}), nil
		}

		go func() {
			exitCode = run(cfg, configPath, logger, runOptions{
				itemFactory: factory,
				onRegistry:  registry.Store,
			})
			systray.Quit()
		}()
	}, func() {})

	os.Exit(exitCode)
}

// runOptions carries optional wiring for run.
type runOptions struct {
	itemFactory menubar.ItemFactory
	onRegistry  func(*menubar.Registry)
}

// run wires the daemon together and blocks until SIGINT or SIGTERM.
func run(cfg *config.Config, configPath string, logger *slog.Logger, options runOptions) int {
	logger.Info("starting icebard", "version", version)

	if err := config.EnsureDataDir(); err != nil {
		logger.Error("failed to create data directory", "error", err)
		return 1
	}

	appState := state.NewAppState(cfg.RehideSettings())

	// Pointer source for the timed rehide watchers. Missing tooling
	// just disables rehide.
	var source pointer.Source
	if cmdSource, err := pointer.NewCommandSource(cfg.MenuBar.PointerCommand, cfg.MenuBar.TopOffset); err != nil {
		logger.Warn("pointer tracking unavailable, rehide disabled", "error", err)
	} else {
		source = cmdSource
	}

	// Persisted sections
	sectionStore, err := store.NewSectionStore(config.SectionsPath())
	if err != nil {
		logger.Error("failed to open section store", "error", err)
		return 1
	}
	defer func() { _ = sectionStore.Close() }()

	records, err := sectionStore.Load()
	if err != nil {
		logger.Warn("failed to load persisted sections, starting fresh", "error", err)
		records = nil
	}

	registry, err := menubar.RestoreRegistry(records, menubar.Config{
		Logger:        logger,
		State:         appState,
		ItemFactory:   options.itemFactory,
		PointerSource: source,
		PointerPoll:   cfg.MenuBar.PointerPoll.Duration(),
		RegionHeight:  cfg.MenuBar.RegionHeight,
	})
	if err != nil {
		logger.Warn("failed to restore sections, starting fresh", "error", err)
		registry, err = menubar.NewRegistry(menubar.Config{
			Logger:        logger,
			State:         appState,
			ItemFactory:   options.itemFactory,
			PointerSource: source,
			PointerPoll:   cfg.MenuBar.PointerPoll.Duration(),
			RegionHeight:  cfg.MenuBar.RegionHeight,
		})
		if err != nil {
			logger.Error("failed to create registry", "error", err)
			return 1
		}
	}
	defer registry.Close()
	if options.onRegistry != nil {
		options.onRegistry(registry)
	}

	// Global hotkeys via the desktop portal. Missing portal support
	// just disables hotkeys.
	var registrar hotkey.Registrar
	if portal, err := hotkey.NewPortalRegistrar(appID, logger); err != nil {
		logger.Warn("global shortcuts unavailable", "error", err)
	} else {
		registrar = portal
		defer portal.Close()
	}
	if registrar != nil {
		if err := applyHotkeys(registry, registrar, cfg, logger); err != nil {
			logger.Warn("failed to apply hotkeys", "error", err)
		}
	}

	// Shared state for CLI clients
	var sharedMu sync.Mutex
	shared, err := state.LoadSharedState(config.StatePath())
	if err != nil {
		logger.Warn("failed to load shared state", "error", err)
		shared = state.DefaultSharedState()
	}

	// D-Bus server
	server := icedbus.NewServer(registry, logger)
	if err := server.Start(); err != nil {
		logger.Error("failed to start D-Bus server", "error", err)
		return 1
	}
	defer func() { _ = server.Stop() }()

	// Persist and publish every visibility change.
	events, cancelEvents := registry.Subscribe()
	defer cancelEvents()
	go func() {
		for ev := range events {
			sharedMu.Lock()
			shared.SetHidden(string(ev.Section), ev.Hidden)
			if err := state.SaveSharedState(config.StatePath(), shared); err != nil {
				logger.Warn("failed to save shared state", "error", err)
			}
			sharedMu.Unlock()
			if err := sectionStore.Rewrite(registry.Records()); err != nil {
				logger.Warn("failed to persist sections", "error", err)
			}
			if err := server.EmitVisibilityChanged(ev); err != nil {
				logger.Warn("failed to emit signal", "error", err)
			}
		}
	}()

	// Hot-reload config changes.
	watcher, err := config.NewWatcher(configPath, logger)
	if err != nil {
		logger.Warn("config watching unavailable", "error", err)
	} else {
		watcher.OnReload(func(newCfg *config.Config) {
			logger.Info("config reloaded")
			appState.SetRehide(newCfg.RehideSettings())
			if registrar != nil {
				if err := applyHotkeys(registry, registrar, newCfg, logger); err != nil {
					logger.Warn("failed to apply hotkeys", "error", err)
				}
			}
		})
		if err := watcher.Start(); err != nil {
			logger.Warn("failed to start config watcher", "error", err)
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	// Pick up external writes to the state file so the next save does
	// not clobber them.
	stateWatcher, err := state.NewWatcher(config.StatePath(), logger)
	if err != nil {
		logger.Warn("state watching unavailable", "error", err)
	} else {
		stateWatcher.OnChange(func(st *state.SharedState) {
			sharedMu.Lock()
			shared = st
			sharedMu.Unlock()
		})
		if err := stateWatcher.Start(); err != nil {
			logger.Warn("failed to start state watcher", "error", err)
		} else {
			defer func() { _ = stateWatcher.Stop() }()
		}
	}

	logger.Info("icebard ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	if err := sectionStore.Rewrite(registry.Records()); err != nil {
		logger.Warn("failed to persist sections on shutdown", "error", err)
	}
	return 0
}

// applyHotkeys registers persisted section hotkeys, then overlays the
// configured ones.
func applyHotkeys(registry *menubar.Registry, registrar hotkey.Registrar, cfg *config.Config, logger *slog.Logger) error {
	configured, err := cfg.Bindings()
	if err != nil {
		return err
	}

	effective := make(map[string]hotkey.Binding)
	for _, s := range registry.Sections() {
		if b := s.Binding(); !b.IsZero() {
			effective[string(s.Name())] = b
		}
	}
	for name, b := range configured {
		effective[name] = b
	}

	return registry.ApplyBindings(registrar, effective)
}
