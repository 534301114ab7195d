package spacer

import (
	"context"
	"fmt"
	"sync"

	"github.com/bnema/niri-spacer/internal/config"
	"github.com/bnema/niri-spacer/internal/logger"
	"github.com/bnema/niri-spacer/internal/niri"
	"github.com/bnema/niri-spacer/internal/session"
	"github.com/bnema/niri-spacer/internal/wayland"
)

// App wires the IPC client, the native window backend and the engine
// together behind one lifecycle.
type App struct {
	cfg        *config.Config
	client     *niri.Client
	native     *wayland.EventLoop
	manager    *Manager
	workspaces *WorkspaceManager

	cleanupOnce sync.Once
}

// NewApp validates the session, connects to niri and starts the native
// window backend.
func NewApp(cfg *config.Config) (*App, error) {
	if err := session.Validate(); err != nil {
		return nil, err
	}

	client, err := niri.Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to niri: %w", err)
	}

	native := wayland.NewEventLoop(cfg.Native.DebugNative)
	if err := native.Start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start native window backend: %w", err)
	}

	manager, err := NewManager(client, native, cfg)
	if err != nil {
		native.Shutdown()
		client.Close()
		return nil, err
	}

	return &App{
		cfg:        cfg,
		client:     client,
		native:     native,
		manager:    manager,
		workspaces: NewWorkspaceManager(client),
	}, nil
}

// Run creates a batch of spacers. A zero startOverride lets the
// workspace manager pick the starting index.
func (a *App) Run(count int, startOverride uint64) error {
	before, err := a.workspaces.Stats()
	if err != nil {
		logger.Warnf("Could not gather workspace stats: %v", err)
	} else {
		logger.Infof("Before: %s", before.Summary())
	}

	startIdx := startOverride
	if startIdx == 0 {
		startIdx, err = a.workspaces.SuggestStartingIndex(count)
		if err != nil {
			return fmt.Errorf("failed to pick a starting workspace: %w", err)
		}
	}
	if err := a.workspaces.ValidateAvailability(startIdx, count); err != nil {
		return err
	}

	logger.Infof("Creating %d spacer windows starting at workspace %d", count, startIdx)
	created, err := a.manager.CreateBatch(count, startIdx)
	if err != nil {
		return fmt.Errorf("created %d of %d spacers: %w", len(created), count, err)
	}

	if err := a.manager.ValidateSpacers(); err != nil {
		logger.Warnf("Spacer validation failed: %v", err)
	}

	after, err := a.workspaces.Stats()
	if err == nil {
		logger.Infof("After: %s", after.Summary())
		if !after.GoodTilingLayout() {
			logger.Warn("Window distribution looks uneven, spacers may not help much here")
		}
	}
	return nil
}

// StartFocusMonitoring runs the focus loop until the context is
// cancelled.
func (a *App) StartFocusMonitoring(ctx context.Context) error {
	loop := NewFocusLoop(a.manager, a.client, niri.Connect)
	return loop.Run(ctx)
}

// Stats snapshots the current workspace layout.
func (a *App) Stats() (*WorkspaceStats, error) {
	return a.workspaces.Stats()
}

// ActiveSpacers exposes the tracked spacers.
func (a *App) ActiveSpacers() []SpacerWindow {
	return a.manager.ActiveSpacers()
}

// Cleanup tears everything down. Safe to call more than once.
func (a *App) Cleanup() {
	a.cleanupOnce.Do(func() {
		logger.Info("Cleaning up spacer windows")
		a.manager.Cleanup()
		a.native.Shutdown()
		if err := a.client.Close(); err != nil {
			logger.Debugf("Closing IPC connection: %v", err)
		}
	})
}
