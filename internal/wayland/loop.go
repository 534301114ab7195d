// Package wayland owns the native spacer windows. It talks to the
// compositor directly as a Wayland client, creating minimal shm-backed
// toplevels that niri can tile like any other window.
package wayland

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/bnema/wlturbo/wl"

	"github.com/bnema/niri-spacer/internal/config"
	"github.com/bnema/niri-spacer/internal/logger"
	"github.com/bnema/niri-spacer/internal/protocols"
)

// ErrNotRunning is returned for commands sent outside Start..Shutdown.
var ErrNotRunning = errors.New("wayland event loop is not running")

const createTimeout = 5 * time.Second

// command is one request to the event loop.
type command interface {
	isCommand()
}

type createWindowCmd struct {
	appID string
	title string
	color config.Color
	reply chan createReply
}

type closeWindowCmd struct {
	localID uint32
	reply   chan error
}

type closeAllCmd struct {
	reply chan struct{}
}

func (createWindowCmd) isCommand() {}
func (closeWindowCmd) isCommand()  {}
func (closeAllCmd) isCommand()     {}

type createReply struct {
	localID uint32
	err     error
}

// EventLoop manages the Wayland connection and all native windows.
// Protocol dispatch runs on a single locked OS thread; commands are
// funneled through one channel so window state has a single writer.
type EventLoop struct {
	debug bool

	commands chan command
	events   chan Event
	done     chan struct{}

	display    *wl.Display
	registry   *wl.Registry
	ctx        *wl.Context
	compositor *protocols.Compositor
	shm        *protocols.Shm
	wmBase     *protocols.WmBase
	decoration *protocols.DecorationManager

	mu      sync.Mutex
	windows map[uint32]*window
	nextID  uint32

	startOnce    sync.Once
	shutdownOnce sync.Once
	shuttingDown bool
}

// NewEventLoop creates an event loop. Call Start before issuing commands.
func NewEventLoop(debug bool) *EventLoop {
	return &EventLoop{
		debug:    debug,
		commands: make(chan command, 8),
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
		windows:  make(map[uint32]*window),
		nextID:   1,
	}
}

// Events returns the loop's outbound event channel.
func (l *EventLoop) Events() <-chan Event {
	return l.events
}

// Start connects to the compositor and begins dispatching. It returns
// once the required globals are bound or the connection failed.
func (l *EventLoop) Start() error {
	var err error
	started := false
	l.startOnce.Do(func() {
		started = true
		initErr := make(chan error, 1)
		go l.run(initErr)
		err = <-initErr
	})
	if !started {
		return errors.New("wayland event loop already started")
	}
	if err != nil {
		return err
	}
	go l.commandLoop()
	return nil
}

// HandleRegistryGlobal implements wl.RegistryGlobalHandler. Globals we
// need are bound as they are announced.
func (l *EventLoop) HandleRegistryGlobal(event wl.RegistryGlobalEvent) {
	switch event.Interface {
	case protocols.CompositorInterface:
		compositor := protocols.NewCompositor(l.ctx)
		if l.bindGlobal(event, compositor, 4) {
			l.compositor = compositor
		}
	case protocols.ShmInterface:
		shm := protocols.NewShm(l.ctx)
		if l.bindGlobal(event, shm, 1) {
			l.shm = shm
		}
	case protocols.WmBaseInterface:
		wmBase := protocols.NewWmBase(l.ctx)
		if l.bindGlobal(event, wmBase, 1) {
			l.wmBase = wmBase
		}
	case protocols.DecorationManagerInterface:
		decoration := protocols.NewDecorationManager(l.ctx)
		if l.bindGlobal(event, decoration, 1) {
			l.decoration = decoration
		}
	}
}

func (l *EventLoop) bindGlobal(event wl.RegistryGlobalEvent, proxy wl.Proxy, maxVersion uint32) bool {
	version := event.Version
	if version > maxVersion {
		version = maxVersion
	}
	id, err := l.registry.BindID(event.Name, event.Interface, version)
	if err != nil {
		logger.Warnf("Failed to bind %s: %v", event.Interface, err)
		return false
	}
	proxy.SetID(id)
	l.ctx.Register(proxy)
	if l.debug {
		logger.Debugf("Bound %s v%d", event.Interface, version)
	}
	return true
}

// run owns the protocol dispatch. It stays on one OS thread for the
// lifetime of the connection.
func (l *EventLoop) run(initErr chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	display, err := wl.Connect("")
	if err != nil {
		initErr <- fmt.Errorf("failed to connect to Wayland display: %w", err)
		return
	}
	l.display = display
	l.ctx = display.Context()

	l.registry = display.GetRegistry()
	l.registry.AddGlobalHandler(l)

	if err := display.Roundtrip(); err != nil {
		initErr <- fmt.Errorf("initial roundtrip failed: %w", err)
		return
	}

	switch {
	case l.compositor == nil:
		initErr <- errors.New("compositor does not advertise wl_compositor")
		return
	case l.shm == nil:
		initErr <- errors.New("compositor does not advertise wl_shm")
		return
	case l.wmBase == nil:
		initErr <- errors.New("compositor does not advertise xdg_wm_base")
		return
	}
	if l.decoration == nil {
		logger.Debug("No zxdg_decoration_manager_v1, windows keep client-side decorations")
	}

	initErr <- nil

	for {
		if err := l.display.Dispatch(); err != nil {
			l.mu.Lock()
			quiet := l.shuttingDown
			l.mu.Unlock()
			if !quiet {
				l.emit(ErrorEvent{Err: fmt.Errorf("wayland dispatch failed: %w", err)})
			}
			return
		}
	}
}

// commandLoop serializes all window mutations.
func (l *EventLoop) commandLoop() {
	for {
		select {
		case <-l.done:
			return
		case cmd := <-l.commands:
			switch c := cmd.(type) {
			case createWindowCmd:
				id, err := l.handleCreate(c)
				c.reply <- createReply{localID: id, err: err}
			case closeWindowCmd:
				c.reply <- l.handleClose(c.localID)
			case closeAllCmd:
				l.handleCloseAll()
				close(c.reply)
			}
		}
	}
}

func (l *EventLoop) handleCreate(cmd createWindowCmd) (uint32, error) {
	l.mu.Lock()
	localID := l.nextID
	l.nextID++
	l.mu.Unlock()

	win, err := newWindow(l, localID, cmd.appID, cmd.title, cmd.color)
	if err != nil {
		return 0, fmt.Errorf("failed to create native window %s: %w", cmd.appID, err)
	}

	select {
	case <-win.configured:
	case <-time.After(createTimeout):
		win.destroy()
		return 0, fmt.Errorf("window %s was never configured by the compositor", cmd.appID)
	}

	l.mu.Lock()
	l.windows[localID] = win
	l.mu.Unlock()

	l.emit(WindowCreatedEvent{LocalID: localID, AppID: cmd.appID})
	if l.debug {
		logger.Debugf("Native window %d (%s) mapped", localID, cmd.appID)
	}
	return localID, nil
}

func (l *EventLoop) handleClose(localID uint32) error {
	l.mu.Lock()
	win, ok := l.windows[localID]
	delete(l.windows, localID)
	l.mu.Unlock()

	if !ok {
		return fmt.Errorf("no native window with id %d", localID)
	}
	win.destroy()
	l.emit(WindowClosedEvent{LocalID: localID})
	return nil
}

func (l *EventLoop) handleCloseAll() {
	l.mu.Lock()
	windows := l.windows
	l.windows = make(map[uint32]*window)
	l.mu.Unlock()

	for id, win := range windows {
		win.destroy()
		l.emit(WindowClosedEvent{LocalID: id})
	}
}

func (l *EventLoop) emit(event Event) {
	select {
	case l.events <- event:
	default:
		logger.Warnf("Dropping wayland event, consumer too slow: %#v", event)
	}
}

func (l *EventLoop) send(cmd command) error {
	select {
	case <-l.done:
		return ErrNotRunning
	case l.commands <- cmd:
		return nil
	}
}

// CreateWindow creates one spacer window and blocks until the
// compositor has configured it.
func (l *EventLoop) CreateWindow(appID, title string, color config.Color) (uint32, error) {
	if l.display == nil {
		return 0, ErrNotRunning
	}
	reply := make(chan createReply, 1)
	if err := l.send(createWindowCmd{appID: appID, title: title, color: color, reply: reply}); err != nil {
		return 0, err
	}
	select {
	case r := <-reply:
		return r.localID, r.err
	case <-l.done:
		return 0, ErrNotRunning
	}
}

// CloseWindow tears down one window.
func (l *EventLoop) CloseWindow(localID uint32) error {
	if l.display == nil {
		return ErrNotRunning
	}
	reply := make(chan error, 1)
	if err := l.send(closeWindowCmd{localID: localID, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-l.done:
		return ErrNotRunning
	}
}

// CloseAllWindows tears down every window. Safe to call repeatedly.
func (l *EventLoop) CloseAllWindows() {
	if l.display == nil {
		return
	}
	reply := make(chan struct{})
	if err := l.send(closeAllCmd{reply: reply}); err != nil {
		return
	}
	select {
	case <-reply:
	case <-l.done:
	}
}

// exitOnCompositorClose ends the loop after the compositor asked to
// close a toplevel. The error event fires before teardown so consumers
// see why the subsystem went away.
func (l *EventLoop) exitOnCompositorClose(localID uint32) {
	_ = l.CloseWindow(localID)
	l.emit(ErrorEvent{Err: fmt.Errorf("compositor closed native window %d, shutting the window backend down", localID)})
	l.Shutdown()
}

// Shutdown closes all windows and disconnects. Safe to call repeatedly
// and before Start.
func (l *EventLoop) Shutdown() {
	l.shutdownOnce.Do(func() {
		l.mu.Lock()
		l.shuttingDown = true
		l.mu.Unlock()

		if l.display != nil {
			l.CloseAllWindows()
		}
		close(l.done)
		if l.display != nil {
			// Unblocks Dispatch on the loop thread.
			_ = l.ctx.Close()
		}
	})
}
