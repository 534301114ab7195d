package wayland

import (
	"fmt"
	"sync"
	"syscall"

	"github.com/bnema/wlturbo/wl"

	"github.com/bnema/niri-spacer/internal/config"
	"github.com/bnema/niri-spacer/internal/logger"
	"github.com/bnema/niri-spacer/internal/protocols"
)

// Default and bounding sizes for spacer windows, in surface pixels.
const (
	defaultWidth  = 200
	defaultHeight = 100
	minWidth      = 100
	minHeight     = 60
	maxWidth      = 400
	maxHeight     = 300
)

// window is one native spacer toplevel. Configure events mutate it on
// the dispatch thread while the command loop reads it, hence the lock.
type window struct {
	loop    *EventLoop
	localID uint32
	appID   string
	color   config.Color

	surface    *protocols.Surface
	xdgSurface *protocols.XdgSurface
	toplevel   *protocols.Toplevel
	decoration *protocols.ToplevelDecoration

	configured    chan struct{}
	configureOnce sync.Once

	mu      sync.Mutex
	width   int32
	height  int32
	pool    *protocols.ShmPool
	buffer  *protocols.Buffer
	shmData []byte
	shmFD   int
	closed  bool
}

// newWindow builds the full surface stack and commits it. The first
// configure event triggers the initial draw.
func newWindow(loop *EventLoop, localID uint32, appID, title string, color config.Color) (*window, error) {
	surface, err := loop.compositor.CreateSurface()
	if err != nil {
		return nil, fmt.Errorf("create_surface: %w", err)
	}

	xdgSurface, err := loop.wmBase.GetXdgSurface(surface)
	if err != nil {
		_ = surface.Destroy()
		return nil, fmt.Errorf("get_xdg_surface: %w", err)
	}

	toplevel, err := xdgSurface.GetToplevel()
	if err != nil {
		_ = xdgSurface.Destroy()
		_ = surface.Destroy()
		return nil, fmt.Errorf("get_toplevel: %w", err)
	}

	w := &window{
		loop:       loop,
		localID:    localID,
		appID:      appID,
		color:      color,
		surface:    surface,
		xdgSurface: xdgSurface,
		toplevel:   toplevel,
		configured: make(chan struct{}),
		shmFD:      -1,
	}

	toplevel.SetConfigureHandler(w.handleToplevelConfigure)
	toplevel.SetCloseHandler(w.handleClose)
	xdgSurface.SetConfigureHandler(w.handleConfigure)

	if err := toplevel.SetAppID(appID); err != nil {
		w.destroy()
		return nil, fmt.Errorf("set_app_id: %w", err)
	}
	if err := toplevel.SetTitle(title); err != nil {
		w.destroy()
		return nil, fmt.Errorf("set_title: %w", err)
	}
	if err := toplevel.SetMinSize(minWidth, minHeight); err != nil {
		w.destroy()
		return nil, fmt.Errorf("set_min_size: %w", err)
	}
	if err := toplevel.SetMaxSize(maxWidth, maxHeight); err != nil {
		w.destroy()
		return nil, fmt.Errorf("set_max_size: %w", err)
	}

	if loop.decoration != nil {
		decoration, err := loop.decoration.GetToplevelDecoration(toplevel)
		if err == nil {
			w.decoration = decoration
			_ = decoration.SetMode(protocols.DecorationModeServerSide)
		}
	}

	if err := surface.Commit(); err != nil {
		w.destroy()
		return nil, fmt.Errorf("commit: %w", err)
	}

	return w, nil
}

// handleToplevelConfigure records the size the compositor chose. Runs
// on the dispatch thread.
func (w *window) handleToplevelConfigure(width, height int32) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if width > 0 {
		w.width = width
	}
	if height > 0 {
		w.height = height
	}
}

// handleConfigure acknowledges and redraws. Runs on the dispatch thread.
func (w *window) handleConfigure(serial uint32) {
	if err := w.xdgSurface.AckConfigure(serial); err != nil {
		logger.Warnf("ack_configure failed for %s: %v", w.appID, err)
		return
	}
	if err := w.draw(); err != nil {
		logger.Warnf("Failed to draw %s: %v", w.appID, err)
		return
	}
	w.configureOnce.Do(func() { close(w.configured) })
}

// handleClose reacts to the compositor closing the toplevel. A close
// request against any spacer is terminal for the whole subsystem: the
// remaining windows die with the connection.
func (w *window) handleClose() {
	go w.loop.exitOnCompositorClose(w.localID)
}

// draw allocates an shm buffer at the current size, fills it with the
// background color and attaches it.
func (w *window) draw() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	width, height := w.width, w.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}

	stride := width * 4
	size := stride * height

	fd, err := wl.CreateAnonymousFile(int64(size))
	if err != nil {
		return fmt.Errorf("failed to create shm file: %w", err)
	}

	data, err := wl.MapMemory(fd, int(size))
	if err != nil {
		_ = syscall.Close(fd)
		return fmt.Errorf("failed to map shm file: %w", err)
	}

	fillARGB(data, w.color)

	pool, err := w.loop.shm.CreatePool(fd, size)
	if err != nil {
		_ = wl.UnmapMemory(data)
		_ = syscall.Close(fd)
		return fmt.Errorf("create_pool: %w", err)
	}

	buffer, err := pool.CreateBuffer(0, width, height, stride, protocols.ShmFormatARGB8888)
	if err != nil {
		_ = pool.Destroy()
		_ = wl.UnmapMemory(data)
		_ = syscall.Close(fd)
		return fmt.Errorf("create_buffer: %w", err)
	}

	if err := w.surface.Attach(buffer, 0, 0); err != nil {
		return fmt.Errorf("attach: %w", err)
	}
	if err := w.surface.Damage(0, 0, width, height); err != nil {
		return fmt.Errorf("damage: %w", err)
	}
	if err := w.surface.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	// The previous buffer is superseded now that the new one is
	// committed.
	w.releaseBufferLocked()
	w.pool = pool
	w.buffer = buffer
	w.shmData = data
	w.shmFD = fd

	return nil
}

// releaseBufferLocked frees the current shm buffer. Caller holds w.mu.
func (w *window) releaseBufferLocked() {
	if w.buffer != nil {
		_ = w.buffer.Destroy()
		w.buffer = nil
	}
	if w.pool != nil {
		_ = w.pool.Destroy()
		w.pool = nil
	}
	if w.shmData != nil {
		_ = wl.UnmapMemory(w.shmData)
		w.shmData = nil
	}
	if w.shmFD >= 0 {
		_ = syscall.Close(w.shmFD)
		w.shmFD = -1
	}
}

// destroy tears the window down. Safe to call more than once.
func (w *window) destroy() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true

	if w.decoration != nil {
		_ = w.decoration.Destroy()
	}
	_ = w.toplevel.Destroy()
	_ = w.xdgSurface.Destroy()
	_ = w.surface.Destroy()
	w.releaseBufferLocked()
}

// fillARGB writes an opaque color into a little-endian ARGB8888 buffer.
func fillARGB(data []byte, color config.Color) {
	for i := 0; i+3 < len(data); i += 4 {
		data[i] = color.B
		data[i+1] = color.G
		data[i+2] = color.R
		data[i+3] = 0xFF
	}
}
