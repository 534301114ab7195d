package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names for xdg-shell
const (
	WmBaseInterface = "xdg_wm_base"
)

// xdg_toplevel request opcodes, following the stable xdg-shell
// declaration order: destroy, set_parent, set_title, set_app_id,
// show_window_menu, move, resize, set_max_size, set_min_size.
// Getting these wrong makes the compositor decode size hints as seat
// object ids and kill the connection.
const (
	toplevelDestroyOpcode    = 0
	toplevelSetTitleOpcode   = 2
	toplevelSetAppIDOpcode   = 3
	toplevelSetMaxSizeOpcode = 7
	toplevelSetMinSizeOpcode = 8
)

// WmBase is the xdg_wm_base global.
type WmBase struct {
	wl.BaseProxy
}

// NewWmBase creates a wm base proxy for registry binding
func NewWmBase(ctx *wl.Context) *WmBase {
	base := &WmBase{}
	base.SetContext(ctx)
	// Note: ID will be set by Registry.Bind
	return base
}

// GetXdgSurface wraps a wl_surface in an xdg_surface
func (b *WmBase) GetXdgSurface(surface *Surface) (*XdgSurface, error) {
	xdgSurface := NewXdgSurface(b.Context())

	// Opcode 2: get_xdg_surface
	const opcode = 2

	err := b.Context().SendRequest(b, opcode, xdgSurface, surface)
	if err != nil {
		b.Context().Unregister(xdgSurface)
		return nil, err
	}

	return xdgSurface, nil
}

// Pong answers a ping from the compositor
func (b *WmBase) Pong(serial uint32) error {
	// Opcode 3: pong
	const opcode = 3
	return b.Context().SendRequest(b, opcode, serial)
}

// Destroy destroys the wm base
func (b *WmBase) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := b.Context().SendRequest(b, opcode)
	b.Context().Unregister(b)
	return err
}

// Dispatch handles incoming events
func (b *WmBase) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // ping
		serial := event.Uint32()
		// Unanswered pings get the client killed as unresponsive
		_ = b.Pong(serial)
	}
}

// XdgSurface is an xdg_surface.
type XdgSurface struct {
	wl.BaseProxy
	configureHandler func(serial uint32)
}

// NewXdgSurface creates a new xdg surface proxy
func NewXdgSurface(ctx *wl.Context) *XdgSurface {
	surface := &XdgSurface{}
	surface.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	surface.SetID(id)
	ctx.Register(surface)
	return surface
}

// SetConfigureHandler sets the handler for configure events
func (s *XdgSurface) SetConfigureHandler(handler func(serial uint32)) {
	s.configureHandler = handler
}

// GetToplevel assigns the toplevel role to the surface
func (s *XdgSurface) GetToplevel() (*Toplevel, error) {
	toplevel := NewToplevel(s.Context())

	// Opcode 1: get_toplevel
	const opcode = 1

	err := s.Context().SendRequest(s, opcode, toplevel)
	if err != nil {
		s.Context().Unregister(toplevel)
		return nil, err
	}

	return toplevel, nil
}

// AckConfigure acknowledges a configure event
func (s *XdgSurface) AckConfigure(serial uint32) error {
	// Opcode 4: ack_configure
	const opcode = 4
	return s.Context().SendRequest(s, opcode, serial)
}

// Destroy destroys the xdg surface
func (s *XdgSurface) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := s.Context().SendRequest(s, opcode)
	s.Context().Unregister(s)
	return err
}

// Dispatch handles incoming events
func (s *XdgSurface) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // configure
		serial := event.Uint32()
		if s.configureHandler != nil {
			s.configureHandler(serial)
		}
	}
}

// Toplevel is an xdg_toplevel.
type Toplevel struct {
	wl.BaseProxy
	configureHandler func(width, height int32)
	closeHandler     func()
}

// NewToplevel creates a new toplevel proxy
func NewToplevel(ctx *wl.Context) *Toplevel {
	toplevel := &Toplevel{}
	toplevel.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	toplevel.SetID(id)
	ctx.Register(toplevel)
	return toplevel
}

// SetConfigureHandler sets the handler for configure events
func (t *Toplevel) SetConfigureHandler(handler func(width, height int32)) {
	t.configureHandler = handler
}

// SetCloseHandler sets the handler for close events
func (t *Toplevel) SetCloseHandler(handler func()) {
	t.closeHandler = handler
}

// SetTitle sets the window title
func (t *Toplevel) SetTitle(title string) error {
	return t.Context().SendRequest(t, toplevelSetTitleOpcode, title)
}

// SetAppID sets the application id
func (t *Toplevel) SetAppID(appID string) error {
	return t.Context().SendRequest(t, toplevelSetAppIDOpcode, appID)
}

// SetMaxSize sets the maximum window size
func (t *Toplevel) SetMaxSize(width, height int32) error {
	return t.Context().SendRequest(t, toplevelSetMaxSizeOpcode, width, height)
}

// SetMinSize sets the minimum window size
func (t *Toplevel) SetMinSize(width, height int32) error {
	return t.Context().SendRequest(t, toplevelSetMinSizeOpcode, width, height)
}

// Destroy destroys the toplevel
func (t *Toplevel) Destroy() error {
	err := t.Context().SendRequest(t, toplevelDestroyOpcode)
	t.Context().Unregister(t)
	return err
}

// Dispatch handles incoming events
func (t *Toplevel) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // configure
		width := event.Int32()
		height := event.Int32()
		// The trailing states array is not needed
		if t.configureHandler != nil {
			t.configureHandler(width, height)
		}
	case 1: // close
		if t.closeHandler != nil {
			t.closeHandler()
		}
	}
}
