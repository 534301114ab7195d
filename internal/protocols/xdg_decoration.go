package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names for xdg-decoration
const (
	DecorationManagerInterface = "zxdg_decoration_manager_v1"
)

// Decoration modes
const (
	DecorationModeClientSide uint32 = 1
	DecorationModeServerSide uint32 = 2
)

// DecorationManager is the zxdg_decoration_manager_v1 global.
type DecorationManager struct {
	wl.BaseProxy
}

// NewDecorationManager creates a decoration manager proxy for registry binding
func NewDecorationManager(ctx *wl.Context) *DecorationManager {
	manager := &DecorationManager{}
	manager.SetContext(ctx)
	// Note: ID will be set by Registry.Bind
	return manager
}

// GetToplevelDecoration creates a decoration object for a toplevel
func (m *DecorationManager) GetToplevelDecoration(toplevel *Toplevel) (*ToplevelDecoration, error) {
	decoration := NewToplevelDecoration(m.Context())

	// Opcode 1: get_toplevel_decoration
	const opcode = 1

	err := m.Context().SendRequest(m, opcode, decoration, toplevel)
	if err != nil {
		m.Context().Unregister(decoration)
		return nil, err
	}

	return decoration, nil
}

// Destroy destroys the decoration manager
func (m *DecorationManager) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := m.Context().SendRequest(m, opcode)
	m.Context().Unregister(m)
	return err
}

// Dispatch handles incoming events (manager has no events)
func (m *DecorationManager) Dispatch(_ *wl.Event) {
}

// ToplevelDecoration is a zxdg_toplevel_decoration_v1.
type ToplevelDecoration struct {
	wl.BaseProxy
	configureHandler func(mode uint32)
}

// NewToplevelDecoration creates a new toplevel decoration proxy
func NewToplevelDecoration(ctx *wl.Context) *ToplevelDecoration {
	decoration := &ToplevelDecoration{}
	decoration.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	decoration.SetID(id)
	ctx.Register(decoration)
	return decoration
}

// SetConfigureHandler sets the handler for configure events
func (d *ToplevelDecoration) SetConfigureHandler(handler func(mode uint32)) {
	d.configureHandler = handler
}

// SetMode requests a decoration mode
func (d *ToplevelDecoration) SetMode(mode uint32) error {
	// Opcode 1: set_mode
	const opcode = 1
	return d.Context().SendRequest(d, opcode, mode)
}

// Destroy destroys the decoration
func (d *ToplevelDecoration) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := d.Context().SendRequest(d, opcode)
	d.Context().Unregister(d)
	return err
}

// Dispatch handles incoming events
func (d *ToplevelDecoration) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // configure
		mode := event.Uint32()
		if d.configureHandler != nil {
			d.configureHandler(mode)
		}
	}
}
