// Package protocols provides low-level Wayland protocol wrappers for
// the native spacer windows.
package protocols

import (
	"github.com/bnema/wlturbo/wl"
)

// Protocol interface names for the core globals
const (
	CompositorInterface = "wl_compositor"
	ShmInterface        = "wl_shm"
)

// Pixel formats from the wl_shm format enum
const (
	ShmFormatARGB8888 = 0
)

// Compositor is the wl_compositor global.
type Compositor struct {
	wl.BaseProxy
}

// NewCompositor creates a compositor proxy for registry binding
func NewCompositor(ctx *wl.Context) *Compositor {
	compositor := &Compositor{}
	compositor.SetContext(ctx)
	// Note: ID will be set by Registry.Bind
	return compositor
}

// CreateSurface creates a new surface
func (c *Compositor) CreateSurface() (*Surface, error) {
	surface := NewSurface(c.Context())

	// Opcode 0: create_surface
	const opcode = 0

	err := c.Context().SendRequest(c, opcode, surface)
	if err != nil {
		c.Context().Unregister(surface)
		return nil, err
	}

	return surface, nil
}

// Dispatch handles incoming events (compositor has no events)
func (c *Compositor) Dispatch(_ *wl.Event) {
}

// Surface is a wl_surface.
type Surface struct {
	wl.BaseProxy
}

// NewSurface creates a new surface proxy
func NewSurface(ctx *wl.Context) *Surface {
	surface := &Surface{}
	surface.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	surface.SetID(id)
	ctx.Register(surface)
	return surface
}

// Attach attaches a buffer to the surface
func (s *Surface) Attach(buffer *Buffer, x, y int32) error {
	// Opcode 1: attach
	const opcode = 1

	var bufferProxy wl.Proxy
	if buffer != nil {
		bufferProxy = buffer
	}

	return s.Context().SendRequest(s, opcode, bufferProxy, x, y)
}

// Damage marks a region of the surface as needing repaint
func (s *Surface) Damage(x, y, width, height int32) error {
	// Opcode 2: damage
	const opcode = 2
	return s.Context().SendRequest(s, opcode, x, y, width, height)
}

// Commit atomically applies the pending surface state
func (s *Surface) Commit() error {
	// Opcode 6: commit
	const opcode = 6
	return s.Context().SendRequest(s, opcode)
}

// Destroy destroys the surface
func (s *Surface) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := s.Context().SendRequest(s, opcode)
	s.Context().Unregister(s)
	return err
}

// Dispatch handles incoming events (enter/leave are ignored)
func (s *Surface) Dispatch(_ *wl.Event) {
}

// Shm is the wl_shm global.
type Shm struct {
	wl.BaseProxy
}

// NewShm creates a shm proxy for registry binding
func NewShm(ctx *wl.Context) *Shm {
	shm := &Shm{}
	shm.SetContext(ctx)
	// Note: ID will be set by Registry.Bind
	return shm
}

// CreatePool creates a shared memory pool backed by fd
func (s *Shm) CreatePool(fd int, size int32) (*ShmPool, error) {
	pool := NewShmPool(s.Context())

	// Opcode 0: create_pool
	const opcode = 0

	// File descriptors must be sent via SendRequestWithFDs
	err := s.Context().SendRequestWithFDs(s, opcode, []int{fd}, pool, uintptr(fd), size)
	if err != nil {
		s.Context().Unregister(pool)
		return nil, err
	}

	return pool, nil
}

// Dispatch handles incoming events (format announcements are ignored)
func (s *Shm) Dispatch(_ *wl.Event) {
}

// ShmPool is a wl_shm_pool.
type ShmPool struct {
	wl.BaseProxy
}

// NewShmPool creates a new shm pool proxy
func NewShmPool(ctx *wl.Context) *ShmPool {
	pool := &ShmPool{}
	pool.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	pool.SetID(id)
	ctx.Register(pool)
	return pool
}

// CreateBuffer creates a buffer from the pool
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format uint32) (*Buffer, error) {
	buffer := NewBuffer(p.Context())

	// Opcode 0: create_buffer
	const opcode = 0

	err := p.Context().SendRequest(p, opcode, buffer, offset, width, height, stride, format)
	if err != nil {
		p.Context().Unregister(buffer)
		return nil, err
	}

	return buffer, nil
}

// Destroy destroys the pool
func (p *ShmPool) Destroy() error {
	// Opcode 1: destroy
	const opcode = 1
	err := p.Context().SendRequest(p, opcode)
	p.Context().Unregister(p)
	return err
}

// Dispatch handles incoming events (pool has no events)
func (p *ShmPool) Dispatch(_ *wl.Event) {
}

// Buffer is a wl_buffer.
type Buffer struct {
	wl.BaseProxy
	releaseHandler func()
}

// NewBuffer creates a new buffer proxy
func NewBuffer(ctx *wl.Context) *Buffer {
	buffer := &Buffer{}
	buffer.SetContext(ctx)
	// Allocate and set ID before registering
	id := ctx.AllocateID()
	buffer.SetID(id)
	ctx.Register(buffer)
	return buffer
}

// SetReleaseHandler sets the handler for release events
func (b *Buffer) SetReleaseHandler(handler func()) {
	b.releaseHandler = handler
}

// Destroy destroys the buffer
func (b *Buffer) Destroy() error {
	// Opcode 0: destroy
	const opcode = 0
	err := b.Context().SendRequest(b, opcode)
	b.Context().Unregister(b)
	return err
}

// Dispatch handles incoming events
func (b *Buffer) Dispatch(event *wl.Event) {
	switch event.Opcode {
	case 0: // release
		if b.releaseHandler != nil {
			b.releaseHandler()
		}
	}
}
