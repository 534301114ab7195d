package wayland

// Event is a notification from the native window event loop.
type Event interface {
	isEvent()
}

// WindowCreatedEvent reports a window that finished its first commit.
type WindowCreatedEvent struct {
	LocalID uint32
	AppID   string
}

// WindowClosedEvent reports a window that was torn down.
type WindowClosedEvent struct {
	LocalID uint32
}

// ErrorEvent reports a fatal event loop failure.
type ErrorEvent struct {
	Err error
}

func (WindowCreatedEvent) isEvent() {}
func (WindowClosedEvent) isEvent()  {}
func (ErrorEvent) isEvent()         {}
