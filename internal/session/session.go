// Package session inspects the environment niri-spacer runs in and
// reports whether a usable niri session is present.
package session

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNoSocketPath indicates the NIRI_SOCKET environment variable is unset.
var ErrNoSocketPath = errors.New("NIRI_SOCKET environment variable not set, is niri running?")

// InvalidSocketPathError indicates NIRI_SOCKET points at something unusable.
type InvalidSocketPathError struct {
	Path   string
	Reason string
}

func (e *InvalidSocketPathError) Error() string {
	return fmt.Sprintf("invalid niri socket path %s: %s", e.Path, e.Reason)
}

// SocketPath returns the niri IPC socket path from the environment.
func SocketPath() (string, error) {
	path := os.Getenv("NIRI_SOCKET")
	if path == "" {
		return "", ErrNoSocketPath
	}
	return path, nil
}

// Info captures everything we can learn about the running session.
type Info struct {
	NiriSocket     string
	SocketExists   bool
	SocketWritable bool
	WaylandDisplay string
	SessionType    string
	SessionDesktop string
	CurrentDesktop string
}

// Detect inspects the environment without touching the socket itself.
func Detect() *Info {
	info := &Info{
		NiriSocket:     os.Getenv("NIRI_SOCKET"),
		WaylandDisplay: os.Getenv("WAYLAND_DISPLAY"),
		SessionType:    os.Getenv("XDG_SESSION_TYPE"),
		SessionDesktop: os.Getenv("XDG_SESSION_DESKTOP"),
		CurrentDesktop: os.Getenv("XDG_CURRENT_DESKTOP"),
	}

	if info.NiriSocket != "" {
		if st, err := os.Stat(info.NiriSocket); err == nil {
			info.SocketExists = true
			// Mode bits are a best-effort signal, connecting is the real test.
			info.SocketWritable = st.Mode().Perm()&0o200 != 0
		}
	}

	return info
}

// Validate returns an error describing the first problem that would stop
// the tool from working.
func Validate() error {
	info := Detect()

	if info.NiriSocket == "" {
		return ErrNoSocketPath
	}
	if !info.SocketExists {
		return &InvalidSocketPathError{Path: info.NiriSocket, Reason: "socket does not exist"}
	}
	if !info.SocketWritable {
		return &InvalidSocketPathError{Path: info.NiriSocket, Reason: "socket is not writable"}
	}
	return nil
}

// IsValid reports whether the session looks usable.
func (i *Info) IsValid() bool {
	return i.NiriSocket != "" && i.SocketExists && i.SocketWritable
}

// IsNiriDesktop reports whether the desktop environment identifies as niri.
func (i *Info) IsNiriDesktop() bool {
	return strings.EqualFold(i.SessionDesktop, "niri") ||
		strings.Contains(strings.ToLower(i.CurrentDesktop), "niri")
}

// Summary renders a multi-line report of the detected session.
func (i *Info) Summary() string {
	var b strings.Builder

	writeLine := func(label, value string) {
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(&b, "  %-20s %s\n", label+":", value)
	}

	b.WriteString("Session environment:\n")
	writeLine("NIRI_SOCKET", i.NiriSocket)
	fmt.Fprintf(&b, "  %-20s %v\n", "socket exists:", i.SocketExists)
	fmt.Fprintf(&b, "  %-20s %v\n", "socket writable:", i.SocketWritable)
	writeLine("WAYLAND_DISPLAY", i.WaylandDisplay)
	writeLine("XDG_SESSION_TYPE", i.SessionType)
	writeLine("XDG_SESSION_DESKTOP", i.SessionDesktop)
	writeLine("XDG_CURRENT_DESKTOP", i.CurrentDesktop)

	return b.String()
}

// Recommendations lists actionable fixes for an incomplete session.
func (i *Info) Recommendations() []string {
	var recs []string

	if i.NiriSocket == "" {
		recs = append(recs, "start niri, or run this tool from inside a niri session")
	} else if !i.SocketExists {
		recs = append(recs, "NIRI_SOCKET points at a missing socket, restart niri or unset the variable")
	} else if !i.SocketWritable {
		recs = append(recs, "the niri socket is not writable by this user, check its permissions")
	}

	if i.WaylandDisplay == "" {
		recs = append(recs, "WAYLAND_DISPLAY is not set, native spacer windows need a Wayland display")
	}
	if i.SessionType != "" && !strings.EqualFold(i.SessionType, "wayland") {
		recs = append(recs, fmt.Sprintf("session type is %q, expected wayland", i.SessionType))
	}
	if i.NiriSocket != "" && !i.IsNiriDesktop() && (i.SessionDesktop != "" || i.CurrentDesktop != "") {
		recs = append(recs, "the desktop environment does not identify as niri, workspace actions may fail")
	}

	return recs
}
