// Package niritest provides a scripted in-process niri IPC server for
// tests. It speaks the same line-delimited JSON protocol over a unix
// socket in a temp directory.
package niritest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/bnema/niri-spacer/internal/niri"
)

// Server is a fake niri compositor.
type Server struct {
	t    *testing.T
	ln   net.Listener
	path string

	mu         sync.Mutex
	workspaces []niri.Workspace
	windows    []niri.Window
	actionErrs map[string]string
	actions    []niri.Action
	eventConns []net.Conn
	wg         sync.WaitGroup
}

// Start listens on a fresh socket and serves until Close.
func Start(t *testing.T) *Server {
	t.Helper()

	path := filepath.Join(t.TempDir(), "niri.sock")
	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatalf("niritest: listen failed: %v", err)
	}

	s := &Server{
		t:          t,
		ln:         ln,
		path:       path,
		actionErrs: make(map[string]string),
	}

	s.wg.Add(1)
	go s.acceptLoop()
	t.Cleanup(s.Close)

	return s
}

// SocketPath returns the unix socket path to connect to.
func (s *Server) SocketPath() string {
	return s.path
}

// Close shuts the listener and every open connection down.
func (s *Server) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	for _, conn := range s.eventConns {
		_ = conn.Close()
	}
	s.eventConns = nil
	s.mu.Unlock()
	s.wg.Wait()
}

// SetWorkspaces replaces the workspace list served to clients.
func (s *Server) SetWorkspaces(workspaces []niri.Workspace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workspaces = workspaces
}

// SetWindows replaces the window list served to clients.
func (s *Server) SetWindows(windows []niri.Window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = windows
}

// FailAction makes every action of the named variant reply with Err.
func (s *Server) FailAction(variant, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionErrs[variant] = message
}

// Actions returns every action received so far, in order.
func (s *Server) Actions() []niri.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]niri.Action(nil), s.actions...)
}

// ActionNames returns the variant names of received actions, in order.
func (s *Server) ActionNames() []string {
	var names []string
	for _, a := range s.Actions() {
		names = append(names, reflect.TypeOf(a).Name())
	}
	return names
}

// PushLine writes one raw line to every subscribed event stream.
func (s *Server) PushLine(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.eventConns {
		fmt.Fprintf(conn, "%s\n", line)
	}
}

// PushFocusChanged emits a WindowFocusChanged event.
func (s *Server) PushFocusChanged(id uint64) {
	s.PushLine(fmt.Sprintf(`{"WindowFocusChanged":{"id":%d}}`, id))
}

// EventConnCount reports how many event stream subscriptions are open.
func (s *Server) EventConnCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.eventConns)
}

// CloseEventConns drops all event stream connections, simulating a
// compositor restart.
func (s *Server) CloseEventConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.eventConns {
		_ = conn.Close()
	}
	s.eventConns = nil
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := scanner.Bytes()

		var unit string
		if err := json.Unmarshal(line, &unit); err == nil {
			switch unit {
			case "Workspaces":
				s.reply(conn, map[string]any{"Workspaces": s.snapshotWorkspaces()})
			case "Windows":
				s.reply(conn, map[string]any{"Windows": s.snapshotWindows()})
			case "EventStream":
				fmt.Fprintf(conn, "%s\n", `{"Ok":"Handled"}`)
				s.mu.Lock()
				s.eventConns = append(s.eventConns, conn)
				s.mu.Unlock()
				// Keep the connection open for pushes, drain any
				// further input without replying.
				continue
			default:
				fmt.Fprintf(conn, `{"Err":"unknown request %s"}`+"\n", unit)
			}
			continue
		}

		var envelope struct {
			Action json.RawMessage `json:"Action"`
		}
		if err := json.Unmarshal(line, &envelope); err != nil || envelope.Action == nil {
			fmt.Fprintf(conn, "%s\n", `{"Err":"malformed request"}`)
			continue
		}

		action, err := niri.ParseAction(envelope.Action)
		if err != nil {
			fmt.Fprintf(conn, `{"Err":"bad action: %s"}`+"\n", err)
			continue
		}

		s.mu.Lock()
		s.actions = append(s.actions, action)
		msg, failed := s.actionErrs[reflect.TypeOf(action).Name()]
		s.mu.Unlock()

		if failed {
			s.replyErr(conn, msg)
		} else {
			fmt.Fprintf(conn, "%s\n", `{"Ok":"Handled"}`)
		}
	}
	_ = conn.Close()
}

func (s *Server) snapshotWorkspaces() []niri.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.workspaces == nil {
		return []niri.Workspace{}
	}
	return append([]niri.Workspace{}, s.workspaces...)
}

func (s *Server) snapshotWindows() []niri.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.windows == nil {
		return []niri.Window{}
	}
	return append([]niri.Window{}, s.windows...)
}

func (s *Server) reply(conn net.Conn, okPayload any) {
	frame, err := json.Marshal(map[string]any{"Ok": okPayload})
	if err != nil {
		s.t.Errorf("niritest: failed to encode reply: %v", err)
		return
	}
	fmt.Fprintf(conn, "%s\n", frame)
}

func (s *Server) replyErr(conn net.Conn, msg string) {
	frame, err := json.Marshal(map[string]string{"Err": msg})
	if err != nil {
		s.t.Errorf("niritest: failed to encode reply: %v", err)
		return
	}
	fmt.Fprintf(conn, "%s\n", frame)
}
