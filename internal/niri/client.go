package niri

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"

	"github.com/bnema/niri-spacer/internal/session"
)

// Client is one connection to the niri IPC socket. A connection serves
// either request/response traffic or, after SubscribeEvents, a one-way
// event stream, never both.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	mu     sync.Mutex
}

// Connect opens a connection to the socket named by NIRI_SOCKET.
func Connect() (*Client, error) {
	path, err := session.SocketPath()
	if err != nil {
		return nil, err
	}
	return ConnectTo(path)
}

// ConnectTo opens a connection to a specific niri socket path.
func ConnectTo(path string) (*Client, error) {
	conn, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to niri socket %s: %w", path, err)
	}
	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// response is the niri reply envelope, exactly one field set.
type response struct {
	Ok  *json.RawMessage `json:"Ok"`
	Err *string          `json:"Err"`
}

// okPayload is the decoded Ok body. Replies that match none of these
// fields (such as the bare "Handled" acknowledgment) count as empty.
type okPayload struct {
	Workspaces *[]Workspace `json:"Workspaces"`
	Windows    *[]Window    `json:"Windows"`
}

func (c *Client) writeRequest(req Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	data = append(data, '\n')
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("failed to write to niri socket: %w", err)
	}
	return nil
}

// roundtrip sends one request and decodes the one-line reply. An Err
// reply is surfaced as a CompositorError classified by op.
func (c *Client) roundtrip(req Request, op Op) (*okPayload, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.writeRequest(req); err != nil {
		return nil, err
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("failed to read from niri socket: %w", err)
	}

	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnexpectedResponse, err)
	}
	if resp.Err != nil {
		return nil, &CompositorError{Op: op, Message: *resp.Err}
	}
	if resp.Ok == nil {
		return nil, ErrUnexpectedResponse
	}

	var payload okPayload
	// Non-object Ok bodies ("Handled") decode to the empty payload.
	_ = json.Unmarshal(*resp.Ok, &payload)
	return &payload, nil
}

// Workspaces lists all workspaces.
func (c *Client) Workspaces() ([]Workspace, error) {
	payload, err := c.roundtrip(WorkspacesRequest{}, OpAction)
	if err != nil {
		return nil, err
	}
	if payload.Workspaces == nil {
		return nil, ErrUnexpectedResponse
	}
	return *payload.Workspaces, nil
}

// Windows lists all windows.
func (c *Client) Windows() ([]Window, error) {
	payload, err := c.roundtrip(WindowsRequest{}, OpAction)
	if err != nil {
		return nil, err
	}
	if payload.Windows == nil {
		return nil, ErrUnexpectedResponse
	}
	return *payload.Windows, nil
}

func (c *Client) action(a Action, op Op) error {
	_, err := c.roundtrip(ActionRequest{Action: a}, op)
	return err
}

// Spawn asks the compositor to launch a command.
func (c *Client) Spawn(command []string) error {
	return c.action(Spawn{Command: command}, OpAction)
}

// SetWindowWidth resizes a window horizontally.
func (c *Client) SetWindowWidth(id uint64, change SizeChange) error {
	return c.action(SetWindowWidth{ID: &id, Change: change}, OpResize)
}

// SetWindowHeight resizes a window vertically.
func (c *Client) SetWindowHeight(id uint64, change SizeChange) error {
	return c.action(SetWindowHeight{ID: &id, Change: change}, OpResize)
}

// ResizeWindowToMinimum shrinks a window to the smallest width niri
// accepts, so a spacer occupies a sliver of its column.
func (c *Client) ResizeWindowToMinimum(id uint64) error {
	return c.SetWindowWidth(id, SetFixed(1))
}

// MoveWindowToWorkspaceIndex moves a window to the workspace at a
// 1-based index without shifting focus.
func (c *Client) MoveWindowToWorkspaceIndex(id uint64, index uint64) error {
	return c.action(MoveWindowToWorkspace{
		WindowID:  &id,
		Reference: WorkspaceIndex(index),
		Focus:     false,
	}, OpMove)
}

// MoveWindowToWorkspaceName moves a window to a named workspace
// without shifting focus.
func (c *Client) MoveWindowToWorkspaceName(id uint64, name string) error {
	return c.action(MoveWindowToWorkspace{
		WindowID:  &id,
		Reference: WorkspaceName(name),
		Focus:     false,
	}, OpMove)
}

// FocusWindow focuses a window by id.
func (c *Client) FocusWindow(id uint64) error {
	return c.action(FocusWindow{ID: id}, OpFocus)
}

// FocusWorkspaceIndex focuses the workspace at a 1-based index.
func (c *Client) FocusWorkspaceIndex(index uint64) error {
	return c.action(FocusWorkspace{Reference: WorkspaceIndex(index)}, OpFocus)
}

// FocusWorkspaceName focuses a named workspace.
func (c *Client) FocusWorkspaceName(name string) error {
	return c.action(FocusWorkspace{Reference: WorkspaceName(name)}, OpFocus)
}

// MoveColumnLeft moves the focused column one position left.
func (c *Client) MoveColumnLeft() error {
	return c.action(MoveColumnLeft{}, OpMove)
}

// MoveColumnToFirst moves the focused column to the first position.
func (c *Client) MoveColumnToFirst() error {
	return c.action(MoveColumnToFirst{}, OpMove)
}

// FocusColumnLeft focuses the column to the left.
func (c *Client) FocusColumnLeft() error {
	return c.action(FocusColumnLeft{}, OpFocus)
}

// FocusColumnRight focuses the column to the right.
func (c *Client) FocusColumnRight() error {
	return c.action(FocusColumnRight{}, OpFocus)
}

// CenterColumn centers the focused column.
func (c *Client) CenterColumn() error {
	return c.action(CenterColumn{}, OpAction)
}

// SetColumnWidth resizes the focused column.
func (c *Client) SetColumnWidth(change SizeChange) error {
	return c.action(SetColumnWidth{Change: change}, OpResize)
}

// MaximizeColumn toggles maximization of the focused column.
func (c *Client) MaximizeColumn() error {
	return c.action(MaximizeColumn{}, OpAction)
}
