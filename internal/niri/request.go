package niri

import (
	"encoding/json"
	"fmt"
)

// The wire format follows niri's IPC conventions: unit request variants
// encode as bare strings ("Workspaces"), everything else as a single-key
// object whose key names the variant.

// Request is one of the niri IPC request forms.
type Request interface {
	isRequest()
}

// WorkspacesRequest asks for the current workspace list.
type WorkspacesRequest struct{}

// WindowsRequest asks for the current window list.
type WindowsRequest struct{}

// EventStreamRequest upgrades the connection to a push event stream.
type EventStreamRequest struct{}

// ActionRequest wraps a compositor action.
type ActionRequest struct {
	Action Action
}

func (WorkspacesRequest) isRequest()  {}
func (WindowsRequest) isRequest()     {}
func (EventStreamRequest) isRequest() {}
func (ActionRequest) isRequest()      {}

func (WorkspacesRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal("Workspaces")
}

func (WindowsRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal("Windows")
}

func (EventStreamRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal("EventStream")
}

func (r ActionRequest) MarshalJSON() ([]byte, error) {
	return tagged("Action", r.Action)
}

// tagged encodes payload as {"name": payload}.
func tagged(name string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]json.RawMessage{name: raw})
}

// Action is one of the compositor actions niri-spacer issues.
type Action interface {
	isAction()
}

// Spawn launches a command inside the compositor.
type Spawn struct {
	Command []string `json:"command"`
}

// SetWindowWidth resizes a window horizontally. A nil ID targets the
// focused window.
type SetWindowWidth struct {
	ID     *uint64    `json:"id"`
	Change SizeChange `json:"change"`
}

// SetWindowHeight resizes a window vertically. A nil ID targets the
// focused window.
type SetWindowHeight struct {
	ID     *uint64    `json:"id"`
	Change SizeChange `json:"change"`
}

// MoveWindowToWorkspace moves a window to another workspace. A nil
// WindowID targets the focused window.
type MoveWindowToWorkspace struct {
	WindowID  *uint64            `json:"window_id"`
	Reference WorkspaceReference `json:"reference"`
	Focus     bool               `json:"focus"`
}

// FocusWindow focuses a window by id.
type FocusWindow struct {
	ID uint64 `json:"id"`
}

// FocusWorkspace focuses a workspace.
type FocusWorkspace struct {
	Reference WorkspaceReference `json:"reference"`
}

// MoveColumnLeft moves the focused column one position left.
type MoveColumnLeft struct{}

// MoveColumnToFirst moves the focused column to the first position.
type MoveColumnToFirst struct{}

// FocusColumnLeft focuses the column left of the current one.
type FocusColumnLeft struct{}

// FocusColumnRight focuses the column right of the current one.
type FocusColumnRight struct{}

// CenterColumn centers the focused column on screen.
type CenterColumn struct{}

// SetColumnWidth resizes the focused column.
type SetColumnWidth struct {
	Change SizeChange `json:"change"`
}

// MaximizeColumn toggles maximization of the focused column.
type MaximizeColumn struct{}

func (Spawn) isAction()                 {}
func (SetWindowWidth) isAction()        {}
func (SetWindowHeight) isAction()       {}
func (MoveWindowToWorkspace) isAction() {}
func (FocusWindow) isAction()           {}
func (FocusWorkspace) isAction()        {}
func (MoveColumnLeft) isAction()        {}
func (MoveColumnToFirst) isAction()     {}
func (FocusColumnLeft) isAction()       {}
func (FocusColumnRight) isAction()      {}
func (CenterColumn) isAction()          {}
func (SetColumnWidth) isAction()        {}
func (MaximizeColumn) isAction()        {}

func (a Spawn) MarshalJSON() ([]byte, error) {
	type inner Spawn
	return tagged("Spawn", inner(a))
}

func (a SetWindowWidth) MarshalJSON() ([]byte, error) {
	type inner SetWindowWidth
	return tagged("SetWindowWidth", inner(a))
}

func (a SetWindowHeight) MarshalJSON() ([]byte, error) {
	type inner SetWindowHeight
	return tagged("SetWindowHeight", inner(a))
}

func (a MoveWindowToWorkspace) MarshalJSON() ([]byte, error) {
	type inner MoveWindowToWorkspace
	return tagged("MoveWindowToWorkspace", inner(a))
}

func (a FocusWindow) MarshalJSON() ([]byte, error) {
	type inner FocusWindow
	return tagged("FocusWindow", inner(a))
}

func (a FocusWorkspace) MarshalJSON() ([]byte, error) {
	type inner FocusWorkspace
	return tagged("FocusWorkspace", inner(a))
}

func (a MoveColumnLeft) MarshalJSON() ([]byte, error) {
	return tagged("MoveColumnLeft", struct{}{})
}

func (a MoveColumnToFirst) MarshalJSON() ([]byte, error) {
	return tagged("MoveColumnToFirst", struct{}{})
}

func (a FocusColumnLeft) MarshalJSON() ([]byte, error) {
	return tagged("FocusColumnLeft", struct{}{})
}

func (a FocusColumnRight) MarshalJSON() ([]byte, error) {
	return tagged("FocusColumnRight", struct{}{})
}

func (a CenterColumn) MarshalJSON() ([]byte, error) {
	return tagged("CenterColumn", struct{}{})
}

func (a SetColumnWidth) MarshalJSON() ([]byte, error) {
	type inner SetColumnWidth
	return tagged("SetColumnWidth", inner(a))
}

func (a MaximizeColumn) MarshalJSON() ([]byte, error) {
	return tagged("MaximizeColumn", struct{}{})
}

// SizeChange is a resize request for a window or column.
type SizeChange interface {
	isSizeChange()
}

// SetFixed sets the size to an absolute pixel value.
type SetFixed int32

// SetProportion sets the size to a fraction of the output.
type SetProportion float64

// AdjustFixed grows or shrinks the size by a pixel delta.
type AdjustFixed int32

// AdjustProportion grows or shrinks the size by a fractional delta.
type AdjustProportion float64

func (SetFixed) isSizeChange()         {}
func (SetProportion) isSizeChange()    {}
func (AdjustFixed) isSizeChange()      {}
func (AdjustProportion) isSizeChange() {}

func (s SetFixed) MarshalJSON() ([]byte, error) {
	return tagged("SetFixed", int32(s))
}

func (s SetProportion) MarshalJSON() ([]byte, error) {
	return tagged("SetProportion", float64(s))
}

func (s AdjustFixed) MarshalJSON() ([]byte, error) {
	return tagged("AdjustFixed", int32(s))
}

func (s AdjustProportion) MarshalJSON() ([]byte, error) {
	return tagged("AdjustProportion", float64(s))
}

// WorkspaceReference identifies a workspace by index or name.
type WorkspaceReference interface {
	isWorkspaceReference()
}

// WorkspaceIndex references a workspace by its 1-based index.
type WorkspaceIndex uint64

// WorkspaceName references a workspace by name.
type WorkspaceName string

func (WorkspaceIndex) isWorkspaceReference() {}
func (WorkspaceName) isWorkspaceReference()  {}

func (r WorkspaceIndex) MarshalJSON() ([]byte, error) {
	return tagged("Index", uint64(r))
}

func (r WorkspaceName) MarshalJSON() ([]byte, error) {
	return tagged("Name", string(r))
}

// ParseAction decodes a single-key action object back into its variant.
// The inverse of the Action MarshalJSON implementations.
func ParseAction(data []byte) (Action, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed action: %w", err)
	}
	if len(envelope) != 1 {
		return nil, fmt.Errorf("malformed action: expected exactly one variant key, got %d", len(envelope))
	}

	for name, raw := range envelope {
		switch name {
		case "Spawn":
			var a struct {
				Command []string `json:"command"`
			}
			if err := json.Unmarshal(raw, &a); err != nil {
				return nil, err
			}
			return Spawn{Command: a.Command}, nil
		case "SetWindowWidth":
			id, change, err := parseResizePayload(raw)
			if err != nil {
				return nil, err
			}
			return SetWindowWidth{ID: id, Change: change}, nil
		case "SetWindowHeight":
			id, change, err := parseResizePayload(raw)
			if err != nil {
				return nil, err
			}
			return SetWindowHeight{ID: id, Change: change}, nil
		case "MoveWindowToWorkspace":
			var a struct {
				WindowID  *uint64         `json:"window_id"`
				Reference json.RawMessage `json:"reference"`
				Focus     bool            `json:"focus"`
			}
			if err := json.Unmarshal(raw, &a); err != nil {
				return nil, err
			}
			ref, err := parseWorkspaceReference(a.Reference)
			if err != nil {
				return nil, err
			}
			return MoveWindowToWorkspace{WindowID: a.WindowID, Reference: ref, Focus: a.Focus}, nil
		case "FocusWindow":
			var a FocusWindow
			if err := json.Unmarshal(raw, &a); err != nil {
				return nil, err
			}
			return a, nil
		case "FocusWorkspace":
			var a struct {
				Reference json.RawMessage `json:"reference"`
			}
			if err := json.Unmarshal(raw, &a); err != nil {
				return nil, err
			}
			ref, err := parseWorkspaceReference(a.Reference)
			if err != nil {
				return nil, err
			}
			return FocusWorkspace{Reference: ref}, nil
		case "MoveColumnLeft":
			return MoveColumnLeft{}, nil
		case "MoveColumnToFirst":
			return MoveColumnToFirst{}, nil
		case "FocusColumnLeft":
			return FocusColumnLeft{}, nil
		case "FocusColumnRight":
			return FocusColumnRight{}, nil
		case "CenterColumn":
			return CenterColumn{}, nil
		case "SetColumnWidth":
			var a struct {
				Change json.RawMessage `json:"change"`
			}
			if err := json.Unmarshal(raw, &a); err != nil {
				return nil, err
			}
			change, err := parseSizeChange(a.Change)
			if err != nil {
				return nil, err
			}
			return SetColumnWidth{Change: change}, nil
		case "MaximizeColumn":
			return MaximizeColumn{}, nil
		default:
			return nil, fmt.Errorf("unknown action variant %q", name)
		}
	}

	return nil, fmt.Errorf("malformed action: empty object")
}

func parseResizePayload(raw json.RawMessage) (*uint64, SizeChange, error) {
	var a struct {
		ID     *uint64         `json:"id"`
		Change json.RawMessage `json:"change"`
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, nil, err
	}
	change, err := parseSizeChange(a.Change)
	if err != nil {
		return nil, nil, err
	}
	return a.ID, change, nil
}

func parseSizeChange(data []byte) (SizeChange, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed size change: %w", err)
	}
	if len(envelope) != 1 {
		return nil, fmt.Errorf("malformed size change: expected exactly one variant key")
	}

	for name, raw := range envelope {
		switch name {
		case "SetFixed":
			var v int32
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return SetFixed(v), nil
		case "SetProportion":
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return SetProportion(v), nil
		case "AdjustFixed":
			var v int32
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return AdjustFixed(v), nil
		case "AdjustProportion":
			var v float64
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return AdjustProportion(v), nil
		default:
			return nil, fmt.Errorf("unknown size change variant %q", name)
		}
	}

	return nil, fmt.Errorf("malformed size change: empty object")
}

func parseWorkspaceReference(data []byte) (WorkspaceReference, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed workspace reference: %w", err)
	}
	if len(envelope) != 1 {
		return nil, fmt.Errorf("malformed workspace reference: expected exactly one variant key")
	}

	for name, raw := range envelope {
		switch name {
		case "Index":
			var v uint64
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return WorkspaceIndex(v), nil
		case "Name":
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				return nil, err
			}
			return WorkspaceName(v), nil
		default:
			return nil, fmt.Errorf("unknown workspace reference variant %q", name)
		}
	}

	return nil, fmt.Errorf("malformed workspace reference: empty object")
}
