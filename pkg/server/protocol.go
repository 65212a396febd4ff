package server

import (
	"encoding/json"
	"errors"
	"strings"

	lzerrors "github.com/vango-dev/lazyload/internal/errors"
	"github.com/vango-dev/lazyload/pkg/dom"
	"github.com/vango-dev/lazyload/pkg/geometry"
)

// Message types.
const (
	MsgMount  = "mount"
	MsgScroll = "scroll"
	MsgResize = "resize"
	MsgLayout = "layout"
	MsgStyle  = "style"

	MsgPatch = "patch"
	MsgEvent = "event"
	MsgError = "error"
)

// ClientMessage is a message from the browser.
type ClientMessage struct {
	Type string `json:"type"`

	// mount and resize
	Viewport *geometry.Size `json:"viewport,omitempty"`
	Client   *geometry.Size `json:"client,omitempty"`

	// mount
	Elements []MountElement `json:"elements,omitempty"`

	// scroll (and optionally mount)
	ScrollX float64 `json:"scrollX,omitempty"`
	ScrollY float64 `json:"scrollY,omitempty"`

	// layout
	Boxes map[string]geometry.Box `json:"boxes,omitempty"`

	// style
	HID        string  `json:"hid,omitempty"`
	Display    *string `json:"display,omitempty"`
	Visibility *string `json:"visibility,omitempty"`
}

// MountElement describes one element of the page. Elements are listed in
// document order; Parent refers to an earlier element.
type MountElement struct {
	HID        string            `json:"hid"`
	Tag        string            `json:"tag"`
	ID         string            `json:"id,omitempty"`
	Parent     string            `json:"parent,omitempty"`
	Box        geometry.Box      `json:"box"`
	Display    string            `json:"display,omitempty"`
	Visibility string            `json:"visibility,omitempty"`
	Attrs      map[string]string `json:"attrs,omitempty"`
	Bind       string            `json:"bind,omitempty"`
}

// ServerMessage is a message to the browser.
type ServerMessage struct {
	Type    string `json:"type"`
	HID     string `json:"hid,omitempty"`
	ID      string `json:"id,omitempty"`
	Name    string `json:"name,omitempty"`
	Value   string `json:"value,omitempty"`
	Remove  bool   `json:"remove,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// DecodeClientMessage parses and validates a client message.
func DecodeClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, lzerrors.New("E060").Wrap(err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Validate checks the fields msg's type requires. Mount elements must have
// unique client handles, and a parent must be an earlier element.
func (msg *ClientMessage) Validate() error {
	switch msg.Type {
	case MsgMount:
		if msg.Viewport == nil {
			return lzerrors.New("E060").WithDetail("mount requires a viewport")
		}
		seen := make(map[string]bool, len(msg.Elements))
		for _, el := range msg.Elements {
			if el.HID == "" || el.Tag == "" {
				return lzerrors.New("E060").WithDetail("every element needs a hid and a tag")
			}
			if strings.HasPrefix(el.HID, dom.GeneratedHIDPrefix) {
				return lzerrors.New("E060").WithDetail("hid " + quote(el.HID) + " uses the reserved prefix " + dom.GeneratedHIDPrefix)
			}
			if seen[el.HID] {
				return lzerrors.New("E060").WithDetail("duplicate hid " + el.HID)
			}
			if el.Parent != "" && !seen[el.Parent] {
				return lzerrors.New("E060").WithDetail("parent " + quote(el.Parent) + " of " + quote(el.HID) + " is not an earlier element")
			}
			seen[el.HID] = true
		}
	case MsgResize:
		if msg.Viewport == nil {
			return lzerrors.New("E060").WithDetail("resize requires a viewport")
		}
	case MsgStyle:
		if msg.HID == "" {
			return lzerrors.New("E060").WithDetail("style requires a hid")
		}
	case MsgScroll, MsgLayout:
	default:
		return lzerrors.New("E060").WithDetail("unknown message type " + quote(msg.Type))
	}
	return nil
}

// errorMessage converts err to an error frame. Coded errors keep their code
// and are rendered compactly with the element handle attached.
func errorMessage(err error, hid string) ServerMessage {
	msg := ServerMessage{Type: MsgError, HID: hid, Message: err.Error()}
	var le *lzerrors.LazyError
	if !errors.As(err, &le) {
		return msg
	}

	// le may be a shared sentinel; annotate a copy.
	c := *le
	if hid != "" {
		ref := lzerrors.ElementRef{HID: hid}
		if c.Element != nil {
			ref = *c.Element
			ref.HID = hid
		}
		c.Element = &ref
	}
	msg.Code = c.Code
	msg.Message = c.FormatCompact()
	return msg
}

func quote(s string) string {
	return `"` + s + `"`
}
