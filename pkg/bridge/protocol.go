package bridge

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"time"

	"github.com/vango-dev/dnd/internal/errors"
	"github.com/vango-dev/dnd/pkg/dom"
)

// Message types sent by the client.
const (
	TypeSnapshot = "snapshot"
	TypeEvent    = "event"
	TypeSelect   = "select"
)

// Message types sent by the server.
const (
	TypeReady = "ready"
	TypeAttr  = "attr"
	TypeEmit  = "emit"
	TypeError = "error"
)

// ClientMessage is a frame from the browser. Fields are used according to
// Type.
type ClientMessage struct {
	Type string `json:"type"`

	// snapshot
	Elements []ElementSnapshot `json:"elements,omitempty"`

	// event
	Event  string `json:"event,omitempty"`
	Target string `json:"target,omitempty"`
	Items  []Item `json:"items,omitempty"`

	// select
	Controller string `json:"controller,omitempty"`

	// event (drop) and select
	Files []FilePayload `json:"files,omitempty"`
}

// ElementSnapshot describes one element of the page at connect time.
type ElementSnapshot struct {
	ID         string            `json:"id"`
	Tag        string            `json:"tag,omitempty"`
	Classes    []string          `json:"classes,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Item is one transfer entry read by the client on drop.
type Item struct {
	Format string `json:"format"`
	Data   string `json:"data"`
}

// FilePayload is a dropped or chosen file. Small files are inlined as
// base64 Content; larger ones were posted to the upload endpoint first and
// are referenced by UploadID.
type FilePayload struct {
	Name         string `json:"name"`
	Type         string `json:"type,omitempty"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"lastModified,omitempty"`
	Content      string `json:"content,omitempty"`
	UploadID     string `json:"uploadId,omitempty"`
}

// ServerMessage is a frame sent to the browser.
type ServerMessage struct {
	Type string `json:"type"`

	// ready
	Session     string   `json:"session,omitempty"`
	Targets     []Target `json:"targets,omitempty"`
	InlineLimit int64    `json:"inlineLimit,omitempty"`
	UploadURL   string   `json:"uploadUrl,omitempty"`

	// attr and emit
	Target string `json:"target,omitempty"`

	// attr
	Name    string `json:"name,omitempty"`
	Value   string `json:"value,omitempty"`
	Removed bool   `json:"removed,omitempty"`

	// emit
	Controller string   `json:"controller,omitempty"`
	Event      string   `json:"event,omitempty"`
	Files      []string `json:"files,omitempty"`

	// error
	Error *errors.Error `json:"error,omitempty"`
}

// Target tells the client how to handle native events on one element
// before the server sees them: transfer settings must be applied inside
// the browser's own event handler.
type Target struct {
	ID         string `json:"id"`
	Controller string `json:"controller"`
	Kind       string `json:"kind"`

	// drop targets
	Click      bool   `json:"click,omitempty"`
	DropEffect string `json:"dropEffect,omitempty"`

	// drag sources
	EffectAllowed string `json:"effectAllowed,omitempty"`
	Items         []Item `json:"items,omitempty"`
}

func decodeClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, errors.New(errors.ProtocolMalformed).Wrap(err)
	}
	if msg.Type == "" {
		return nil, errors.New(errors.ProtocolMalformed).WithDetail("message without type")
	}
	return &msg, nil
}

// file converts the payload. open resolves upload references.
func (p FilePayload) file(open func(id string) (io.ReadCloser, error)) (dom.File, error) {
	f := dom.File{Name: p.Name, Type: p.Type, Size: p.Size}
	if p.LastModified > 0 {
		f.LastModified = time.UnixMilli(p.LastModified)
	}

	switch {
	case p.UploadID != "":
		if open == nil {
			return dom.File{}, errors.New(errors.ProtocolBadFile).WithDetailf("file %q references an upload but uploads are disabled", p.Name)
		}
		// Claiming consumes the stored copy, so the content is read once
		// here and every later Open sees the same bytes.
		rc, err := open(p.UploadID)
		if err != nil {
			return dom.File{}, errors.New(errors.ProtocolBadFile).WithDetailf("file %q", p.Name).Wrap(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return dom.File{}, errors.New(errors.ProtocolBadFile).WithDetailf("file %q", p.Name).Wrap(err)
		}
		lastModified := f.LastModified
		f = dom.BytesFile(p.Name, p.Type, data)
		if !lastModified.IsZero() {
			f.LastModified = lastModified
		}
	default:
		data, err := base64.StdEncoding.DecodeString(p.Content)
		if err != nil {
			return dom.File{}, errors.New(errors.ProtocolBadFile).WithDetailf("file %q", p.Name).Wrap(err)
		}
		typ := f.Type
		f = dom.BytesFile(p.Name, typ, data)
		if p.LastModified > 0 {
			f.LastModified = time.UnixMilli(p.LastModified)
		}
	}
	return f, nil
}
