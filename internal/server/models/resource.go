// Package models defines the rows the development backend persists.
package models

import (
	"encoding/json"
	"time"
)

// Upload states, in lifecycle order.
const (
	StatePending    = "pending"
	StateProcessing = "processing"
	StateReady      = "ready"
	StateError      = "error"
)

// Resource is one uploadable object. ParentID is empty for top-level kinds.
type Resource struct {
	ID          string
	ObjectType  string
	ParentID    string
	Title       string
	Filename    string
	UploadState string
	StorageKey  string
	Mimetype    string
	Size        int64
	Extra       json.RawMessage
	UpdatedAt   time.Time
}

// JSON renders the resource the way the REST API returns it. Extra fields are
// merged in without overriding the fixed ones.
func (r *Resource) JSON() map[string]any {
	out := map[string]any{}
	if len(r.Extra) > 0 {
		_ = json.Unmarshal(r.Extra, &out)
	}
	out["id"] = r.ID
	out["upload_state"] = r.UploadState
	out["title"] = nullable(r.Title)
	out["filename"] = nullable(r.Filename)
	out["mimetype"] = nullable(r.Mimetype)
	out["size"] = r.Size
	if r.ParentID != "" {
		out["parent"] = r.ParentID
	}
	if !r.UpdatedAt.IsZero() {
		out["updated_on"] = r.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
