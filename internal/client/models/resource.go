package models

import (
	"encoding/json"
	"fmt"
)

// UploadState is the backend-side lifecycle of an uploadable resource.
type UploadState string

const (
	UploadStatePending    UploadState = "pending"
	UploadStateUploading  UploadState = "uploading"
	UploadStateProcessing UploadState = "processing"
	UploadStateReady      UploadState = "ready"
	UploadStateError      UploadState = "error"
	UploadStateDeleted    UploadState = "deleted"
)

var stateRank = map[UploadState]int{
	UploadStatePending:    0,
	UploadStateUploading:  1,
	UploadStateProcessing: 2,
	UploadStateReady:      3,
}

// CanAdvance reports whether a resource may move from one upload state to
// another. States only move forward along pending → uploading → processing
// → ready. Error and deleted are reachable from any non-deleted state; an
// errored resource may restart at pending or uploading; deleted is final.
// Staying in the same state is always allowed.
func CanAdvance(from, to UploadState) bool {
	if from == to || from == "" {
		return true
	}
	switch from {
	case UploadStateDeleted:
		return false
	case UploadStateError:
		return to == UploadStatePending || to == UploadStateUploading || to == UploadStateDeleted
	}
	switch to {
	case UploadStateError, UploadStateDeleted:
		return true
	}
	fr, ok1 := stateRank[from]
	tr, ok2 := stateRank[to]
	return ok1 && ok2 && tr > fr
}

// Resource is a backend-tracked uploadable object. Fields specific to a kind
// (urls, dimensions, duration, ...) are kept in Extra and written back
// unchanged when the resource is encoded.
type Resource struct {
	ID          string
	UploadState UploadState
	Title       string
	Filename    string
	Extra       map[string]json.RawMessage
}

// GetID makes Resource usable as a store entry.
func (r Resource) GetID() string {
	return r.ID
}

var knownResourceFields = []string{"id", "upload_state", "title", "filename"}

func (r *Resource) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var out Resource
	for _, f := range []struct {
		key string
		dst *string
	}{
		{"id", &out.ID},
		{"title", &out.Title},
		{"filename", &out.Filename},
	} {
		if v, ok := raw[f.key]; ok && string(v) != "null" {
			if err := json.Unmarshal(v, f.dst); err != nil {
				return fmt.Errorf("resource field %s: %w", f.key, err)
			}
		}
	}
	if v, ok := raw["upload_state"]; ok && string(v) != "null" {
		if err := json.Unmarshal(v, &out.UploadState); err != nil {
			return fmt.Errorf("resource field upload_state: %w", err)
		}
	}

	for _, k := range knownResourceFields {
		delete(raw, k)
	}
	if len(raw) > 0 {
		out.Extra = raw
	}

	*r = out
	return nil
}

func (r Resource) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+4)
	for k, v := range r.Extra {
		m[k] = v
	}
	m["id"] = r.ID
	m["upload_state"] = r.UploadState
	if r.Title != "" {
		m["title"] = r.Title
	}
	if r.Filename != "" {
		m["filename"] = r.Filename
	}
	return json.Marshal(m)
}
