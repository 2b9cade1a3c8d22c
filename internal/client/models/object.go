// Package models defines the uploadable resource kinds, their references and
// the wire types exchanged with the backend during an upload.
package models

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownObjectType = errors.New("unknown object type")

// ObjectType names a kind of uploadable resource. Its value is the API
// collection name.
type ObjectType string

const (
	ObjectTypeVideo             ObjectType = "videos"
	ObjectTypeDocument          ObjectType = "documents"
	ObjectTypeThumbnail         ObjectType = "thumbnails"
	ObjectTypeTimedTextTrack    ObjectType = "timedtexttracks"
	ObjectTypeSharedLiveMedia   ObjectType = "sharedlivemedias"
	ObjectTypeDepositedFile     ObjectType = "depositedfiles"
	ObjectTypeMarkdownImage     ObjectType = "markdown-images"
	ObjectTypeClassroomDocument ObjectType = "classroomdocuments"
)

// ObjectTypes lists every uploadable kind.
var ObjectTypes = []ObjectType{
	ObjectTypeVideo,
	ObjectTypeDocument,
	ObjectTypeThumbnail,
	ObjectTypeTimedTextTrack,
	ObjectTypeSharedLiveMedia,
	ObjectTypeDepositedFile,
	ObjectTypeMarkdownImage,
	ObjectTypeClassroomDocument,
}

var parentTypes = map[ObjectType]string{
	ObjectTypeThumbnail:         "videos",
	ObjectTypeTimedTextTrack:    "videos",
	ObjectTypeSharedLiveMedia:   "videos",
	ObjectTypeDepositedFile:     "filedepositories",
	ObjectTypeMarkdownImage:     "markdown-documents",
	ObjectTypeClassroomDocument: "classrooms",
}

// ParseObjectType validates s against the known kinds.
func ParseObjectType(s string) (ObjectType, error) {
	t := ObjectType(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ObjectTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownObjectType, s)
}

// ParentType returns the collection this kind is nested under, or "" for
// top-level kinds.
func (t ObjectType) ParentType() string {
	return parentTypes[t]
}

// ObjectRef addresses one resource on the backend.
type ObjectRef struct {
	Type     ObjectType
	ID       string
	ParentID string
}

// Validate checks that the reference can be turned into an API path.
func (r ObjectRef) Validate() error {
	if r.ID == "" {
		return errors.New("object id is required")
	}
	if _, err := ParseObjectType(string(r.Type)); err != nil {
		return err
	}
	if r.Type.ParentType() != "" && r.ParentID == "" {
		return fmt.Errorf("%s requires a parent %s id", r.Type, r.Type.ParentType())
	}
	return nil
}

// Path returns the API path of the resource relative to /api/, with a
// trailing slash: "videos/v1/" or "videos/p1/thumbnails/t1/". The parent
// segment is only emitted for nested kinds that carry a ParentID.
func (r ObjectRef) Path() string {
	if parent := r.Type.ParentType(); parent != "" && r.ParentID != "" {
		return fmt.Sprintf("%s/%s/%s/%s/", parent, r.ParentID, r.Type, r.ID)
	}
	return fmt.Sprintf("%s/%s/", r.Type, r.ID)
}

func (r ObjectRef) String() string {
	return strings.TrimSuffix(r.Path(), "/")
}
