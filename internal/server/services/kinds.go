package services

import (
	"fmt"

	"github.com/dmitrijs2005/marsha-uploader/internal/common"
)

// parentCollections maps each uploadable kind to the collection it is nested
// under. Top-level kinds map to "".
var parentCollections = map[string]string{
	"videos":             "",
	"documents":          "",
	"thumbnails":         "videos",
	"timedtexttracks":    "videos",
	"sharedlivemedias":   "videos",
	"depositedfiles":     "filedepositories",
	"markdown-images":    "markdown-documents",
	"classroomdocuments": "classrooms",
}

// Ref addresses one resource as it appears in an API path. ParentType and
// ParentID are empty for top-level kinds.
type Ref struct {
	Kind       string
	ID         string
	ParentType string
	ParentID   string
}

// Validate checks that Kind is known and nested the way the path says it is.
func (r Ref) Validate() error {
	parent, ok := parentCollections[r.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", common.ErrorNotFound, r.Kind)
	}
	if r.ID == "" {
		return fmt.Errorf("%w: missing id", common.ErrorValidation)
	}
	if parent != r.ParentType {
		return fmt.Errorf("%w: %s is not nested under %q", common.ErrorNotFound, r.Kind, r.ParentType)
	}
	if parent != "" && r.ParentID == "" {
		return fmt.Errorf("%w: missing parent id", common.ErrorValidation)
	}
	return nil
}
