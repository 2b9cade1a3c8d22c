package resources

import (
	"context"
	"time"

	"github.com/dmitrijs2005/marsha-uploader/internal/server/models"
)

// Repository stores uploadable resources keyed by (object type, id).
type Repository interface {
	Get(ctx context.Context, objectType, id string) (*models.Resource, error)
	// UpsertPending creates the resource, or resets an existing one, for a new
	// upload: file metadata and storage key are replaced and the state goes
	// back to pending. Title and extra fields survive. An existing resource
	// stored under another parent is left alone and reported as not found.
	UpsertPending(ctx context.Context, r *models.Resource) (*models.Resource, error)
	// Transition moves the resource from one upload state to another. It
	// returns common.ErrorNotFound when the resource is missing or not in from.
	Transition(ctx context.Context, objectType, id, from, to string) (*models.Resource, error)
	SetTitle(ctx context.Context, objectType, id, title string) (*models.Resource, error)
	// MarkReady moves resources that have been processing since before the
	// given time to ready and returns how many changed.
	MarkReady(ctx context.Context, processingBefore time.Time) (int64, error)
}
