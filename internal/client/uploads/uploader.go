package uploads

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/api"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/store"
	"github.com/dmitrijs2005/marsha-uploader/internal/filex"
	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
	"github.com/dmitrijs2005/marsha-uploader/internal/netx"
	"github.com/hashicorp/go-multierror"
)

// API is the subset of the backend used by uploads.
type API interface {
	InitiateUpload(ctx context.Context, ref models.ObjectRef, req models.InitiateUploadRequest) (*models.Destination, error)
	UploadEnded(ctx context.Context, ref models.ObjectRef, fileKey string) (models.Resource, error)
	GetResource(ctx context.Context, ref models.ObjectRef) (models.Resource, error)
	PatchResource(ctx context.Context, ref models.ObjectRef, fields map[string]any) (models.Resource, error)
}

// Transferer moves file content to a signed destination.
type Transferer interface {
	Transfer(ctx context.Context, dst *models.Destination, file *filex.LocalFile, progress netx.ProgressFunc) error
}

// HTTPTransferer sends files with netx.Upload.
type HTTPTransferer struct {
	Client *http.Client
}

func (t HTTPTransferer) Transfer(ctx context.Context, dst *models.Destination, file *filex.LocalFile, progress netx.ProgressFunc) error {
	return netx.Upload(ctx, t.Client, netx.Destination{URL: dst.URL, Method: dst.Method, Fields: dst.Fields}, file, progress)
}

// Uploader drives one upload from destination request to stored resource.
type Uploader struct {
	manager     *Manager
	registry    *store.Registry
	api         API
	transfer    Transferer
	maxFileSize int64
	logger      logging.Logger
}

// NewUploader builds an Uploader. maxFileSize <= 0 disables the local size
// check; the backend still enforces its own limit.
func NewUploader(manager *Manager, registry *store.Registry, client API, transfer Transferer, maxFileSize int64, logger logging.Logger) *Uploader {
	return &Uploader{
		manager:     manager,
		registry:    registry,
		api:         client,
		transfer:    transfer,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Upload sends file as the content of ref. Every failure after the entry is
// created leaves it in ERROR with the cause recorded, and is returned. There
// is no automatic retry: calling Upload again for the same id starts a new
// attempt.
func (u *Uploader) Upload(ctx context.Context, ref models.ObjectRef, file *filex.LocalFile) (models.Resource, error) {
	if err := ref.Validate(); err != nil {
		return models.Resource{}, err
	}
	resources, err := u.registry.Store(ref.Type)
	if err != nil {
		return models.Resource{}, err
	}

	log := u.logger.With("object", ref.String(), "file", file.Name)
	attempt := u.manager.Add(ref, file)

	fail := func(err error) (models.Resource, error) {
		if serr := u.manager.SetStatus(ref.ID, attempt, StatusError, err); serr != nil {
			log.Warn(ctx, "could not record upload failure", "error", serr)
		}
		log.Error(ctx, "upload failed", "error", err)
		return models.Resource{}, err
	}

	dst, err := u.api.InitiateUpload(ctx, ref, models.InitiateUploadRequest{
		Filename: file.Name,
		Mimetype: file.Mimetype,
		Size:     file.Size,
	})
	if err != nil {
		return fail(fmt.Errorf("initiate upload: %w", err))
	}

	if err := u.manager.SetStatus(ref.ID, attempt, StatusUploading, nil); err != nil {
		return models.Resource{}, err
	}

	if u.maxFileSize > 0 && file.Size > u.maxFileSize {
		return fail(&api.SizeError{Data: map[string]any{
			"size": fmt.Sprintf("File too large, max size is %d bytes", u.maxFileSize),
		}})
	}

	log.Info(ctx, "uploading", "size", file.Size, "method", dst.Method)
	err = u.transfer.Transfer(ctx, dst, file, func(sent, total int64) {
		if total <= 0 {
			return
		}
		if perr := u.manager.SetProgress(ref.ID, attempt, int(sent*100/total)); perr != nil && !errors.Is(perr, ErrStaleAttempt) {
			log.Debug(ctx, "progress dropped", "error", perr)
		}
	})
	if err != nil {
		return fail(fmt.Errorf("transfer: %w", err))
	}
	if err := u.manager.SetProgress(ref.ID, attempt, 100); err != nil {
		return models.Resource{}, err
	}

	res, err := u.api.UploadEnded(ctx, ref, dst.FileKey())
	if err != nil {
		return fail(fmt.Errorf("upload ended: %w", err))
	}
	if res.ID == "" {
		res.ID = ref.ID
	}
	resources.Add(res)

	if err := u.manager.SetStatus(ref.ID, attempt, StatusSuccess, nil); err != nil {
		return res, err
	}
	log.Info(ctx, "upload finished", "upload_state", res.UploadState)
	return res, nil
}

// Item is one file of a batch.
type Item struct {
	Ref  models.ObjectRef
	File *filex.LocalFile
}

// UploadMany uploads items one after the other. Failures do not stop the
// batch; they are collected into a *multierror.Error. Cancellation stops the
// batch before the next item.
func (u *Uploader) UploadMany(ctx context.Context, items []Item) error {
	var result *multierror.Error
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		if _, err := u.Upload(ctx, it.Ref, it.File); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", it.Ref, err))
		}
	}
	return result.ErrorOrNil()
}
