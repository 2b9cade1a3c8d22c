package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"

	"github.com/dmitrijs2005/marsha-uploader/internal/common"
	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/storage"
)

// InitiateUploadRequest is the body of initiate-upload.
type InitiateUploadRequest struct {
	Filename string `json:"filename" validate:"required,max=255"`
	Mimetype string `json:"mimetype" validate:"required,max=255"`
	Size     int64  `json:"size" validate:"gte=0"`
}

// FileTooLargeError rejects an upload declared bigger than Max bytes.
type FileTooLargeError struct {
	Max int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("%v: max size is %d bytes", common.ErrFileTooLarge, e.Max)
}

func (e *FileTooLargeError) Is(target error) bool {
	return target == common.ErrFileTooLarge
}

type UploadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	signer      storage.Signer
	validate    *validator.Validate
	maxSize     int64
	logger      logging.Logger
	now         func() time.Time
}

func NewUploadService(db *sql.DB, m repomanager.RepositoryManager, signer storage.Signer, maxSize int64, logger logging.Logger) *UploadService {
	return &UploadService{
		db:          db,
		repomanager: m,
		signer:      signer,
		validate:    NewValidator(),
		maxSize:     maxSize,
		logger:      logger,
		now:         time.Now,
	}
}

// StorageKey is "<kind>/<id>/<unix>_<slug><ext>". The slug keeps keys safe
// for every S3-compatible backend whatever the original filename.
func StorageKey(kind, id, filename string, at time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := slug.Make(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)))
	if base == "" {
		base = "file"
	}
	return fmt.Sprintf("%s/%s/%d_%s%s", kind, id, at.Unix(), base, ext)
}

// InitiateUpload resets the resource to pending and signs a destination for
// its new storage key.
func (s *UploadService) InitiateUpload(ctx context.Context, ref Ref, req InitiateUploadRequest) (*storage.Destination, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if req.Size > s.maxSize {
		return nil, &FileTooLargeError{Max: s.maxSize}
	}

	key := StorageKey(ref.Kind, ref.ID, req.Filename, s.now())
	dst, err := s.signer.SignUpload(ctx, key, req.Mimetype, s.maxSize)
	if err != nil {
		return nil, fmt.Errorf("sign upload: %w", err)
	}

	_, err = s.repomanager.Resources(s.db).UpsertPending(ctx, &models.Resource{
		ObjectType: ref.Kind,
		ID:         ref.ID,
		ParentID:   ref.ParentID,
		Filename:   req.Filename,
		StorageKey: key,
		Mimetype:   req.Mimetype,
		Size:       req.Size,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "upload initiated", "kind", ref.Kind, "id", ref.ID, "key", key, "size", req.Size)
	return dst, nil
}

// UploadEnded moves the resource to processing once the client reports the
// key it uploaded to. Only the key issued by the last InitiateUpload is
// accepted, and only while the resource is still pending.
func (s *UploadService) UploadEnded(ctx context.Context, ref Ref, fileKey string) (*models.Resource, error) {
	res, err := s.Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if fileKey == "" || fileKey != res.StorageKey {
		return nil, common.ErrStorageKeyInvalid
	}

	if res.UploadState != models.StatePending {
		return nil, fmt.Errorf("%w: resource is %s", common.ErrUploadEnded, res.UploadState)
	}

	res, err = s.repomanager.Resources(s.db).Transition(ctx, ref.Kind, ref.ID, models.StatePending, models.StateProcessing)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, common.ErrUploadEnded
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "upload ended", "kind", ref.Kind, "id", ref.ID, "key", fileKey)
	return res, nil
}

// Get returns the resource. A resource stored under a different parent is
// reported as not found.
func (s *UploadService) Get(ctx context.Context, ref Ref) (*models.Resource, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	res, err := s.repomanager.Resources(s.db).Get(ctx, ref.Kind, ref.ID)
	if err != nil {
		return nil, err
	}
	if res.ParentID != ref.ParentID {
		return nil, common.ErrorNotFound
	}
	return res, nil
}

// PatchTitle sets the resource title.
func (s *UploadService) PatchTitle(ctx context.Context, ref Ref, title string) (*models.Resource, error) {
	if _, err := s.Get(ctx, ref); err != nil {
		return nil, err
	}
	if len(title) > 255 {
		return nil, fmt.Errorf("%w: title longer than 255 characters", common.ErrorValidation)
	}
	return s.repomanager.Resources(s.db).SetTitle(ctx, ref.Kind, ref.ID, title)
}

// FinishProcessing stands in for the transcoding pipeline: resources that
// have been processing for longer than after become ready.
func (s *UploadService) FinishProcessing(ctx context.Context, after time.Duration) (int64, error) {
	n, err := s.repomanager.Resources(s.db).MarkReady(ctx, s.now().Add(-after))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info(ctx, "resources ready", "count", n)
	}
	return n, nil
}
