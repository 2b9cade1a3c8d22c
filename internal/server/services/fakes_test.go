package services

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/marsha-uploader/internal/common"
	"github.com/dmitrijs2005/marsha-uploader/internal/dbx"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/repositories/resources"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/repositories/users"
	"github.com/dmitrijs2005/marsha-uploader/internal/server/storage"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

type fakeUsersRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return f.Upsert(ctx, u)
}

func (f *fakeUsersRepo) Upsert(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.users == nil {
		f.users = map[string]*models.User{}
	}
	u.ID = "id-" + u.UserName
	f.users[u.UserName] = u
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeRefreshRepo struct {
	mu         sync.Mutex
	tokens     map[string]*models.RefreshToken
	createErr  error
	consumeErr error
	purged     int64
}

func (f *fakeRefreshRepo) Create(_ context.Context, userID, token string, validity time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.tokens == nil {
		f.tokens = map[string]*models.RefreshToken{}
	}
	f.tokens[token] = &models.RefreshToken{UserID: userID, Token: token, ExpiresAt: time.Now().Add(validity)}
	return nil
}

func (f *fakeRefreshRepo) Consume(_ context.Context, token string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	rt, ok := f.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(f.tokens, token)
	return rt, nil
}

func (f *fakeRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, rt := range f.tokens {
		if rt.ExpiresAt.Before(now) {
			delete(f.tokens, k)
			n++
		}
	}
	f.purged += n
	return n, nil
}

type fakeResourcesRepo struct {
	mu   sync.Mutex
	rows map[string]*models.Resource
	err  error
}

func (f *fakeResourcesRepo) key(kind, id string) string { return kind + "/" + id }

func (f *fakeResourcesRepo) Get(_ context.Context, kind, id string) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[f.key(kind, id)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeResourcesRepo) UpsertPending(_ context.Context, r *models.Resource) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.rows == nil {
		f.rows = map[string]*models.Resource{}
	}
	row := *r
	if old, ok := f.rows[f.key(r.ObjectType, r.ID)]; ok {
		if old.ParentID != r.ParentID {
			return nil, common.ErrorNotFound
		}
		row.Title = old.Title
	}
	row.UploadState = models.StatePending
	f.rows[f.key(r.ObjectType, r.ID)] = &row
	cp := row
	return &cp, nil
}

func (f *fakeResourcesRepo) update(kind, id string, fn func(*models.Resource)) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[f.key(kind, id)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	fn(r)
	cp := *r
	return &cp, nil
}

func (f *fakeResourcesRepo) Transition(_ context.Context, kind, id, from, to string) (*models.Resource, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[f.key(kind, id)]
	if !ok || r.UploadState != from {
		return nil, common.ErrorNotFound
	}
	r.UploadState = to
	cp := *r
	return &cp, nil
}

func (f *fakeResourcesRepo) SetTitle(_ context.Context, kind, id, title string) (*models.Resource, error) {
	return f.update(kind, id, func(r *models.Resource) { r.Title = title })
}

func (f *fakeResourcesRepo) MarkReady(_ context.Context, processingBefore time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	var n int64
	for _, r := range f.rows {
		if r.UploadState == models.StateProcessing && r.UpdatedAt.Before(processingBefore) {
			r.UploadState = models.StateReady
			n++
		}
	}
	return n, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	r *fakeRefreshRepo
	s *fakeResourcesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{u: &fakeUsersRepo{}, r: &fakeRefreshRepo{}, s: &fakeResourcesRepo{}}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error    { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                 { return m.u }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return m.r }
func (m *fakeRepoManager) Resources(dbx.DBTX) resources.Repository         { return m.s }

type fakeSigner struct {
	keys []string
	max  int64
	err  error
}

func (f *fakeSigner) SignUpload(_ context.Context, key, mimetype string, maxSize int64) (*storage.Destination, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, key)
	f.max = maxSize
	return &storage.Destination{URL: "http://bucket.test/", Fields: map[string]string{"key": key, "Content-Type": mimetype}}, nil
}
