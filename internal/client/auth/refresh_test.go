package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefresher(t *testing.T, h http.HandlerFunc) (*Refresher, *TokenStore, *Blacklist) {
	t.Helper()
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	tokens := NewTokenStore()
	tokens.Set(models.TokenPair{Access: "a1", Refresh: "r1"})
	bl := NewBlacklist()
	return NewRefresher(ts.URL+"/", ts.Client(), tokens, bl, logging.Discard()), tokens, bl
}

func TestRefresh_Rotates(t *testing.T) {
	var got map[string]string
	r, tokens, bl := newRefresher(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, RefreshPath, req.URL.Path)
		_ = json.NewDecoder(req.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(models.TokenPair{Access: "a2", Refresh: "r2"})
	})

	access, err := r.Refresh(context.Background(), "a1")
	require.NoError(t, err)

	assert.Equal(t, "a2", access)
	assert.Equal(t, map[string]string{"refresh": "r1"}, got)
	assert.Equal(t, models.TokenPair{Access: "a2", Refresh: "r2"}, tokens.Get())
	assert.True(t, bl.Contains("r1"))
	assert.False(t, bl.Contains("r2"))
}

func TestRefresh_KeepsRefreshWhenNotRotated(t *testing.T) {
	r, tokens, _ := newRefresher(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access":"a2"}`))
	})

	_, err := r.Refresh(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "r1", tokens.Get().Refresh)
}

func TestRefresh_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		msg     string
	}{
		{"non 2xx", http.StatusUnauthorized, `{"detail":"Token is invalid"}`, ErrRefreshFailed, "refresh token error"},
		{"missing access", http.StatusOK, `{"refresh":"r2"}`, ErrMissingAccessToken, "Missing token in response."},
		{"not json", http.StatusOK, `oops`, ErrMissingAccessToken, "Missing token in response."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, tokens, _ := newRefresher(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := r.Refresh(context.Background(), "a1")
			require.ErrorIs(t, err, tt.wantErr)
			assert.EqualError(t, err, tt.msg)
			assert.Equal(t, "a1", tokens.Get().Access)
		})
	}
}

func TestRefresh_BlacklistedTokenIsNeverSentTwice(t *testing.T) {
	var calls atomic.Int32
	r, _, _ := newRefresher(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := r.Refresh(context.Background(), "a1")
	require.ErrorIs(t, err, ErrRefreshFailed)

	_, err = r.Refresh(context.Background(), "a1")
	require.EqualError(t, err, "Refresh token is blacklisted")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRefresh_SkipsWhenAlreadyRefreshed(t *testing.T) {
	var calls atomic.Int32
	r, tokens, _ := newRefresher(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	})
	tokens.Set(models.TokenPair{Access: "a9", Refresh: "r9"})

	access, err := r.Refresh(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "a9", access)
	assert.Zero(t, calls.Load())
}

func TestRefresh_NoRefreshToken(t *testing.T) {
	r, tokens, _ := newRefresher(t, func(http.ResponseWriter, *http.Request) {})
	tokens.Reset()

	_, err := r.Refresh(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

func TestTokenStore_Subscribe(t *testing.T) {
	s := NewTokenStore()

	var seen []models.TokenPair
	unsubscribe := s.Subscribe(func(p models.TokenPair) { seen = append(seen, p) })

	s.Set(models.TokenPair{Access: "a", Refresh: "r"})
	s.Reset()
	unsubscribe()
	s.Set(models.TokenPair{Access: "b"})

	assert.Equal(t, []models.TokenPair{{Access: "a", Refresh: "r"}, {}}, seen)
	assert.Equal(t, "b", s.Get().Access)
}
