package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
)

// RefreshPath is the account API endpoint exchanging a refresh token.
const RefreshPath = "/account/api/token/refresh/"

var (
	ErrRefreshFailed      = errors.New("refresh token error")
	ErrMissingAccessToken = errors.New("Missing token in response.")
	ErrBlacklisted        = errors.New("Refresh token is blacklisted")
	ErrNoRefreshToken     = errors.New("no refresh token")
)

// Refresher exchanges the stored refresh token for a new pair. A refresh
// token is blacklisted before it is sent so it is never sent twice.
type Refresher struct {
	baseURL   string
	client    *http.Client
	tokens    *TokenStore
	blacklist *Blacklist
	logger    logging.Logger

	mu sync.Mutex
}

func NewRefresher(baseURL string, client *http.Client, tokens *TokenStore, blacklist *Blacklist, logger logging.Logger) *Refresher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Refresher{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		client:    client,
		tokens:    tokens,
		blacklist: blacklist,
		logger:    logger,
	}
}

// Refresh stores and returns a new access token. Callers that pass the
// access token they failed with get the current one without a round trip
// when another caller already refreshed it.
func (r *Refresher) Refresh(ctx context.Context, stale string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := r.tokens.Get()
	if stale != "" && current.Access != "" && current.Access != stale {
		return current.Access, nil
	}
	if current.Refresh == "" {
		return "", ErrNoRefreshToken
	}
	if r.blacklist.Contains(current.Refresh) {
		return "", ErrBlacklisted
	}
	r.blacklist.Add(current.Refresh)

	body, err := json.Marshal(map[string]string{"refresh": current.Refresh})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+RefreshPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		r.logger.Warn(ctx, "token refresh rejected", "status", resp.StatusCode)
		return "", ErrRefreshFailed
	}

	var pair models.TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil || pair.Access == "" {
		return "", ErrMissingAccessToken
	}
	if pair.Refresh == "" {
		pair.Refresh = current.Refresh
	}

	r.tokens.Set(pair)
	r.logger.Debug(ctx, "access token refreshed")
	return pair.Access, nil
}
