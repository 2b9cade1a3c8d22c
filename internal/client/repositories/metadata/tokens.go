package metadata

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
)

const (
	KeyUsername     = "username"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// SaveSession stores the logged-in user and the token pair.
func SaveSession(ctx context.Context, repo Repository, username string, pair models.TokenPair) error {
	return repo.Put(ctx, map[string]string{
		KeyUsername:     username,
		KeyAccessToken:  pair.Access,
		KeyRefreshToken: pair.Refresh,
	})
}

// SaveTokens stores a pair rotated during a session.
func SaveTokens(ctx context.Context, repo Repository, pair models.TokenPair) error {
	return repo.Put(ctx, map[string]string{
		KeyAccessToken:  pair.Access,
		KeyRefreshToken: pair.Refresh,
	})
}

// LoadSession returns the saved username and token pair. A missing session
// yields empty values.
func LoadSession(ctx context.Context, repo Repository) (string, models.TokenPair, error) {
	all, err := repo.List(ctx)
	if err != nil {
		return "", models.TokenPair{}, fmt.Errorf("load session: %w", err)
	}
	return all[KeyUsername], models.TokenPair{
		Access:  all[KeyAccessToken],
		Refresh: all[KeyRefreshToken],
	}, nil
}

// ClearSession forgets the user and tokens.
func ClearSession(ctx context.Context, repo Repository) error {
	return repo.Delete(ctx, KeyUsername, KeyAccessToken, KeyRefreshToken)
}
