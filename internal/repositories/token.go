package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Yocrita/Yocrify/internal/shared"
	"golang.org/x/oauth2"
)

// TokenRepository persists OAuth tokens keyed by user identity.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a TokenRepository with the given database connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Save upserts a user's token.
func (r *TokenRepository) Save(userID string, token *oauth2.Token) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", shared.ErrInvalidInput)
	}
	if token == nil || token.AccessToken == "" {
		return fmt.Errorf("%w: empty token", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO tokens (user_id, access_token, refresh_token, expiry, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			expiry = excluded.expiry,
			updated_at = excluded.updated_at
	`

	_, err := r.db.Exec(query, userID, token.AccessToken, token.RefreshToken, token.Expiry.Unix(), time.Now())
	if err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}

	return nil
}

// Get retrieves a user's stored token, or nil when none exists.
func (r *TokenRepository) Get(userID string) (*oauth2.Token, error) {
	var (
		accessToken  string
		refreshToken string
		expiry       int64
	)

	err := r.db.QueryRow(
		"SELECT access_token, refresh_token, expiry FROM tokens WHERE user_id = ?", userID,
	).Scan(&accessToken, &refreshToken, &expiry)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token: %w", err)
	}

	return &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       time.Unix(expiry, 0),
	}, nil
}

// LastUser returns the id of the most recently authenticated user, or empty
// when no token has been stored.
func (r *TokenRepository) LastUser() (string, error) {
	var userID string
	err := r.db.QueryRow(
		"SELECT user_id FROM tokens ORDER BY updated_at DESC LIMIT 1",
	).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token: %w", err)
	}
	return userID, nil
}

// UserTokens adapts the repository to services.TokenProvider for one user,
// refreshing through the OAuth config and persisting refreshed tokens.
type UserTokens struct {
	repo   *TokenRepository
	config *oauth2.Config
	userID string
}

// ProviderFor returns a per-user token provider backed by the repository.
func ProviderFor(repo *TokenRepository, config *oauth2.Config, userID string) *UserTokens {
	return &UserTokens{repo: repo, config: config, userID: userID}
}

// Token returns a valid access token for the user, refreshing when expired.
// Returns nil when the user holds no credential.
func (t *UserTokens) Token(ctx context.Context) (*oauth2.Token, error) {
	stored, err := t.repo.Get(t.userID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, nil
	}

	if stored.Valid() || t.config == nil {
		return stored, nil
	}

	refreshed, err := t.config.TokenSource(ctx, stored).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}

	if refreshed.AccessToken != stored.AccessToken {
		if err := t.repo.Save(t.userID, refreshed); err != nil {
			return nil, err
		}
	}

	return refreshed, nil
}

// ActiveTokens resolves the most recently authenticated user's credentials
// at call time. Used where the consumer holds a single provider but the
// authenticated user is established out of band.
type ActiveTokens struct {
	repo   *TokenRepository
	config *oauth2.Config
}

// Active returns a provider bound to whichever user authenticated last.
func Active(repo *TokenRepository, config *oauth2.Config) *ActiveTokens {
	return &ActiveTokens{repo: repo, config: config}
}

// Token returns a valid token for the active user, or nil when nobody has
// authenticated yet.
func (t *ActiveTokens) Token(ctx context.Context) (*oauth2.Token, error) {
	userID, err := t.repo.LastUser()
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, nil
	}
	return ProviderFor(t.repo, t.config, userID).Token(ctx)
}
