package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/taskdesk/internal/database"
	"github.com/BradenHooton/taskdesk/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type RefreshTokenRepository struct {
	db   *database.DB
	pool *pgxpool.Pool
}

func NewRefreshTokenRepository(db *database.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db, pool: db.Pool}
}

const insertRefreshToken = `
	INSERT INTO refresh_tokens (id, user_id, token_hash, revoked, expires_at, created_at)
	VALUES ($1, $2, $3, FALSE, $4, $5)
`

// Create stores the hash of a newly issued refresh token
func (r *RefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, insertRefreshToken, uuid.New().String(), userID, tokenHash, expiresAt, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

// GetByHash looks up a refresh token record by its hash
func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, revoked, expires_at, created_at
		FROM refresh_tokens WHERE token_hash = $1
	`

	var token models.RefreshToken
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID, &token.UserID, &token.TokenHash, &token.Revoked, &token.ExpiresAt, &token.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &token, nil
}

// Revoke marks a refresh token as revoked
func (r *RefreshTokenRepository) Revoke(ctx context.Context, id string) error {
	query := `UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Rotate revokes oldID and stores the replacement in one transaction.
// Fails with models.ErrTokenRevoked if oldID was revoked concurrently.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldID, userID, newHash string, expiresAt time.Time) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE id = $1 AND revoked = FALSE`, oldID)
		if err != nil {
			return database.MapPostgresError(err)
		}
		if result.RowsAffected() == 0 {
			return models.ErrTokenRevoked
		}

		if _, err := tx.Exec(ctx, insertRefreshToken, uuid.New().String(), userID, newHash, expiresAt, time.Now()); err != nil {
			return database.MapPostgresError(err)
		}
		return nil
	})
}

// CleanupExpiredTokens removes refresh tokens past their expiry (call periodically)
func (r *RefreshTokenRepository) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

	result, err := r.pool.Exec(ctx, query, time.Now())
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
