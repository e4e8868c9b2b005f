package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/linemk/storefront/internal/domain/models"
)

var ErrTokenNotFound = errors.New("token not found")

// TokenStorage описывает таблицу bearer-токенов. У пользователя не больше одного токена
type TokenStorage interface {
	// GetTokenByUserID возвращает текущий токен пользователя (в том числе истёкший).
	GetTokenByUserID(ctx context.Context, userID int64) (*models.AuthToken, error)
	// SaveToken создаёт токен или заменяет существующий токен пользователя.
	SaveToken(ctx context.Context, token *models.AuthToken) error
	// DeleteTokenByUserID отзывает токен пользователя.
	DeleteTokenByUserID(ctx context.Context, userID int64) error
	// GetPrincipalByToken ищет действующий токен и владельца, истёкшие токены не находятся.
	GetPrincipalByToken(ctx context.Context, token string) (*models.Principal, error)
}

type tokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) TokenStorage {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) GetTokenByUserID(ctx context.Context, userID int64) (*models.AuthToken, error) {
	t := &models.AuthToken{}
	row := r.db.QueryRowContext(ctx, "SELECT token, user_id, created_at, expires_at FROM auth_tokens WHERE user_id = $1", userID)
	if err := row.Scan(&t.Token, &t.UserID, &t.CreatedAt, &t.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *tokenRepository) SaveToken(ctx context.Context, token *models.AuthToken) error {
	query := `INSERT INTO auth_tokens (token, user_id, created_at, expires_at)
	          VALUES ($1, $2, NOW(), $3)
	          ON CONFLICT (user_id) DO UPDATE
	          SET token = EXCLUDED.token, created_at = NOW(), expires_at = EXCLUDED.expires_at`
	if _, err := r.db.ExecContext(ctx, query, token.Token, token.UserID, token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

func (r *tokenRepository) DeleteTokenByUserID(ctx context.Context, userID int64) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM auth_tokens WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

func (r *tokenRepository) GetPrincipalByToken(ctx context.Context, token string) (*models.Principal, error) {
	query := `
		SELECT u.id, u.is_active, u.is_staff
		FROM auth_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token = $1 AND t.expires_at > NOW()`
	p := &models.Principal{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&p.UserID, &p.IsActive, &p.IsStaff); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	return p, nil
}
