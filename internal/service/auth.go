package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/linemk/storefront/internal/domain/models"
	security "github.com/linemk/storefront/internal/jwt-new"
	"github.com/linemk/storefront/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type AuthService struct {
	log       *slog.Logger
	userRepo  storage.UserStorage
	tokenRepo storage.TokenStorage
	secret    string
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewAuthService(log *slog.Logger, userRepo storage.UserStorage, tokenRepo storage.TokenStorage, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		log:       log,
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		secret:    secret,
		tokenTTL:  tokenTTL,
		now:       time.Now,
	}
}

type AuthServiceInterface interface {
	SignUp(ctx context.Context, fio, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, userID int64) error
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// SignUp регистрирует покупателя и сразу выдаёт ему токен.
func (a *AuthService) SignUp(ctx context.Context, fio, email, password string) (string, error) {
	const op = "service.AuthService.SignUp"
	email = strings.TrimSpace(email)
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)

	if len(password) < minPasswordLen {
		return "", fmt.Errorf("%s: %w", op, invalid("password", "min"))
	}

	// bcrypt сам добавляет соль
	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	user, err := a.userRepo.CreateUser(ctx, &models.User{
		Email:    email,
		FIO:      fio,
		PassHash: passHash,
		IsActive: true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			logger.Warn("email already taken")
			return "", fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}
		logger.Error("failed to create user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to create user: %w", op, err)
	}

	token, err := a.issueToken(ctx, user)
	if err != nil {
		logger.Error("failed to issue token", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("user signed up", slog.Int64("userID", user.ID))
	return token, nil
}

// Login сверяет пароль с хэшем и возвращает токен пользователя.
// Действующий токен переиспользуется, истёкший заменяется новым.
func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	const op = "service.AuthService.Login"
	email = strings.TrimSpace(email)
	logger := a.log.With(
		slog.String("op", op),
		slog.String("email", email),
	)
	logger.Info("checking user")

	user, err := a.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			logger.Warn("user not found")
			return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		logger.Error("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		logger.Warn("invalid password")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if !user.IsActive {
		logger.Warn("inactive user")
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := a.issueToken(ctx, user)
	if err != nil {
		logger.Error("failed to issue token", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("user logged in successfully", slog.Int64("userID", user.ID))
	return token, nil
}

func (a *AuthService) issueToken(ctx context.Context, user *models.User) (string, error) {
	now := a.now()

	current, err := a.tokenRepo.GetTokenByUserID(ctx, user.ID)
	switch {
	case err == nil && !current.Expired(now):
		return current.Token, nil
	case err != nil && !errors.Is(err, storage.ErrTokenNotFound):
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	token, expiresAt, err := security.NewToken(user, a.tokenTTL, a.secret, now)
	if err != nil {
		return "", err
	}
	if err := a.tokenRepo.SaveToken(ctx, &models.AuthToken{
		Token:     token,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", err
	}
	return token, nil
}

// Logout отзывает токен пользователя
func (a *AuthService) Logout(ctx context.Context, userID int64) error {
	const op = "service.AuthService.Logout"
	logger := a.log.With(slog.String("op", op), slog.Int64("userID", userID))

	if err := a.tokenRepo.DeleteTokenByUserID(ctx, userID); err != nil {
		logger.Error("failed to delete token", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("user logged out")
	return nil
}

// Authenticate находит владельца токена. Вызывается middleware на каждый запрос.
func (a *AuthService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	const op = "service.AuthService.Authenticate"

	principal, err := a.tokenRepo.GetPrincipalByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
		}
		a.log.Error("failed to resolve token", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return principal, nil
}
