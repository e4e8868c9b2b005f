package jwtmiddleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/linemk/storefront/internal/domain/models"
	security "github.com/linemk/storefront/internal/jwt-new"
	"github.com/linemk/storefront/internal/lib/api/response"
)

type contextKey string

const PrincipalKey contextKey = "principal"

// PrincipalResolver ищет токен в хранилище. Подписи недостаточно: отозванный токен
// подписан корректно, но в таблице его уже нет.
type PrincipalResolver interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// NewJWTMiddleware пропускает запрос только с действующим токеном активного пользователя.
func NewJWTMiddleware(log *slog.Logger, secret string, resolver PrincipalResolver) func(http.Handler) http.Handler {
	if secret == "" {
		panic("JWT_SECRET is not set")
	}
	log = log.With(slog.String("component", "middleware/jwt"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, reason := authenticate(r, secret, resolver)
			if principal == nil {
				log.Debug("request rejected", slog.String("reason", reason), slog.String("path", r.URL.Path))
				response.Error(w, http.StatusForbidden, "Login failed")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// NewOptionalJWTMiddleware кладёт пользователя в контекст, если токен валиден, иначе пропускает анонимно.
func NewOptionalJWTMiddleware(secret string, resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if principal, _ := authenticate(r, secret, resolver); principal != nil {
				r = r.WithContext(WithPrincipal(r.Context(), principal))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(r *http.Request, secret string, resolver PrincipalResolver) (*models.Principal, string) {
	// Извлекаем токен из заголовка Authorization (формат: "Bearer <token>")
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, "missing token"
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, "invalid token format"
	}
	tokenStr := parts[1]

	userID, err := security.ParseToken(tokenStr, secret)
	if err != nil {
		return nil, "invalid token"
	}

	principal, err := resolver.Authenticate(r.Context(), tokenStr)
	if err != nil {
		return nil, "token revoked or unknown"
	}
	if principal.UserID != userID {
		return nil, "token subject mismatch"
	}
	if !principal.IsActive {
		return nil, "user is inactive"
	}
	return principal, ""
}

// RequireStaff пропускает только сотрудников
func RequireStaff(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusForbidden, "Login failed")
			return
		}
		if !p.IsStaff {
			response.Error(w, http.StatusForbidden, "Forbidden for you")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireCustomer закрывает корзину и заказы для сотрудников
func RequireCustomer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusForbidden, "Login failed")
			return
		}
		if p.IsStaff {
			response.Error(w, http.StatusForbidden, "Forbidden for you")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// FromContext извлекает пользователя из контекста.
func FromContext(ctx context.Context) (*models.Principal, bool) {
	p, ok := ctx.Value(PrincipalKey).(*models.Principal)
	return p, ok && p != nil
}
