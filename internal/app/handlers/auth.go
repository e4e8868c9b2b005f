package handlers

import (
	"log/slog"
	"net/http"

	"github.com/linemk/storefront/internal/lib/api/response"
	"github.com/linemk/storefront/internal/service"
)

// SignUpRequest - регистрация покупателя
type SignUpRequest struct {
	FIO      string `json:"fio" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest представляет структуру запроса для аутентификации с тегами валидации
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse - ответ с bearer-токеном
type TokenResponse struct {
	UserToken string `json:"user_token"`
}

// SignUpHandler обрабатывает POST /users/sign
func SignUpHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SignUpHandler"
		logger := log.With(slog.String("op", op))

		var req SignUpRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		token, err := authService.SignUp(r.Context(), req.FIO, req.Email, req.Password)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		response.JSON(w, http.StatusCreated, TokenResponse{UserToken: token})
	}
}

// LoginHandler обрабатывает POST /users/login
func LoginHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LoginHandler"
		logger := log.With(slog.String("op", op))

		var req LoginRequest
		if !decodeAndValidate(w, r, logger, &req) {
			return
		}

		token, err := authService.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			logger.Warn("login failed", slog.Any("error", err))
			writeError(w, logger, err)
			return
		}

		response.JSON(w, http.StatusOK, TokenResponse{UserToken: token})
	}
}

// LogoutHandler отзывает токен текущего пользователя
func LogoutHandler(log *slog.Logger, authService service.AuthServiceInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.LogoutHandler"
		logger := log.With(slog.String("op", op))

		p, ok := principal(w, r, logger)
		if !ok {
			return
		}

		if err := authService.Logout(r.Context(), p.UserID); err != nil {
			writeError(w, logger, err)
			return
		}

		response.Message(w, http.StatusOK, "Log out")
	}
}
