package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/linemk/storefront/internal/domain/models"
	"github.com/linemk/storefront/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/storefront/internal/lib/api/response"
	"github.com/linemk/storefront/internal/payment"
	"github.com/linemk/storefront/internal/service"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// в ошибках используем имена полей из json
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimal.Decimal - структура, без конвертации validator не применяет к ней теги
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	// grade: от 0 до 5 с шагом 0.1
	if err := v.RegisterValidation("grade", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && models.ValidGrade(d)
	}); err != nil {
		panic(err)
	}
	return v
}

// decodeAndValidate читает JSON тела и проверяет структуру. При ошибке ответ уже записан.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.Warn("invalid request: decoding error", slog.Any("error", err))
		response.Error(w, http.StatusBadRequest, "Invalid JSON")
		return false
	}
	return validateRequest(w, logger, req)
}

func validateRequest(w http.ResponseWriter, logger *slog.Logger, req any) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		logger.Error("validation failed", slog.Any("error", err))
		response.Error(w, http.StatusInternalServerError, "Internal server error")
		return false
	}

	fields := make(map[string]string, len(vErrs))
	for _, fe := range vErrs {
		fields[fe.Field()] = fe.Tag()
	}
	logger.Warn("invalid request: validation error", slog.Any("fields", fields))
	response.ValidationError(w, fields)
	return false
}

// writeError переводит ошибку сервиса в код ответа
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var (
		vErr  *service.ValidationError
		gwErr *payment.GatewayError
	)
	switch {
	case errors.As(err, &vErr):
		response.ValidationError(w, map[string]string{vErr.Field: vErr.Message})
	case errors.Is(err, service.ErrEmailTaken):
		response.ValidationError(w, map[string]string{"email": "unique"})
	case errors.Is(err, service.ErrEmptyCart):
		response.Error(w, http.StatusNotFound, "Cart is empty")
	case errors.Is(err, service.ErrNotFound):
		response.Error(w, http.StatusNotFound, "Not found")
	case errors.Is(err, service.ErrForbidden):
		response.Error(w, http.StatusForbidden, "Forbidden for you")
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "Authentication failed")
	case errors.Is(err, service.ErrCartBusy):
		response.Error(w, http.StatusConflict, "Cart is being checked out, try again")
	case errors.Is(err, service.ErrInvalidSignature):
		response.Error(w, http.StatusBadRequest, "Invalid signature")
	case errors.As(err, &gwErr):
		response.Error(w, http.StatusInternalServerError, gwErr.Message)
	default:
		logger.Error("request failed", slog.Any("error", err))
		response.Error(w, http.StatusInternalServerError, "Internal server error")
	}
}

// principal достаёт пользователя, положенного JWT middleware
func principal(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*models.Principal, bool) {
	p, ok := jwtmiddleware.FromContext(r.Context())
	if !ok {
		logger.Error("principal not found in context")
		response.Error(w, http.StatusForbidden, "Login failed")
		return nil, false
	}
	return p, true
}

// idParam разбирает числовой параметр пути; нечисловой id - это 404
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(w, http.StatusNotFound, "Not found")
		return 0, false
	}
	return id, true
}
