package response

import (
	"encoding/json"
	"net/http"
)

// Envelope - успешный ответ {"data": ...}
type Envelope struct {
	Data any `json:"data"`
}

// ErrorEnvelope - ответ с ошибкой {"error": {"code": ..., "message": ...}}
type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// JSON оборачивает data в конверт и пишет с указанным статусом
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Data: data})
}

func Message(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"message": message})
}

func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, ErrorEnvelope{Error: ErrorBody{Code: status, Message: message}})
}

// ValidationError - 422 с ошибками по полям
func ValidationError(w http.ResponseWriter, fields map[string]string) {
	write(w, http.StatusUnprocessableEntity, ErrorEnvelope{Error: ErrorBody{
		Code:    http.StatusUnprocessableEntity,
		Message: "Validation error",
		Errors:  fields,
	}})
}

func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
