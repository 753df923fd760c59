package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"myrupee/internal/core"
)

// JSONResponse is a fluent builder for API responses.
type JSONResponse struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse() *JSONResponse {
	return &JSONResponse{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.statusCode = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

func (b *JSONResponse) Body(v any) *JSONResponse {
	b.body = v
	return b
}

// Write sends the response. A nil body writes only the status line.
func (b *JSONResponse) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", "component", "http", "error", err)
	}
}

type errorBody struct {
	Error  string            `json:"error"`
	Fields core.FieldErrors `json:"fields,omitempty"`
}

// ErrorResponse is the {"error": message} body every failure uses.
func ErrorResponse(statusCode int, message string) *JSONResponse {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponse {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *JSONResponse {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func ConflictError(message string) *JSONResponse {
	return ErrorResponse(http.StatusConflict, message)
}

func UnprocessableEntityError(message string) *JSONResponse {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// FieldErrorsResponse is a 422 carrying one message per invalid field.
func FieldErrorsResponse(fe core.FieldErrors) *JSONResponse {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(errorBody{Error: "invalid form", Fields: fe})
}

func TooManyRequestsError(message string) *JSONResponse {
	return ErrorResponse(http.StatusTooManyRequests, message)
}

func InternalServerError(message string) *JSONResponse {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func BadGatewayError(message string) *JSONResponse {
	return ErrorResponse(http.StatusBadGateway, message)
}
