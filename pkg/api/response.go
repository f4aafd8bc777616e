package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fadedpez/gamblinghall/internal/types"
)

// retryAfterSeconds is sent with errors the client should retry
const retryAfterSeconds = 1

// StatusCodes maps error codes to HTTP statuses
var StatusCodes = map[types.ErrorCode]int{
	types.ErrInvalidBetParameters:    http.StatusBadRequest,
	types.ErrInsufficientFunds:       http.StatusPaymentRequired,
	types.ErrTamperedGameState:       http.StatusConflict,
	types.ErrConcurrentWagerConflict: http.StatusConflict,
	types.ErrRateLimited:             http.StatusTooManyRequests,
	types.ErrWagerNotFound:           http.StatusNotFound,
	types.ErrWalletNotFound:          http.StatusNotFound,
	types.ErrInternalError:           http.StatusInternalServerError,
	types.ErrDatabaseError:           http.StatusInternalServerError,
}

// ErrorBody is the JSON error envelope
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request
type ErrorDetail struct {
	Code      types.ErrorCode `json:"code"`
	Message   string          `json:"message"`
	Retryable bool            `json:"retryable"`
}

// NewErrorResponse maps an error to its status and body. Internal failures
// never leak their cause to the client.
func NewErrorResponse(err error) (int, ErrorBody) {
	var gameErr *types.GameError
	if !types.As(err, &gameErr) {
		return http.StatusInternalServerError, ErrorBody{Error: ErrorDetail{
			Code:    types.ErrInternalError,
			Message: "internal error",
		}}
	}

	status, ok := StatusCodes[gameErr.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	message := gameErr.Message
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	return status, ErrorBody{Error: ErrorDetail{
		Code:      gameErr.Code,
		Message:   message,
		Retryable: types.IsRetryable(err) || gameErr.Code == types.ErrRateLimited,
	}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, body := NewErrorResponse(err)
	if body.Error.Retryable {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	writeJSON(w, status, body)
}
