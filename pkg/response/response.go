package response

import (
	"net/http"

	"github.com/fatflowers/shopcredits/pkg/apperr"
)

// APIResponseCode is the business status carried in every JSON envelope.
type APIResponseCode int

const (
	APIResponseCodeOK           APIResponseCode = 0
	APIResponseCodeBadRequest   APIResponseCode = 40000
	APIResponseCodeUnauthorized APIResponseCode = 40100
	APIResponseCodeNotFound     APIResponseCode = 40400
	APIResponseCodeConflict     APIResponseCode = 40900
	APIResponseCodeError        APIResponseCode = 50000
	APIResponseCodeUpstream     APIResponseCode = 50200
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:           "ok",
	APIResponseCodeBadRequest:   "bad request",
	APIResponseCodeUnauthorized: "unauthorized",
	APIResponseCodeNotFound:     "not found",
	APIResponseCodeConflict:     "conflict",
	APIResponseCodeError:        "unexpected error",
	APIResponseCodeUpstream:     "upstream unavailable",
}

// APIResponse is the generic response envelope used by HTTP APIs.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with message and optional data.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}

// FromError maps an error kind to an HTTP status and envelope code.
// Validation, not-found and conflict stay 200 like every other business
// outcome; upstream and persistence failures get a real 5xx so proxies and
// retrying callers can see them.
func FromError(err error) (int, APIResponseCode) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusOK, APIResponseCodeBadRequest
	case apperr.KindNotFound:
		return http.StatusOK, APIResponseCodeNotFound
	case apperr.KindConflict:
		return http.StatusOK, APIResponseCodeConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized, APIResponseCodeUnauthorized
	case apperr.KindUpstream:
		return http.StatusBadGateway, APIResponseCodeUpstream
	default:
		return http.StatusInternalServerError, APIResponseCodeError
	}
}
