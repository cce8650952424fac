package response

import (
	"errors"
	"net/http"
	"testing"

	"github.com/fatflowers/shopcredits/pkg/apperr"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   APIResponseCode
	}{
		{"validation", apperr.Validation("op", "bad"), http.StatusOK, APIResponseCodeBadRequest},
		{"not found", apperr.NotFound("op", errors.New("x")), http.StatusOK, APIResponseCodeNotFound},
		{"conflict", apperr.Conflict("op", errors.New("x")), http.StatusOK, APIResponseCodeConflict},
		{"unauthorized", apperr.Unauthorized("op", "no token"), http.StatusUnauthorized, APIResponseCodeUnauthorized},
		{"upstream", apperr.Upstream("op", errors.New("timeout")), http.StatusBadGateway, APIResponseCodeUpstream},
		{"persistence", apperr.Persistence("op", errors.New("db down")), http.StatusInternalServerError, APIResponseCodeError},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError, APIResponseCodeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := FromError(tt.err)
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.code, code)
		})
	}
}

func TestErrorT_Message(t *testing.T) {
	r := ErrorT[any](APIResponseCodeConflict, "already used")
	require.Equal(t, "conflict", r.Message)
	require.Equal(t, "already used", r.Data)
}
