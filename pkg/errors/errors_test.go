package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{CodeValidationFailed, http.StatusBadRequest},
		{CodeTokenMissing, http.StatusUnauthorized},
		{CodeTaskNotFound, http.StatusNotFound},
		{CodeRunInProgress, http.StatusConflict},
		{CodeGenerationFailed, http.StatusBadGateway},
		{CodePersistenceFailed, http.StatusBadGateway},
		{CodeUnknown, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x").HTTPStatus)
		})
	}
}

func TestAsAppError_UnwrapsWrappedAppError(t *testing.T) {
	base := New(CodeTaskNotFound, "generation task not found")
	wrapped := fmt.Errorf("lookup: %w", base)

	assert.True(t, IsAppError(wrapped))
	assert.Same(t, base, AsAppError(wrapped))

	plain := stderrors.New("plain")
	got := AsAppError(plain)
	assert.Equal(t, CodeUnknown, got.Code)
	assert.ErrorIs(t, got, plain)
}
