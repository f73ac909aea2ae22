package errors_test

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashmind/internal/errors"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *errors.AppError
		code   string
		status int
	}{
		{"not found", errors.NewNotFoundError("deck", "abc"), errors.ErrCodeNotFound, http.StatusNotFound},
		{"validation", errors.NewValidationError("title", "required"), errors.ErrCodeValidation, http.StatusBadRequest},
		{"bad request", errors.NewBadRequestError("bad json"), errors.ErrCodeBadRequest, http.StatusBadRequest},
		{"internal", errors.NewInternalError(stderrors.New("disk")), errors.ErrCodeInternal, http.StatusInternalServerError},
		{"conflict", errors.NewConflictError(stderrors.New("not revealed")), errors.ErrCodeConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.Contains(t, tt.err.Error(), tt.code)
		})
	}
}

func TestAs_UnwrapsChain(t *testing.T) {
	sentinel := stderrors.New("card must be revealed")
	wrapped := fmt.Errorf("rate: %w", errors.NewConflictError(sentinel))

	appErr, ok := errors.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.ErrorIs(t, wrapped, sentinel)

	_, ok = errors.As(stderrors.New("plain"))
	assert.False(t, ok)
}
