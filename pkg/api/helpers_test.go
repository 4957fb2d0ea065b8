package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "pmadmin-backend/internal/errors"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"validation", apperrors.NewValidation("bad page"), http.StatusBadRequest, "bad page"},
		{"not found", apperrors.NewNotFound("no such user"), http.StatusNotFound, "no such user"},
		{"unavailable", fmt.Errorf("select: %w", apperrors.ErrSourceUnavailable), http.StatusServiceUnavailable, "data source unavailable"},
		{"plain error", errors.New("dial tcp: refused"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			FromError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			var body ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantMessage, body.Error)
		})
	}
}

func TestSuccess_NilData(t *testing.T) {
	rec := httptest.NewRecorder()

	Success(rec, http.StatusNoContent, nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, rec.Body.Len())
}
