package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stitts-dev/dfs-lineup/internal/optimizer"
)

func TestFromOptimizerError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("lineup 2 of 3: %w", optimizer.ErrInsufficientPlayers), http.StatusUnprocessableEntity, ErrCodeInsufficientPlayers},
		{optimizer.ErrConfigurationMismatch, http.StatusBadRequest, ErrCodeConfigurationMismatch},
		{optimizer.ErrUnsupportedContest, http.StatusNotFound, ErrCodeUnsupportedContest},
		{optimizer.ErrInvalidPlayer, http.StatusBadRequest, ErrCodeInvalidPlayer},
		{optimizer.ErrInvalidRequest, http.StatusBadRequest, ErrCodeValidation},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout},
		{errors.New("boom"), http.StatusInternalServerError, ErrCodeOptimization},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, appErr := FromOptimizerError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.err.Error(), appErr.Details)
		})
	}
}

func TestAppErrorMessage(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: run missing", NewAppError(ErrCodeNotFound, "run missing").Error())
	assert.Equal(t, "VALIDATION_ERROR: bad - depth", NewAppError(ErrCodeValidation, "bad", "depth").Error())
}

func TestSendOptimizerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	SendOptimizerError(c, optimizer.ErrInsufficientPlayers)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInsufficientPlayers, resp.Error.Code)
}
