package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"credit-approval/internal/api/handler/dto"
	"credit-approval/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret-key"

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestGenerateBearerToken(t *testing.T) {
	issued := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	h := NewAuthHandler(config.AuthConfig{JWTSecret: testSecret, TokenTTL: time.Hour}, logger)
	h.now = func() time.Time { return issued }

	t.Run("successfully generates token", func(t *testing.T) {
		body, _ := json.Marshal(dto.TokenRequest{Username: "  loan-officer "})
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader(body))
		w := httptest.NewRecorder()

		h.GenerateBearerToken(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		var resp dto.TokenResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Bearer", resp.TokenType)
		assert.Equal(t, issued.Add(time.Hour).Unix(), resp.ExpiresAt)

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (any, error) {
			return []byte(testSecret), nil
		}, jwt.WithTimeFunc(func() time.Time { return issued }))
		require.NoError(t, err)
		assert.Equal(t, "loan-officer", claims.Subject)
	})

	t.Run("fails with invalid request body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader([]byte("invalid json")))
		w := httptest.NewRecorder()

		h.GenerateBearerToken(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("fails with blank username", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader([]byte(`{"username":"   "}`)))
		w := httptest.NewRecorder()

		h.GenerateBearerToken(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var resp dto.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "username", resp.Error.Field)
	})
}

func TestGenerateBearerToken_DefaultTTL(t *testing.T) {
	issued := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	h := NewAuthHandler(config.AuthConfig{JWTSecret: testSecret}, logger)
	h.now = func() time.Time { return issued }

	req := httptest.NewRequest(http.MethodPost, "/auth/token", bytes.NewReader([]byte(`{"username":"ops"}`)))
	w := httptest.NewRecorder()
	h.GenerateBearerToken(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, issued.Add(24*time.Hour).Unix(), resp.ExpiresAt)
}
