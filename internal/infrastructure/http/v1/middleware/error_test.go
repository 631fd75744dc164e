package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinipos/internal/core/apperror"
)

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Recovery())
	router.Use(ErrorHandler())
	router.GET("/test", handler)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandlerRendersAppError(t *testing.T) {
	rec := performRequest(func(c *gin.Context) {
		c.Error(apperror.NewInsufficientStock().WithDetail("code", "PARA-500"))
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, apperror.CodeInsufficientStock, body["code"])
}

func TestErrorHandlerHidesUnknownErrors(t *testing.T) {
	rec := performRequest(func(c *gin.Context) {
		c.Error(errors.New("pq: connection reset"))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestErrorHandlerLeavesWrittenResponsesAlone(t *testing.T) {
	rec := performRequest(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
		c.Error(apperror.NewValidation("too late"))
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "too late")
}

func TestRecoveryWritesInternalError(t *testing.T) {
	rec := performRequest(func(c *gin.Context) {
		panic("boom")
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, apperror.CodeInternal, body["code"])
	assert.NotContains(t, rec.Body.String(), "boom")
}
