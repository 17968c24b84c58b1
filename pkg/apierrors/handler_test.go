package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stacklok/mcp-vgateway/pkg/httperr"
)

func TestErrorHandler(t *testing.T) {
	t.Run("passes through successful response", func(t *testing.T) {
		handler := ErrorHandler(func(w http.ResponseWriter, _ *http.Request) error {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("success"))
			return nil
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "success", rec.Body.String())
	})

	t.Run("converts 400 error to HTTP response with message", func(t *testing.T) {
		handler := ErrorHandler(func(_ http.ResponseWriter, _ *http.Request) error {
			return httperr.WithCode(fmt.Errorf("invalid input"), http.StatusBadRequest)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "invalid input")
	})

	t.Run("converts 404 error to HTTP response with message", func(t *testing.T) {
		handler := ErrorHandler(func(_ http.ResponseWriter, _ *http.Request) error {
			return httperr.WithCode(fmt.Errorf("resource not found"), http.StatusNotFound)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "resource not found")
	})

	t.Run("converts 500 error to generic HTTP response", func(t *testing.T) {
		handler := ErrorHandler(func(_ http.ResponseWriter, _ *http.Request) error {
			return httperr.WithCode(fmt.Errorf("sensitive database error details"), http.StatusInternalServerError)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.False(t, strings.Contains(rec.Body.String(), "sensitive"))
		require.Contains(t, rec.Body.String(), "Internal Server Error")
	})

	t.Run("error without code defaults to 500 with generic message", func(t *testing.T) {
		handler := ErrorHandler(func(_ http.ResponseWriter, _ *http.Request) error {
			return errors.New("plain error without code")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.False(t, strings.Contains(rec.Body.String(), "plain error"))
		require.Contains(t, rec.Body.String(), "Internal Server Error")
	})

	t.Run("handles wrapped error with code", func(t *testing.T) {
		sentinelErr := httperr.WithCode(errors.New("not found"), http.StatusNotFound)

		handler := ErrorHandler(func(_ http.ResponseWriter, _ *http.Request) error {
			return fmt.Errorf("workload lookup failed: %w", sentinelErr)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "workload lookup failed")
	})
}

func TestHandlerWithError_Type(t *testing.T) {
	var handler HandlerWithError = func(w http.ResponseWriter, _ *http.Request) error {
		w.WriteHeader(http.StatusOK)
		return nil
	}

	wrapped := ErrorHandler(handler)
	require.NotNil(t, wrapped)
}
