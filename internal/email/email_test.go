package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"forum/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier(srv *httptest.Server) *ResendNotifier {
	n := NewResendNotifier("re_test_key", "Forum <registration@example.com>", "http://localhost:3000")
	n.endpoint = srv.URL
	n.client = srv.Client()
	return n
}

func TestSendVerification(t *testing.T) {
	t.Parallel()

	var got resendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv)
	err := n.SendVerification(context.Background(), "alice@example.com", "alice", "tok-123")
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test_key", auth)
	assert.Equal(t, []string{"alice@example.com"}, got.To)
	assert.Contains(t, got.HTML, "verify?token=tok-123")
}

func TestSendVerificationEscapesToken(t *testing.T) {
	t.Parallel()

	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := newTestNotifier(srv)
	err := n.SendVerification(context.Background(), "alice@example.com", "alice", "a b+c")
	require.NoError(t, err)
	assert.Contains(t, got.HTML, "token=a+b%2Bc")
}

func TestSendVerificationFailureIsExternalError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	n := newTestNotifier(srv)
	err := n.SendVerification(context.Background(), "alice@example.com", "alice", "tok")
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeExternal, appErr.Code)
}

func TestLogNotifierNeverFails(t *testing.T) {
	t.Parallel()
	n := NewLogNotifier("http://localhost:3000")
	assert.NoError(t, n.SendVerification(context.Background(), "a@example.com", "a", "tok"))
}
