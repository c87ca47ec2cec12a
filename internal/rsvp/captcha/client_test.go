package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientVerify(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			require.Equal(t, "secret-1", r.PostForm.Get("secret"))
			require.Equal(t, "tok-1", r.PostForm.Get("response"))
			require.Equal(t, "203.0.113.9", r.PostForm.Get("remoteip"))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"success": true, "score": 0.9}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "secret-1")
		v, err := c.Verify(context.Background(), "tok-1", "203.0.113.9")
		require.NoError(t, err)
		require.True(t, v.Success)
		require.Equal(t, 0.9, v.Score)
	})

	t.Run("failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": false, "error-codes": ["invalid-input-response"]}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "secret-1")
		v, err := c.Verify(context.Background(), "bad", "")
		require.NoError(t, err)
		require.False(t, v.Success)
	})

	t.Run("score below threshold", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"success": true, "score": 0.2}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "secret-1", WithMinScore(0.5))
		v, err := c.Verify(context.Background(), "tok", "")
		require.NoError(t, err)
		require.False(t, v.Success)
	})

	t.Run("provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "secret-1")
		_, err := c.Verify(context.Background(), "tok", "")
		require.Error(t, err)
	})
}

func TestNoopVerifier(t *testing.T) {
	v, err := NoopVerifier{}.Verify(context.Background(), "", "")
	require.NoError(t, err)
	require.True(t, v.Success)
}
