package restclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSendsHeadersAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/items", r.URL.Path)
		assert.Equal(t, "eq.1", r.URL.Query().Get("id"))
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"name":"first"}]`))
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Authorization", "Bearer token")
	c := New(srv.URL+"/api/", header)

	var out []struct {
		Name string `json:"name"`
	}
	err := c.Get(context.Background(), "/items", url.Values{"id": {"eq.1"}}, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "first", out[0].Name)
}

func TestPostEncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "return=minimal", r.Header.Get("Prefer"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hello", body["msg"])
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("Prefer", "return=minimal")

	c := New(srv.URL, nil)
	err := c.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/messages",
		Body:   map[string]string{"msg": "hello"},
		Header: header,
	}, &struct{}{})
	require.NoError(t, err)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"bad filter"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	err := c.Delete(context.Background(), "/rows", nil)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.Equal(t, http.MethodDelete, se.Method)
	assert.Equal(t, "/rows", se.Path)
	assert.Contains(t, se.Body, "bad filter")
}

func TestRetriesOnTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.Get(context.Background(), "/", nil, &out))
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(srv.URL, nil, WithMaxRetries(2), WithMaxBackoff(time.Millisecond))
	err := c.Get(context.Background(), "/", nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries (2) exceeded")
	assert.Equal(t, int32(3), calls.Load())
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := New(srv.URL, nil)
	err := c.Get(ctx, "/", nil, nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNoContentSkipsDecode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out map[string]any
	require.NoError(t, New(srv.URL, nil).Get(context.Background(), "/", nil, &out))
	assert.Nil(t, out)
}
