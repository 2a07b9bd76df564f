package p2wdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/entry/write", r.URL.Path)

		var req writeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "avax-dex-002", req.AppID)
		assert.JSONEq(t, `{"messageType":1}`, req.Data)

		w.Write([]byte(`{"success":true,"hash":"zdpuAbc"}`))
	}))
	defer srv.Close()

	hash, err := New(srv.URL).Write(context.Background(), "avax-dex-002", map[string]int{"messageType": 1})
	require.NoError(t, err)
	assert.Equal(t, "zdpuAbc", hash)
}

func TestWriteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"entry already exists"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Write(context.Background(), "app", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "entry already exists")
}

func TestWriteWithoutHash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Write(context.Background(), "app", "x")
	assert.Equal(t, ErrNoHash, err)
}

func TestCheckForSufficientFunds(t *testing.T) {
	sufficient := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/entry/funds", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"sufficient": sufficient})
	}))
	defer srv.Close()

	c := New(srv.URL)
	ok, err := c.CheckForSufficientFunds(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	sufficient = false
	ok, err = c.CheckForSufficientFunds(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
