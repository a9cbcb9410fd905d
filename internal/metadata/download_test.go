package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listenupapp/tafcue/internal/errors"
)

func testLoader() *Loader {
	l := NewLoader(nil)
	l.delay = time.Millisecond
	return l
}

func TestLoader_DownloadRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(v2JSON))
	}))
	defer srv.Close()

	cache := filepath.Join(t.TempDir(), "tonies.json")
	db, err := testLoader().Download(context.Background(), srv.URL, cache)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load())
	_, ok := db.Lookup("aaaa")
	assert.True(t, ok)

	saved, err := os.ReadFile(cache)
	require.NoError(t, err)
	assert.JSONEq(t, v2JSON, string(saved))
}

func TestLoader_DownloadDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testLoader().Download(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrDownloadFailed))
	assert.Equal(t, int32(1), calls.Load())
}

func TestLoader_LoadFallsBackToFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "tonies.json")
	require.NoError(t, os.WriteFile(path, []byte(v1JSON), 0o600))

	db := testLoader().Load(context.Background(), path, srv.URL, true)
	assert.Equal(t, 3, db.Len())
}

func TestLoader_LoadMissingIsEmpty(t *testing.T) {
	db := testLoader().Load(context.Background(), filepath.Join(t.TempDir(), "none.json"), "", false)
	require.NotNil(t, db)
	assert.Zero(t, db.Len())
}
