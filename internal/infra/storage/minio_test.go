package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"u1/abc.pdf":  "application/pdf",
		"u1/abc.txt":  "text/plain; charset=utf-8",
		"u1/abc.PNG":  "image/png",
		"u1/abc.jpeg": "image/jpeg",
		"u1/abc.jpg":  "image/jpeg",
		"u1/abc":      "application/octet-stream",
	}
	for key, want := range cases {
		assert.Equal(t, want, contentType(key), key)
	}
}

// fakeS3 answers just enough of the S3 API for BucketExists, StatObject and
// a single-part PutObject.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string]string // path -> session metadata
	puts    int
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/")
	if !strings.Contains(path, "/") {
		w.WriteHeader(http.StatusOK) // bucket HEAD
		return
	}
	switch r.Method {
	case http.MethodHead:
		if _, ok := f.objects[path]; !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", "3")
		w.WriteHeader(http.StatusOK)
	case http.MethodPut:
		io.Copy(io.Discard, r.Body)
		f.objects[path] = r.Header.Get("X-Amz-Meta-Session")
		f.puts++
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestUploadSkipsExistingObjects(t *testing.T) {
	fake := &fakeS3{objects: map[string]string{}}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	endpoint := strings.TrimPrefix(srv.URL, "http://")
	store, err := New(ctx, endpoint, "us-east-1", "uploads", "key", "secret", false)
	require.NoError(t, err)

	local := filepath.Join(t.TempDir(), "kan.txt")
	require.NoError(t, os.WriteFile(local, []byte("abc"), 0o600))

	key := "user_1/900150983cd24fb0d6963f7d28e17f72.txt"
	url, err := store.Upload(ctx, local, key)
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/uploads/"+key, url)

	_, err = store.Upload(ctx, local, key)
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, 1, fake.puts)
	assert.Equal(t, "user_1", fake.objects["uploads/"+key])
}
