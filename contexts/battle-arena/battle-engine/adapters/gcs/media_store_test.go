package gcs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/storage"
	"github.com/stretchr/testify/require"

	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

func TestPublicURL(t *testing.T) {
	store := NewMediaStoreWithClient(nil, "reelrivals-media", "", nil)
	require.Equal(t, "https://storage.googleapis.com/reelrivals-media/videos/1_a.mp4", store.PublicURL("videos/1_a.mp4"))

	cdn := NewMediaStoreWithClient(nil, "reelrivals-media", " https://cdn.example.test/ ", nil)
	require.Equal(t, "https://cdn.example.test/videos/1_a.mp4", cdn.PublicURL("videos/1_a.mp4"))
	require.NoError(t, cdn.Close())
}

func TestStoreRequiresKeyAndBody(t *testing.T) {
	store := NewMediaStoreWithClient(nil, "reelrivals-media", "", nil)
	_, err := store.Store(context.Background(), ports.MediaObject{Key: "videos/1_a.mp4"})
	require.Error(t, err)
}

func TestNewMediaStoreRequiresBucket(t *testing.T) {
	_, err := NewMediaStore(context.Background(), " ", "", nil)
	require.ErrorContains(t, err, "bucket is required")
}

// uploadRecorder stands in for the storage JSON API and keeps every upload
// whose body arrived complete.
type uploadRecorder struct {
	mu        sync.Mutex
	completed []string
}

func (u *uploadRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return
	}
	u.mu.Lock()
	u.completed = append(u.completed, string(body))
	u.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"bucket":"reelrivals-media","name":"videos/1_a.mp4"}`))
}

func (u *uploadRecorder) count() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.completed)
}

func newEmulatedStore(t *testing.T) (*MediaStore, *uploadRecorder) {
	t.Helper()
	recorder := &uploadRecorder{}
	server := httptest.NewServer(recorder)
	t.Cleanup(server.Close)
	t.Setenv("STORAGE_EMULATOR_HOST", server.URL)

	client, err := storage.NewClient(context.Background())
	require.NoError(t, err)
	store := NewMediaStoreWithClient(client, "reelrivals-media", "", nil)
	t.Cleanup(func() { _ = store.Close() })
	return store, recorder
}

// brokenBody yields some bytes and then fails like a dropped client upload.
type brokenBody struct {
	sent bool
}

func (b *brokenBody) Read(p []byte) (int, error) {
	if b.sent {
		return 0, errors.New("client went away")
	}
	b.sent = true
	return copy(p, "video-"), nil
}

func TestStoreUploadsObject(t *testing.T) {
	store, recorder := newEmulatedStore(t)
	url, err := store.Store(context.Background(), ports.MediaObject{
		Key:         "videos/1_a.mp4",
		ContentType: "video/mp4",
		Size:        int64(len("video-bytes")),
		Body:        strings.NewReader("video-bytes"),
	})
	require.NoError(t, err)
	require.Equal(t, "https://storage.googleapis.com/reelrivals-media/videos/1_a.mp4", url)
	require.Equal(t, 1, recorder.count())
	require.Contains(t, recorder.completed[0], "video-bytes")
}

func TestStoreDoesNotFinalizePartialUpload(t *testing.T) {
	store, recorder := newEmulatedStore(t)
	_, err := store.Store(context.Background(), ports.MediaObject{
		Key:         "videos/1_a.mp4",
		ContentType: "video/mp4",
		Size:        int64(len("video-bytes")),
		Body:        &brokenBody{},
	})
	require.ErrorContains(t, err, "client went away")
	require.Never(t, func() bool { return recorder.count() > 0 }, 300*time.Millisecond, 20*time.Millisecond)
}
