package server

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_Publish(t *testing.T) {
	b := newBroker()
	c := b.subscribe()
	assert.Equal(t, 1, b.count())

	b.publish("reload")
	select {
	case msg := <-c:
		assert.Equal(t, "id: 1\ndata: reload", msg)
	case <-time.After(time.Second):
		t.Fatal("no message")
	}

	b.unsubscribe(c)
	assert.Equal(t, 0, b.count())
	b.publish("reload")
}

func TestBroker_ServeHTTP(t *testing.T) {
	b := newBroker()
	srv := httptest.NewServer(b)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	require.Eventually(t, func() bool { return b.count() == 1 }, time.Second, 10*time.Millisecond)
	b.publish("reload")

	var got []string
	for len(got) < 2 {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		if line = strings.TrimSpace(line); line != "" {
			got = append(got, line)
		}
	}
	assert.Equal(t, []string{"id: 1", "data: reload"}, got)
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := newBroker()
	c := b.subscribe()
	require.NoError(t, watchFile(ctx, path, b))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`[]`), 0o600))
	require.NoError(t, os.WriteFile(path, []byte(`{"a":1}`), 0o600))

	select {
	case msg := <-c:
		assert.Contains(t, msg, "data: reload")
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}

func TestWatchFile_MissingDirectory(t *testing.T) {
	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "nope", "doc.json"), newBroker())
	assert.Error(t, err)
}
