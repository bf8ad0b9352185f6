package serve

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("hello world"), 0o644))

	srv, err := Start(dir)
	require.NoError(t, err)
	defer srv.Stop(context.Background())

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/index.html", srv.Port()))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(body))
}

func TestServeStopClosesListener(t *testing.T) {
	dir := t.TempDir()
	srv, err := Start(dir)
	require.NoError(t, err)

	port := srv.Port()
	require.NoError(t, srv.Stop(context.Background()))

	_, err = http.Get(fmt.Sprintf("http://127.0.0.1:%d/", port))
	assert.Error(t, err)
}

func TestServeEachCallGetsFreshPort(t *testing.T) {
	dir := t.TempDir()
	s1, err := Start(dir)
	require.NoError(t, err)
	defer s1.Stop(context.Background())

	s2, err := Start(dir)
	require.NoError(t, err)
	defer s2.Stop(context.Background())

	assert.NotEqual(t, s1.Port(), s2.Port())
}
