package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalStoreUploadDownloadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	key := "7c9e6679/program.lc"
	program := "((λx: x) λy: y)"

	require.NoError(t, store.Upload(ctx, key, strings.NewReader(program)))

	exists, err := store.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)

	r, err := store.Download(ctx, key)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, program, string(data))
}

func TestLocalStoreUploadOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "k", strings.NewReader("first")))
	require.NoError(t, store.Upload(ctx, "k", strings.NewReader("second")))

	r, err := store.Download(ctx, "k")
	require.NoError(t, err)
	defer r.Close()
	data, _ := io.ReadAll(r)
	assert.Equal(t, "second", string(data))
}

func TestLocalStoreDownloadMissingKey(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Download(context.Background(), "absent/normal_form.lc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifact not found")
}

func TestLocalStoreDeleteIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upload(ctx, "gone", strings.NewReader("x")))
	require.NoError(t, store.Delete(ctx, "gone"))
	require.NoError(t, store.Delete(ctx, "gone"))

	exists, err := store.Exists(ctx, "gone")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLocalStoreFileTransfer(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	src := filepath.Join(t.TempDir(), "in.lc")
	require.NoError(t, os.WriteFile(src, []byte("λx: x"), 0644))
	require.NoError(t, store.UploadFile(ctx, "job/program.lc", src))

	dst := filepath.Join(t.TempDir(), "nested", "out.lc")
	require.NoError(t, store.DownloadFile(ctx, "job/program.lc", dst))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "λx: x", string(data))
}

func TestLocalStoreRejectsEscapingKeys(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.Upload(ctx, "../outside", strings.NewReader("x"))
	assert.Error(t, err)
	assert.Empty(t, store.GetURL("../outside"))
}

func TestLocalStoreGetURLIsInsideBase(t *testing.T) {
	store := newTestStore(t)
	url := store.GetURL("job/program.lc")
	assert.True(t, strings.HasPrefix(url, store.GetBasePath()))
}

func TestLocalStoreHonorsCanceledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Upload(ctx, "k", strings.NewReader("x")))
	_, err := store.Exists(ctx, "k")
	assert.Error(t, err)
}
