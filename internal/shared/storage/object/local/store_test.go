package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recommendation-backend/internal/shared/storage/object"
)

func TestPutCreatesDirectoryLazily(t *testing.T) {
	base := filepath.Join(t.TempDir(), "uploads")
	store := New(base)

	_, err := os.Stat(base)
	require.True(t, os.IsNotExist(err), "directory must not exist before the first write")

	n, err := store.Put(context.Background(), "resumes/abc.txt", "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	ok, err := store.Exists(context.Background(), "resumes/abc.txt")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := store.Open(context.Background(), "resumes/abc.txt")
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
}

func TestOpenMissingReturnsNotFound(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Open(context.Background(), "letters/none.docx")
	assert.ErrorIs(t, err, object.ErrNotFound)
}

func TestDeleteMissingIsNotAnError(t *testing.T) {
	store := New(t.TempDir())
	assert.NoError(t, store.Delete(context.Background(), "resumes/ghost.pdf"))
}

func TestRejectsEscapingKeys(t *testing.T) {
	store := New(t.TempDir())
	_, err := store.Put(context.Background(), "../outside.txt", "text/plain", strings.NewReader("x"))
	assert.Error(t, err)
	_, err = store.Exists(context.Background(), "/etc/passwd")
	assert.Error(t, err)
}
