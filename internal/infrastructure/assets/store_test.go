package assets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinipos/internal/core/apperror"
)

func TestDiskStore_SaveAndDelete(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save(context.Background(), "brand-logo.PNG", strings.NewReader("fake image bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"))

	data, err := os.ReadFile(store.Path(ref))
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(data))

	require.NoError(t, store.Delete(context.Background(), ref))
	_, err = os.Stat(store.Path(ref))
	assert.True(t, os.IsNotExist(err))
}

func TestDiskStore_SaveRejectsUnknownExtension(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save(context.Background(), "payload.exe", strings.NewReader("x"))
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestDiskStore_DeleteRejectsTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	err = store.Delete(context.Background(), filepath.Join("..", "escape.png"))
	require.Error(t, err)
	assert.True(t, apperror.IsAppError(err))
}

func TestDiskStore_DeleteMissingFileIsNoop(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete(context.Background(), "never-stored.png"))
}
