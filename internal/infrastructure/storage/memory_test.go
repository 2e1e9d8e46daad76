package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryAttachmentStorage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryAttachmentStorage()

	t.Run("put stores under tenant-prefixed key", func(t *testing.T) {
		storagePath, err := store.Put(ctx, "tenant-1", "scontrino.pdf", "application/pdf", strings.NewReader("%PDF"))
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(storagePath, "claims/tenant-1/"))
		assert.True(t, strings.HasSuffix(storagePath, "-scontrino.pdf"))

		data, ok := store.Get(storagePath)
		require.True(t, ok)
		assert.Equal(t, "%PDF", string(data))
	})

	t.Run("put without tenant fails", func(t *testing.T) {
		_, err := store.Put(ctx, "", "file.pdf", "application/pdf", strings.NewReader("x"))
		assert.Error(t, err)
	})

	t.Run("same file name never collides", func(t *testing.T) {
		first, err := store.Put(ctx, "tenant-1", "nota.pdf", "application/pdf", strings.NewReader("a"))
		require.NoError(t, err)
		second, err := store.Put(ctx, "tenant-1", "nota.pdf", "application/pdf", strings.NewReader("b"))
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("presign get requires an existing blob", func(t *testing.T) {
		storagePath, err := store.Put(ctx, "tenant-2", "ricevuta.jpg", "image/jpeg", strings.NewReader("jpg"))
		require.NoError(t, err)

		url, err := store.PresignGet(ctx, storagePath, time.Minute)
		require.NoError(t, err)
		assert.Contains(t, url, storagePath)

		_, err = store.PresignGet(ctx, "claims/tenant-2/missing.jpg", time.Minute)
		assert.Error(t, err)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		storagePath, err := store.Put(ctx, "tenant-3", "doc.pdf", "application/pdf", strings.NewReader("x"))
		require.NoError(t, err)

		require.NoError(t, store.Delete(ctx, storagePath))
		_, ok := store.Get(storagePath)
		assert.False(t, ok)

		assert.NoError(t, store.Delete(ctx, storagePath))
	})
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"scontrino.pdf", "scontrino.pdf"},
		{"../../etc/passwd", "passwd"},
		{"nota spese agosto.pdf", "nota_spese_agosto.pdf"},
		{"ricevuta\\taxi.jpg", "taxi.jpg"},
		{"", "attachment"},
		{"///", "attachment"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeFileName(tt.input))
		})
	}
}
