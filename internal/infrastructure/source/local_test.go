package source

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejit/billing/internal/domain/shared"
)

func TestLocalOpener_Open(t *testing.T) {
	dir := t.TempDir()
	content := "usage_type,cost\nBoxUsage,1.50\n"
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "usage"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "usage", "client-7.csv"), []byte(content), 0o644))

	opener := NewLocalOpener(dir)
	ctx := context.Background()

	t.Run("opens an existing file", func(t *testing.T) {
		rc, err := opener.Open(ctx, "usage/client-7.csv")
		require.NoError(t, err)
		defer rc.Close()

		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, content, string(data))
	})

	t.Run("missing file maps to ErrMissingSource", func(t *testing.T) {
		_, err := opener.Open(ctx, "usage/unknown.csv")
		assert.Equal(t, shared.ErrMissingSource, err)
	})

	t.Run("empty handle is refused", func(t *testing.T) {
		_, err := opener.Open(ctx, "")
		assert.Equal(t, shared.ErrMissingSource, err)
	})

	t.Run("path escape is refused", func(t *testing.T) {
		_, err := opener.Open(ctx, "../outside.csv")
		assert.Equal(t, shared.ErrMissingSource, err)

		_, err = opener.Open(ctx, "/etc/passwd")
		assert.Equal(t, shared.ErrMissingSource, err)
	})
}
