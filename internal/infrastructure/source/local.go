package source

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tejit/billing/internal/domain/ingest"
	"github.com/tejit/billing/internal/domain/shared"
)

// Ensure LocalOpener implements ingest.SourceOpener
var _ ingest.SourceOpener = (*LocalOpener)(nil)

// LocalOpener opens usage files from a directory on the local filesystem.
// Handles are paths relative to the base directory; escaping it is refused.
type LocalOpener struct {
	baseDir string
}

// NewLocalOpener creates a LocalOpener rooted at baseDir.
func NewLocalOpener(baseDir string) *LocalOpener {
	return &LocalOpener{baseDir: baseDir}
}

// Open opens the file identified by the handle.
func (o *LocalOpener) Open(_ context.Context, handle string) (io.ReadCloser, error) {
	if handle == "" {
		return nil, shared.ErrMissingSource
	}

	cleaned := filepath.Clean(handle)
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return nil, shared.ErrMissingSource
	}

	f, err := os.Open(filepath.Join(o.baseDir, cleaned))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, shared.ErrMissingSource
		}
		return nil, err
	}
	return f, nil
}
