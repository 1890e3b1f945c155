package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FSStorage keeps objects on the local filesystem. The HTTP layer serves Root
// under URLPrefix.
type FSStorage struct {
	root      string
	urlPrefix string
}

// NewFSStorage stores files below root; urlPrefix is prepended to keys to form
// public URLs (for example "/media" or "https://cdn.example/media").
func NewFSStorage(root, urlPrefix string) *FSStorage {
	return &FSStorage{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}
}

func (s *FSStorage) Root() string {
	return s.root
}

func (s *FSStorage) Put(ctx context.Context, key, _ string, body io.Reader, _ int64) error {
	dst, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return err
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, body); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// rename over the previous object so re-uploads replace it
	return os.Rename(tmp.Name(), dst)
}

func (s *FSStorage) URL(key string) string {
	return s.urlPrefix + "/" + key
}

func (s *FSStorage) Check(context.Context) error {
	testPath := filepath.Join(s.root, ".writetest")
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(testPath, []byte("ok"), 0o644); err != nil {
		return err
	}
	return os.Remove(testPath)
}

func (s *FSStorage) pathFor(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}
