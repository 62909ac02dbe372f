// Package storage persists uploaded product images on the local disk and
// builds the public URLs they are served under.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage stores uploaded files under a base directory, one
// subdirectory per product. Filenames are generated, never taken from the
// client.
type LocalStorage struct {
	dir     string
	baseURL string
}

// NewLocalStorage creates a LocalStorage rooted at dir. Stored files are
// addressable under baseURL.
func NewLocalStorage(dir, baseURL string) *LocalStorage {
	return &LocalStorage{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Dir returns the storage root, for static file serving.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// StoreFiles writes the uploaded files to disk keyed by product ID and
// returns the stored filenames relative to the storage root.
func (s *LocalStorage) StoreFiles(files []*multipart.FileHeader, productID string) ([]string, error) {
	productDir := filepath.Join(s.dir, productID)
	if err := os.MkdirAll(productDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory for product %s: %w", productID, err)
	}

	names := make([]string, 0, len(files))
	for _, fh := range files {
		name := uuid.New().String() + strings.ToLower(filepath.Ext(fh.Filename))
		if err := s.storeFile(fh, filepath.Join(productDir, name)); err != nil {
			return nil, err
		}
		names = append(names, productID+"/"+name)
	}
	return names, nil
}

// ImageURL builds the public URL for a stored filename. Pure function of
// configuration.
func (s *LocalStorage) ImageURL(name string) string {
	return s.baseURL + "/" + name
}

func (s *LocalStorage) storeFile(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file %s: %w", fh.Filename, err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("failed to write file %s: %w", dst, err)
	}
	return nil
}
