package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage persists files on disk under a base directory and serves them via signed links.
type LocalStorage struct {
	baseDir string
	signer  *SignedURLSigner
	baseURL string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir string, signer *SignedURLSigner, baseURL string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, signer: signer, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Put copies from reader into the target key under the base dir.
func (s *LocalStorage) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	written, err := io.Copy(file, r)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write upload stream: %w", err)
	}
	url, err := s.URL(ctx, key)
	if err != nil {
		return nil, err
	}
	return &Object{Key: key, URL: url, ContentType: contentType, Size: written}, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open upload file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}

// URL returns a signed download link for the key.
func (s *LocalStorage) URL(_ context.Context, key string) (string, error) {
	if s.signer == nil {
		return s.baseURL + "/files/" + key, nil
	}
	token, _, err := s.signer.Generate(key)
	if err != nil {
		return "", fmt.Errorf("sign download link: %w", err)
	}
	return s.baseURL + "/files/" + token, nil
}

// Resolve validates a download token and returns the key it grants access to.
func (s *LocalStorage) Resolve(token string) (string, error) {
	if s.signer == nil {
		return "", fmt.Errorf("signed links disabled")
	}
	key, _, err := s.signer.Parse(token)
	return key, err
}

func (s *LocalStorage) resolve(key string) (string, error) {
	clean := Key(key)
	if clean == "" {
		return "", fmt.Errorf("empty object key")
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}
