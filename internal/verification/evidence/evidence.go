// Package evidence abstracts where submitted verification documents live.
// The workflow itself only ever handles opaque URLs; this port is the seam
// for the real object-storage integration.
package evidence

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	id "github.com/Faheem-Musthafa/CampusLink-sub000/pkg/domain"
)

// Store persists an uploaded document and returns its opaque URL.
type Store interface {
	Put(ctx context.Context, principalID id.PrincipalID, contentType string, data io.Reader) (string, error)
}

// LocalStore writes documents to a directory on disk. It stands in for
// object storage in development and tests.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *LocalStore) Put(_ context.Context, principalID id.PrincipalID, contentType string, data io.Reader) (string, error) {
	name := principalID.String() + "-" + uuid.NewString() + extensionFor(contentType)

	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create evidence file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return "", fmt.Errorf("write evidence file: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
