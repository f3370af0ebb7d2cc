package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/SumukhChakkirala/chatApp/internal/config"
)

// DiskStore writes attachments to a local directory served by the HTTP
// layer under /uploads/. BaseURL, when set, makes the returned URLs
// absolute for clients behind a different origin.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(cfg *config.BlobConfig) (*DiskStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob - NewDiskStore - MkdirAll: %w", err)
	}
	return &DiskStore{dir: cfg.Dir, baseURL: cfg.BaseURL}, nil
}

func (s *DiskStore) Upload(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// Names are generated upstream; Base strips any path the client sent.
	name = filepath.Base(name)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blob - Upload - WriteFile: %w", err)
	}
	return s.baseURL + "/uploads/" + name, nil
}
