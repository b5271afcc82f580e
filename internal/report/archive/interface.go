package archive

import (
	"context"
	"fmt"

	"github.com/newthinker/quorum/internal/config"
)

// Storage is a flat key/value blob store for archived evaluations.
type Storage interface {
	// Write stores data at the given path, replacing any previous content.
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix, relative to the store root.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Open builds the storage named by cfg.Type. An empty type returns nil.
func Open(cfg config.ArchiveConfig) (Storage, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	default:
		return nil, fmt.Errorf("unknown archive type %q", cfg.Type)
	}
}
