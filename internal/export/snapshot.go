package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/m3rciful/wishbot/core/logger"
)

// ErrSnapshotNotFound is returned for unknown or malformed tokens.
var ErrSnapshotNotFound = errors.New("export: snapshot not found")

// SnapshotStore keeps wishlist snapshots under opaque tokens.
type SnapshotStore interface {
	Save(ctx context.Context, items []Item) (string, error)
	Load(ctx context.Context, token string) ([]Item, error)
}

// FileStore writes one JSON file per snapshot: <dir>/<token>.json holding {"<token>": [items]}.
type FileStore struct {
	dir string
}

var _ SnapshotStore = (*FileStore)(nil)

// NewFileStore creates dir when missing.
func NewFileStore(dir string) (*FileStore, error) {
	dir = filepath.Clean(strings.TrimSpace(dir))
	if dir == "" || dir == "." {
		dir = "snapshots"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("snapshot dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Save stores items under a fresh random token. Zero items yield ErrNothingToExport.
func (s *FileStore) Save(ctx context.Context, items []Item) (string, error) {
	if len(items) == 0 {
		return "", ErrNothingToExport
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token := uuid.NewString()
	data, err := json.MarshalIndent(map[string][]Item{token: items}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	if err := writeFileAtomic(s.path(token), data); err != nil {
		logger.LogEvent(ctx, logger.SVCExport, slog.LevelError, "snapshot.save",
			slog.String("status", "fail"),
			slog.Any("err", err),
		)
		return "", err
	}
	logger.LogEvent(ctx, logger.SVCExport, slog.LevelInfo, "snapshot.save",
		slog.String("status", "ok"),
		slog.String("token", token),
		slog.Int("count", len(items)),
	)
	return token, nil
}

// Load returns the items saved under token.
func (s *FileStore) Load(ctx context.Context, token string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(strings.TrimSpace(token))
	if err != nil {
		return nil, ErrSnapshotNotFound
	}
	token = id.String()

	data, err := os.ReadFile(s.path(token))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var doc map[string][]Item
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", token, err)
	}
	items, ok := doc[token]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	return items, nil
}

func (s *FileStore) path(token string) string {
	return filepath.Join(s.dir, token+".json")
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp for %s: %w", path, err)
	}
	return nil
}
