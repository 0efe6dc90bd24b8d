package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"golang.org/x/crypto/blake2b"

	"github.com/erazemk/kitshelf/internal/imaging"
)

// MediaPrefix is the URL path under which blobs are served.
const MediaPrefix = "/media/"

// StoredBlob is a blob as kept in the database.
type StoredBlob struct {
	Path         string
	Data         []byte
	MIME         string
	ETag         string
	CacheControl string
	CreatedAt    time.Time
}

// BlobStore keeps image blobs in SQLite and hands out public URLs for them.
type BlobStore struct {
	db        *sql.DB
	publicURL string
}

// NewBlobStore returns a store whose URLs start with publicURL, e.g.
// "https://kits.example.com". An empty publicURL yields root-relative URLs.
func NewBlobStore(db *sql.DB, publicURL string) *BlobStore {
	return &BlobStore{db: db, publicURL: strings.TrimRight(publicURL, "/")}
}

// Put stores blob at path, replacing any previous content, and returns its
// public URL.
func (s *BlobStore) Put(ctx context.Context, path string, blob *imaging.Blob, cacheControl string) (string, error) {
	path = strings.TrimLeft(path, "/")
	if path == "" || blob == nil || len(blob.Data) == 0 {
		return "", fmt.Errorf("storing blob %q: empty path or data", path)
	}

	query, args, err := sq.Replace("blobs").SetMap(map[string]any{
		"path":          path,
		"data":          blob.Data,
		"mime":          blob.MIME,
		"size":          len(blob.Data),
		"etag":          ETag(blob.Data),
		"cache_control": cacheControl,
		"created_at":    time.Now().UTC(),
	}).ToSql()
	if err != nil {
		return "", fmt.Errorf("building blob insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("storing blob %q: %w", path, err)
	}

	return s.URL(path), nil
}

// URL returns the public URL of a stored path.
func (s *BlobStore) URL(path string) string {
	segments := strings.Split(strings.TrimLeft(path, "/"), "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.publicURL + MediaPrefix + strings.Join(segments, "/")
}

// Get returns the blob at path, or nil if there is none.
func (s *BlobStore) Get(ctx context.Context, path string) (*StoredBlob, error) {
	query, args, err := sq.Select("path", "data", "mime", "etag", "cache_control", "created_at").
		From("blobs").Where(sq.Eq{"path": path}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building blob query: %w", err)
	}

	b := &StoredBlob{}
	err = s.db.QueryRowContext(ctx, query, args...).
		Scan(&b.Path, &b.Data, &b.MIME, &b.ETag, &b.CacheControl, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting blob: %w", err)
	}
	return b, nil
}

// Delete removes the blob at path. A missing blob is not an error.
func (s *BlobStore) Delete(ctx context.Context, path string) error {
	query, args, err := sq.Delete("blobs").Where(sq.Eq{"path": strings.TrimLeft(path, "/")}).ToSql()
	if err != nil {
		return fmt.Errorf("building blob delete: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting blob %q: %w", path, err)
	}
	return nil
}

// DeletePrefix removes every blob whose path starts with prefix and returns
// how many were removed.
func (s *BlobStore) DeletePrefix(ctx context.Context, prefix string) (int64, error) {
	if prefix == "" {
		return 0, fmt.Errorf("deleting blobs: empty prefix")
	}

	query, args, err := sq.Delete("blobs").
		Where("substr(path, 1, ?) = ?", len(prefix), prefix).ToSql()
	if err != nil {
		return 0, fmt.Errorf("building blob delete: %w", err)
	}
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting blobs: %w", err)
	}
	return result.RowsAffected()
}

// ETag returns a strong entity tag for data, derived from its BLAKE2b-256 digest.
func ETag(data []byte) string {
	sum := blake2b.Sum256(data)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// PathOf reverses URL. It reports false for URLs this store did not hand out,
// such as inline data URIs.
func (s *BlobStore) PathOf(rawURL string) (string, bool) {
	rest, ok := strings.CutPrefix(rawURL, s.publicURL+MediaPrefix)
	if !ok || rest == "" {
		return "", false
	}
	path, err := url.PathUnescape(rest)
	if err != nil {
		return "", false
	}
	return path, true
}
