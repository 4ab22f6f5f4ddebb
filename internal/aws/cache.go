package aws

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache stores AWS API responses as JSON files that expire after a TTL.
type FileCache struct {
	dir string
	ttl time.Duration
}

// NewFileCache creates a cache in dir. A ttl of zero disables reads.
func NewFileCache(dir string, ttl time.Duration) *FileCache {
	return &FileCache{dir: dir, ttl: ttl}
}

// Get decodes a cached value into dest if it exists and hasn't expired.
func (fc *FileCache) Get(key string, dest any) bool {
	if fc == nil {
		return false
	}
	path := fc.path(key)
	info, err := os.Stat(path)
	if err != nil || time.Since(info.ModTime()) >= fc.ttl {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

// Set stores a value. Readers never observe a partially written file.
func (fc *FileCache) Set(key string, value any) error {
	if fc == nil {
		return nil
	}
	if err := os.MkdirAll(fc.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshaling cache value: %w", err)
	}

	tmp, err := os.CreateTemp(fc.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing cache file: %w", err)
	}
	return os.Rename(tmp.Name(), fc.path(key))
}

// Clear removes all cached data.
func (fc *FileCache) Clear() error {
	entries, err := os.ReadDir(fc.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, e := range entries {
		if err := os.Remove(filepath.Join(fc.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// cacheKey joins parts into a file-safe key. Long keys are hashed.
func cacheKey(parts ...string) string {
	key := strings.Join(parts, "_")
	if len(key) <= 64 && !strings.ContainsAny(key, `/\:*?"<>| `) {
		return key
	}
	sum := sha256.Sum256([]byte(key))
	return parts[0] + "_" + hex.EncodeToString(sum[:8])
}

func (fc *FileCache) path(key string) string {
	return filepath.Join(fc.dir, key+".json")
}
