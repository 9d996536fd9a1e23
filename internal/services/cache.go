package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// cacheEntry 缓存条目
type cacheEntry[T any] struct {
	Data      T         `json:"data"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileCache 文件缓存，每个 key 一个 JSON 文件
type FileCache[T any] struct {
	cacheDir string
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
}

// NewFileCache 创建文件缓存
func NewFileCache[T any](cacheDir string, ttl time.Duration) (*FileCache[T], error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}
	return &FileCache[T]{
		cacheDir: cacheDir,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// cacheFilePath 获取缓存文件路径
func (c *FileCache[T]) cacheFilePath(key string) string {
	return filepath.Join(c.cacheDir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Get 获取缓存数据，不存在或过期时 ok 为 false
func (c *FileCache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var zero T
	data, err := os.ReadFile(c.cacheFilePath(key))
	if err != nil {
		return zero, false
	}

	var entry cacheEntry[T]
	if err := json.Unmarshal(data, &entry); err != nil {
		return zero, false
	}

	// 检查是否过期
	if c.now().Sub(entry.UpdatedAt) > c.ttl {
		return zero, false
	}
	return entry.Data, true
}

// Set 设置缓存数据
func (c *FileCache[T]) Set(key string, value T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(cacheEntry[T]{Data: value, UpdatedAt: c.now()})
	if err != nil {
		return err
	}
	return os.WriteFile(c.cacheFilePath(key), data, 0644)
}
