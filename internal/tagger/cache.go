package tagger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Increment when cachePayload changes.
const cacheSchemaVersion uint16 = 1

// Cache keeps tagger output on disk, keyed by model and text, and calls
// the wrapped Tagger only on a miss. Safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	dir   string
	model string
	next  Tagger
}

type cachePayload struct {
	Schema uint16
	Model  string
	Text   string
	CoNLLU string
	Stored int64
}

// DefaultCacheDir returns $XDG_CACHE_HOME/<app>, or ~/.cache/<app>.
func DefaultCacheDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// NewCache wraps next with a disk cache in dir. model is part of every key,
// so output of different models never mixes.
func NewCache(dir, model string, next Tagger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, model: model, next: next}, nil
}

// Tag returns cached output for text or tags it and stores the result.
// A failed store is logged, not returned.
func (c *Cache) Tag(ctx context.Context, text string) (string, error) {
	key := c.key(text)
	var p cachePayload
	ok, err := c.get(key, &p)
	if err != nil {
		slog.Warn("tagger cache: unreadable entry, re-tagging", "key", key, "err", err)
	}
	if ok && p.Schema == cacheSchemaVersion && p.Model == c.model && p.Text == text {
		return p.CoNLLU, nil
	}

	out, err := c.next.Tag(ctx, text)
	if err != nil {
		return "", err
	}
	err = c.put(key, &cachePayload{
		Schema: cacheSchemaVersion,
		Model:  c.model,
		Text:   text,
		CoNLLU: out,
		Stored: time.Now().Unix(),
	})
	if err != nil {
		slog.Warn("tagger cache: store failed", "key", key, "err", err)
	}
	return out, nil
}

func (c *Cache) key(text string) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) pathFor(key string) string {
	return filepath.Join(c.dir, "conllu", key[:2], key+".mp")
}

func (c *Cache) put(key string, payload *cachePayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), p)
}

func (c *Cache) get(key string, out *cachePayload) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, err
	}
	return true, nil
}

// Drop removes every cached entry.
func (c *Cache) Drop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := filepath.Join(c.dir, "conllu.old-"+time.Now().Format("20060102150405"))
	if err := os.Rename(filepath.Join(c.dir, "conllu"), old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}
