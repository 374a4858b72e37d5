// Package cache memoises parsed inputs on disk so that repeated conversions
// of an unchanged ODX or PDX file skip parsing and resolution.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"diagconv/internal/diag"
	"diagconv/internal/ir"
	"diagconv/internal/payload"
)

// Increment when Entry or the payload layout changes shape.
const schemaVersion uint16 = 2

// Key is the sha256 of an input and the options that shaped its parse.
type Key [sha256.Size]byte

func (k Key) String() string { return hex.EncodeToString(k[:]) }

// KeyFor hashes the input bytes together with the format, resolver mode and
// audience list. Audience order does not matter to the resolver, but the
// caller passes them as given; the list is hashed as is.
func KeyFor(data []byte, format, mode string, audiences []string) Key {
	h := sha256.New()
	h.Write(data)
	fmt.Fprintf(h, "\x00%s\x00%s\x00%s", format, mode, strings.Join(audiences, "\x1f"))
	var k Key
	h.Sum(k[:0])
	return k
}

// Entry is what a cache file holds. The database travels as its
// FlatBuffers payload, the same bytes an MDD container would carry.
type Entry struct {
	Schema   uint16
	Payload  []byte
	Warnings []Warning
}

type Warning struct {
	Severity uint8
	Code     uint16
	Subject  string
	Message  string
}

// Cache is a directory of msgpack files named by key. A nil *Cache is a
// valid, always-missing cache.
type Cache struct {
	mu  sync.RWMutex
	dir string
}

// DefaultDir is $XDG_CACHE_HOME/diagconv, falling back to ~/.cache/diagconv.
func DefaultDir() (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, "diagconv"), nil
}

// Open uses dir, or DefaultDir when dir is empty.
func Open(dir string) (*Cache, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: %w", err)
	}
	return &Cache{dir: dir}, nil
}

func (c *Cache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

// два уровня каталогов, чтобы не держать тысячи файлов в одном
func (c *Cache) pathFor(k Key) string {
	s := k.String()
	return filepath.Join(c.dir, s[:2], s+".mp")
}

// Put stores db and its parse warnings under k. The file is written to a
// temporary name and renamed into place.
func (c *Cache) Put(k Key, db *ir.DiagDatabase, warnings *diag.Bag) (err error) {
	if c == nil {
		return nil
	}
	entry := Entry{Schema: schemaVersion, Payload: payload.ToPayload(db)}
	for _, d := range warnings.Items() {
		entry.Warnings = append(entry.Warnings, Warning{Severity: uint8(d.Severity), Code: uint16(d.Code), Subject: d.Subject, Message: d.Message})
	}
	data, err := msgpack.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	p := c.pathFor(k)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("cache: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err = os.Rename(f.Name(), p); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// Get returns the cached database for k. A missing entry, or one written by
// another schema version, is a miss with a nil error.
func (c *Cache) Get(k Key, maxWarnings int) (*ir.DiagDatabase, *diag.Bag, bool, error) {
	if c == nil {
		return nil, nil, false, nil
	}
	c.mu.RLock()
	data, err := os.ReadFile(c.pathFor(k))
	c.mu.RUnlock()
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("cache: %w", err)
	}
	var entry Entry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		return nil, nil, false, fmt.Errorf("cache entry %s: %w", k, err)
	}
	if entry.Schema != schemaVersion {
		return nil, nil, false, nil
	}
	db, _, err := payload.FromPayload(entry.Payload)
	if err != nil {
		return nil, nil, false, fmt.Errorf("cache entry %s: %w", k, err)
	}
	bag := diag.NewBag(maxWarnings)
	for _, w := range entry.Warnings {
		bag.Add(diag.New(diag.Severity(w.Severity), diag.Code(w.Code), w.Subject, w.Message))
	}
	return db, bag, true, nil
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		errs = append(errs, os.RemoveAll(filepath.Join(c.dir, e.Name())))
	}
	return errors.Join(errs...)
}
