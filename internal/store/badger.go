package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/justyntemme/shelf/internal/debug"
	"github.com/justyntemme/shelf/internal/logging"
)

// Key prefixes
const (
	prefPrefix  = "pref/"
	grantPrefix = "grant/"
)

// Badger stores preferences and grants in a BadgerDB key space.
type Badger struct {
	mu sync.RWMutex
	db *badger.DB
}

// OpenBadger opens (or creates) a database in dir.
func OpenBadger(dir string) (*Badger, error) {
	if dir == "" {
		return nil, fmt.Errorf("store: badger requires a directory")
	}
	return openBadger(badger.DefaultOptions(dir))
}

// OpenMemory opens an in-memory badger database; nothing is persisted.
func OpenMemory() (*Badger, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*Badger, error) {
	opts = opts.
		WithLogger(badgerLogger{logging.L().Named("badger").Sugar()}).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: open badger at %q: %w", opts.Dir, err)
	}
	debug.Log(debug.STORE, "Badger opened (dir=%q in-memory=%v)", opts.Dir, opts.InMemory)
	return &Badger{db: db}, nil
}

func (b *Badger) handle() (*badger.DB, error) {
	if b.db == nil {
		return nil, ErrClosed
	}
	return b.db, nil
}

func (b *Badger) get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	db, err := b.handle()
	if err != nil {
		return "", false, err
	}

	var value string
	found := true
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("store: get %s: %w", key, err)
	}
	return value, found, nil
}

func (b *Badger) put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	db, err := b.handle()
	if err != nil {
		return err
	}
	if err := db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	}); err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	return nil
}

func (b *Badger) del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	db, err := b.handle()
	if err != nil {
		return err
	}
	if err := db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("store: delete %s: %w", key, err)
	}
	return nil
}

func (b *Badger) Get(ctx context.Context, key string) (string, bool, error) {
	return b.get(ctx, prefPrefix+key)
}

func (b *Badger) Set(ctx context.Context, key, value string) error {
	debug.Log(debug.STORE, "Set %s=%s", key, value)
	return b.put(ctx, prefPrefix+key, value)
}

func (b *Badger) Delete(ctx context.Context, key string) error {
	return b.del(ctx, prefPrefix+key)
}

func (b *Badger) AddGrant(ctx context.Context, treeURI string) error {
	debug.Log(debug.STORE, "AddGrant %s", treeURI)
	return b.put(ctx, grantPrefix+treeURI, "1")
}

func (b *Badger) RevokeGrant(ctx context.Context, treeURI string) error {
	return b.del(ctx, grantPrefix+treeURI)
}

func (b *Badger) HasGrant(ctx context.Context, treeURI string) (bool, error) {
	_, ok, err := b.get(ctx, grantPrefix+treeURI)
	return ok, err
}

// ListGrants returns granted tree URIs in key order.
func (b *Badger) ListGrants(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	db, err := b.handle()
	if err != nil {
		return nil, err
	}

	var out []string
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(grantPrefix)
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			out = append(out, strings.TrimPrefix(string(it.Item().Key()), grantPrefix))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store: list grants: %w", err)
	}
	sort.Strings(out)
	return out, nil
}

func (b *Badger) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

// badgerLogger routes badger's logging through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.s.Errorf(strings.TrimSpace(f), v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.s.Warnf(strings.TrimSpace(f), v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.s.Infof(strings.TrimSpace(f), v...) }
func (l badgerLogger) Debugf(f string, v ...interface{})   { l.s.Debugf(strings.TrimSpace(f), v...) }
