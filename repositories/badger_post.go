package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
	"timeline/errors"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/multierr"
)

const (
	schemaVersion     = 1
	sequenceBandwidth = 100

	idPrefix        = "post:id:"
	timestampPrefix = "idx:post:ts:"
)

var (
	schemaKey   = []byte("meta:schema")
	sequenceKey = []byte("seq:post")
)

// BadgerPostRepository stores every post twice: once under its id for
// read-back, once under a time ordered key for the timeline scan.
type BadgerPostRepository struct {
	db  *badger.DB
	log *slog.Logger
	now func() time.Time

	initOnce sync.Once
	initErr  error

	// mu serializes id allocation with timestamp assignment so that both
	// orders agree for posts written by this process.
	mu   sync.Mutex
	seq  *badger.Sequence
	last time.Time
}

func NewBadgerPostRepository(db *badger.DB, log *slog.Logger) *BadgerPostRepository {
	return &BadgerPostRepository{db: db, log: log, now: time.Now}
}

// OpenBadgerPostRepository opens the Badger directory described by options.
// The returned repository owns the handle and closes it on Close.
func OpenBadgerPostRepository(options badger.Options, log *slog.Logger) (*BadgerPostRepository, error) {
	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("badger open %s: %w", options.Dir, err)
	}
	return NewBadgerPostRepository(db, log), nil
}

func (r *BadgerPostRepository) Init(_ context.Context) error {
	r.initOnce.Do(func() {
		r.initErr = r.init()
	})
	return r.initErr
}

func (r *BadgerPostRepository) init() error {
	version := []byte(strconv.Itoa(schemaVersion))
	err := r.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(schemaKey)
		if err == badger.ErrKeyNotFound {
			return txn.Set(schemaKey, version)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if string(val) != string(version) {
				return fmt.Errorf("%w: found %q, want %q", errors.ErrSchemaVersion, val, version)
			}
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("badger schema: %w", err)
	}

	seq, err := r.db.GetSequence(sequenceKey, sequenceBandwidth)
	if err != nil {
		return fmt.Errorf("badger sequence: %w", err)
	}
	r.mu.Lock()
	r.seq = seq
	r.mu.Unlock()
	r.log.Debug("Badger post store ready", "schema_version", schemaVersion)
	return nil
}

// StorePost allocates the next id from a Badger sequence. Ids leased but not
// used before a restart are skipped, never reused.
func (r *BadgerPostRepository) StorePost(ctx context.Context, post NewPost) (DiskPost, error) {
	if err := r.Init(ctx); err != nil {
		return DiskPost{}, err
	}
	if err := ctx.Err(); err != nil {
		return DiskPost{}, err
	}

	stored, err := r.insert(post)
	if err != nil {
		return DiskPost{}, err
	}
	return r.getPost(stored.ID)
}

func (r *BadgerPostRepository) insert(post NewPost) (DiskPost, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.seq == nil {
		return DiskPost{}, fmt.Errorf("badger sequence released")
	}
	next, err := r.seq.Next()
	if err != nil {
		return DiskPost{}, fmt.Errorf("allocate post id: %w", err)
	}

	at := r.now().UTC()
	if at.Before(r.last) {
		at = r.last
	}
	stored := DiskPost{
		ID:        int64(next) + 1,
		Author:    post.Author,
		Content:   post.Content,
		Timestamp: at,
	}
	value := marshalPost(stored)

	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(idKey(stored.ID), value); err != nil {
			return err
		}
		return txn.Set(timestampKey(stored.Timestamp, stored.ID), value)
	})
	if err != nil {
		return DiskPost{}, fmt.Errorf("store post %d: %w", stored.ID, err)
	}
	r.last = at
	return stored, nil
}

func (r *BadgerPostRepository) getPost(id int64) (DiskPost, error) {
	var post DiskPost
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(idKey(id))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: id %d", errors.ErrPostNotFound, id)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			post, err = unmarshalPost(val)
			return err
		})
	})
	return post, err
}

// GetPosts walks the timestamp index backwards. Keys embed the zero padded
// timestamp then the zero padded id, so reverse byte order is timestamp
// descending with id descending on ties.
func (r *BadgerPostRepository) GetPosts(ctx context.Context, limit int) ([]DiskPost, error) {
	limit = effectiveLimit(limit)
	posts := make([]DiskPost, 0)

	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(timestampPrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		options.Prefix = prefix
		it := txn.NewIterator(options)
		defer it.Close()

		// 0xff sorts after every digit, so the seek lands on the newest key.
		seekKey := append([]byte(timestampPrefix), 0xff)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if len(posts) == limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d posts reached", limit))
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			err := it.Item().Value(func(val []byte) error {
				post, err := unmarshalPost(val)
				if err != nil {
					return err
				}
				posts = append(posts, post)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *BadgerPostRepository) Ping(_ context.Context) error {
	if r.db.IsClosed() {
		return fmt.Errorf("badger is closed")
	}
	return r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(schemaKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// Close releases the unused part of the id lease and closes Badger.
func (r *BadgerPostRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.seq != nil {
		err = multierr.Append(err, r.seq.Release())
		r.seq = nil
	}
	if !r.db.IsClosed() {
		err = multierr.Append(err, r.db.Close())
	}
	return err
}

func idKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", idPrefix, id))
}

func timestampKey(at time.Time, id int64) []byte {
	return []byte(fmt.Sprintf("%s%019d:%020d", timestampPrefix, at.UnixNano(), id))
}
