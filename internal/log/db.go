package log

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var logsBucket = []byte("logs")

// maxEntries bounds the persisted ring buffer, matching the teacher's
// maxRows eviction in pkg/log/db.go (there backed by sqlite, here by
// bbolt) — every insert past this count evicts the oldest entry.
const maxEntries = 20000

// Store persists a Logger's feed into a bbolt-backed ring buffer, so a
// crash or restart doesn't lose recent diagnostics. Keys are bbolt's
// auto-incrementing sequence number, so insertion order and key order
// coincide.
type Store struct {
	db *bolt.DB
}

// OpenStore opens (creating if necessary) the log database at path.
func OpenStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open log db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(logsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create log bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Run persists every Entry from ch until it closes. Meant to be driven
// from a Logger.Subscribe feed in its own goroutine.
func (s *Store) Run(ch <-chan Entry) {
	for e := range ch {
		if err := s.insert(e); err != nil {
			fmt.Printf("log store: %v\n", err)
		}
	}
}

func (s *Store) insert(e Entry) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(logsBucket)

		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal entry: %w", err)
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		if err := b.Put(seqKey(seq), data); err != nil {
			return err
		}

		return evictOldest(b, maxEntries)
	})
}

func evictOldest(b *bolt.Bucket, keep int) error {
	n := b.Stats().KeyN
	if n <= keep {
		return nil
	}
	c := b.Cursor()
	for k, _ := c.First(); k != nil && n > keep; k, _ = c.Next() {
		if err := c.Delete(); err != nil {
			return err
		}
		n--
	}
	return nil
}

func seqKey(seq uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], seq)
	return k[:]
}

// Recent returns up to limit of the most recently inserted entries,
// oldest first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	var out []Entry
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(logsBucket)
		c := b.Cursor()
		var all []Entry
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
			}
			all = append(all, e)
		}
		if len(all) > limit {
			all = all[len(all)-limit:]
		}
		out = all
		return nil
	})
	return out, err
}
