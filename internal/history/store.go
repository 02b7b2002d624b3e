// Package history keeps the list of recently played tracks.
package history

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/tessro/encore/internal/core"
)

var historyBucket = []byte("history")

// DefaultMaxEntries is the number of entries kept on disk.
const DefaultMaxEntries = 500

// Store is a bbolt-backed history of played tracks, newest first, with at
// most one entry per track.
type Store struct {
	db         *bbolt.DB
	maxEntries int
	now        func() time.Time
}

// Open opens or creates the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("could not create history directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open history database: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(historyBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create history bucket: %w", err)
	}

	return &Store{db: db, maxEntries: DefaultMaxEntries, now: time.Now}, nil
}

// historyKey sorts chronologically: zero-padded nanoseconds, then the id.
func historyKey(t time.Time, trackID string) []byte {
	return []byte(fmt.Sprintf("%020d:%s", t.UnixNano(), trackID))
}

func keyTrackID(key []byte) []byte {
	_, id, _ := bytes.Cut(key, []byte(":"))
	return id
}

func deleteTrack(b *bbolt.Bucket, trackID string) error {
	c := b.Cursor()
	id := []byte(trackID)
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		if bytes.Equal(keyTrackID(k), id) {
			return c.Delete()
		}
	}
	return nil
}

func prune(b *bbolt.Bucket, max int) error {
	if max <= 0 {
		return nil
	}
	c := b.Cursor()
	n := 0
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		n++
	}
	excess := n - max
	for k, _ := c.First(); k != nil && excess > 0; k, _ = c.First() {
		if err := c.Delete(); err != nil {
			return err
		}
		excess--
	}
	return nil
}

// Add records a play. An earlier entry for the same track is replaced.
// A zero PlayedAt is set to the current time.
func (s *Store) Add(entry core.HistoryEntry) error {
	if entry.Track.ID == "" {
		return fmt.Errorf("history entry has no track id")
	}
	if entry.PlayedAt.IsZero() {
		entry.PlayedAt = s.now()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(historyBucket)

		if err := deleteTrack(b, entry.Track.ID); err != nil {
			return err
		}

		value, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("error serializing history entry: %w", err)
		}
		if err := b.Put(historyKey(entry.PlayedAt, entry.Track.ID), value); err != nil {
			return err
		}
		return prune(b, s.maxEntries)
	})
}

// Recent returns up to limit entries, newest first. A limit of zero or
// less returns every entry.
func (s *Store) Recent(limit int) ([]core.HistoryEntry, error) {
	var entries []core.HistoryEntry

	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(historyBucket).Cursor()
		for k, v := c.Last(); k != nil && (limit <= 0 || len(entries) < limit); k, v = c.Prev() {
			var entry core.HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("error deserializing history entry: %w", err)
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Clear removes every entry.
func (s *Store) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(historyBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(historyBucket)
		return err
	})
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
