// Package history persists advisor decisions so jobs can be audited
// and replayed. Entries live in a single-file bbolt database keyed by
// creation time, which keeps listing in chronological order without a
// separate index.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/piwi3910/cnc-toolpath/internal/logger"
	"github.com/piwi3910/cnc-toolpath/internal/model"
)

var bucketAdvice = []byte("advice")

// keyTimeLayout is fixed width so lexicographic key order matches
// chronological order.
const keyTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry is one recorded advisor run.
type Entry struct {
	ID        string                 `json:"id"`
	CreatedAt time.Time              `json:"created_at"`
	JobName   string                 `json:"job_name"`
	ModelName string                 `json:"model_name"`
	Source    string                 `json:"source"`
	Post      string                 `json:"post"`
	Features  []float64              `json:"features,omitempty"`
	Decision  model.StrategyDecision `json:"decision"`
	Notes     string                 `json:"notes,omitempty"`
}

// Store is an append-only advice history database.
type Store struct {
	db *bbolt.DB
}

// Open opens (or creates) the history database at path, creating
// parent directories as needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAdvice)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare history database: %w", err)
	}

	return &Store{db: db}, nil
}

// Append stores one entry and returns it with the ID and timestamp
// filled in when the caller left them empty. Timestamps are normalized
// to UTC.
func (s *Store) Append(entry Entry) (Entry, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	} else {
		entry.CreatedAt = entry.CreatedAt.UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode history entry: %w", err)
	}

	key := entry.CreatedAt.Format(keyTimeLayout) + "|" + entry.ID
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketAdvice).Put([]byte(key), data)
	})
	if err != nil {
		return Entry{}, fmt.Errorf("failed to store history entry: %w", err)
	}

	logger.Log.Debug("advice recorded",
		zap.String("id", entry.ID),
		zap.String("job", entry.JobName),
		zap.String("source", entry.Source))
	return entry, nil
}

// List returns entries newest first. A limit of zero or less returns
// everything.
func (s *Store) List(limit int) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketAdvice).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("failed to decode history entry %s: %w", k, err)
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketAdvice).Stats().KeyN
		return nil
	})
	return n, err
}

// Close releases the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}
