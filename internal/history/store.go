// Package history keeps summaries of past runs in a bbolt database so
// separate invocations can be compared after the fact.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/paladin223/mit-service/internal/stats"
)

const bucketRuns = "runs"

type Entry struct {
	ID        string        `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
	Kind      string        `json:"kind"`
	Target    string        `json:"target"`
	Summary   stats.Summary `json:"summary"`
}

func NewEntry(kind, target string, s stats.Summary) Entry {
	return Entry{
		ID:        uuid.New().String(),
		Timestamp: time.Now(),
		Kind:      kind,
		Target:    target,
		Summary:   s,
	}
}

type Store struct {
	db *bbolt.DB
}

// DefaultPath is $HOME/.mitload/history.db, falling back to the
// working directory when the home dir cannot be resolved.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "mitload-history.db"
	}
	return filepath.Join(home, ".mitload", "history.db")
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Save(e Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))

		data, err := json.Marshal(e)
		if err != nil {
			return err
		}

		// Keys sort by time so List can walk the cursor backwards.
		key := fmt.Sprintf("%d_%s", e.Timestamp.UnixNano(), e.ID)
		return b.Put([]byte(key), data)
	})
}

// List returns entries newest-first.
func (s *Store) List() ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))
		c := b.Cursor()

		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				continue
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
