package codonopt

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

// resultsBucket holds solved results keyed by checkpointKey
var resultsBucket = []byte("results")

// Checkpoint stores solved sequences so an interrupted batch can resume
// without solving them again.
type Checkpoint struct {
	db *bolt.DB
}

// OpenCheckpoint opens or creates a checkpoint database.
func OpenCheckpoint(path string) (*Checkpoint, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint %s: %w", path, err)
	}
	return &Checkpoint{db: db}, nil
}

// Close releases the database. A nil checkpoint is a no-op.
func (c *Checkpoint) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// checkpointKey identifies a solve by everything that determines its result.
// tables is the Fingerprint of the organism's statistics, so a rebuilt
// organism does not reuse results of its old tables.
func checkpointKey(organism, tables string, m Method, threshold float64, hash string) []byte {
	return []byte(fmt.Sprintf("%s|%s|%s|%g|%s", m, organism, tables, threshold, hash))
}

// Load returns the stored result for key, or nil if there is none.
func (c *Checkpoint) Load(key []byte) (*Result, error) {
	if c == nil {
		return nil, nil
	}

	var data []byte
	err := c.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(resultsBucket)
		if b == nil {
			return nil
		}
		if v := b.Get(key); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}

	r := &Result{}
	if err = json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint %s: %w", key, err)
	}
	return r, nil
}

// Save stores a result under key.
func (c *Checkpoint) Save(key []byte, r *Result) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(resultsBucket)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}
