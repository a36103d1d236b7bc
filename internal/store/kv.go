// Package store keeps arbor session records in a bbolt database.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"
)

// Buckets
var (
	BucketSessions = []byte("sessions") // session name -> SessionRecord JSON
	BucketMeta     = []byte("meta")     // misc workspace values
)

// ErrSessionNotFound is returned when no record exists for a session name.
var ErrSessionNotFound = errors.New("session not found")

// SessionRecord lists the snapshot hashes that make up a session's history.
// Hashes are hex strings of objects in the workspace CAS.
type SessionRecord struct {
	Name      string    `json:"name"`
	Past      []string  `json:"past"`   // oldest first
	Present   string    `json:"present"`
	Future    []string  `json:"future"` // most recently undone first
	UpdatedAt time.Time `json:"updated_at"`
}

type DB struct{ *bbolt.DB }

func Open(path string) (*DB, error) {
	db, err := bbolt.Open(path, 0666, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	// Ensure buckets exist
	if err := db.Update(func(tx *bbolt.Tx) error {
		if _, e := tx.CreateBucketIfNotExists(BucketSessions); e != nil {
			return e
		}
		if _, e := tx.CreateBucketIfNotExists(BucketMeta); e != nil {
			return e
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db}, nil
}

func (db *DB) Close() error { return db.DB.Close() }

// PutSession stores rec under rec.Name, stamping UpdatedAt.
func (db *DB) PutSession(rec SessionRecord) error {
	if rec.Name == "" {
		return errors.New("session name cannot be empty")
	}
	rec.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session %s: %w", rec.Name, err)
	}
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketSessions).Put([]byte(rec.Name), data)
	})
}

// GetSession loads the record for name.
func (db *DB) GetSession(name string) (SessionRecord, error) {
	var rec SessionRecord
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketSessions).Get([]byte(name))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, name)
		}
		// v is only valid inside the transaction; Unmarshal copies what it keeps.
		return json.Unmarshal(v, &rec)
	})
	return rec, err
}

// ListSessions returns all session names in key order.
func (db *DB) ListSessions() ([]string, error) {
	var names []string
	err := db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketSessions).ForEach(func(k, v []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// DeleteSession removes a session record. Snapshot objects stay in the CAS.
func (db *DB) DeleteSession(name string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(BucketSessions)
		if b.Get([]byte(name)) == nil {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, name)
		}
		return b.Delete([]byte(name))
	})
}

// PutMeta stores a workspace value.
func (db *DB) PutMeta(key, value string) error {
	return db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(BucketMeta).Put([]byte(key), []byte(value))
	})
}

// GetMeta retrieves a workspace value by key.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(BucketMeta).Get([]byte(key))
		if v == nil {
			return errors.New("meta key not found")
		}
		value = string(v)
		return nil
	})
	return value, err
}
