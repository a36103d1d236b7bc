// Package archive persists history managers between arbor invocations.
//
// Every snapshot of a session is written to a content-addressed object store
// under the BLAKE3 hash of its canonical encoding; a bbolt record per session
// lists those hashes in past/present/future order. Identical snapshots across
// sessions are stored once.
//
// Layout under the archive directory:
//
//	arbor.db     session records
//	objects/     zstd-compressed snapshot objects
package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/javanhut/arbor/internal/cas"
	"github.com/javanhut/arbor/internal/history"
	"github.com/javanhut/arbor/internal/store"
	"github.com/javanhut/arbor/internal/tree"
)

const (
	dbFileName  = "arbor.db"
	objectsName = "objects"
)

// ErrNotInitialized is returned by Save for a manager without a present state.
var ErrNotInitialized = errors.New("history manager has no present state")

// Archive stores session histories.
type Archive struct {
	db      *store.DB
	objects cas.CAS
}

// Open opens (creating if needed) the archive in dir.
func Open(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	objects, err := cas.NewFileCAS(filepath.Join(dir, objectsName))
	if err != nil {
		return nil, err
	}
	db, err := store.Open(filepath.Join(dir, dbFileName))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return New(db, objects), nil
}

// New wraps an already opened database and object store.
func New(db *store.DB, objects cas.CAS) *Archive {
	return &Archive{db: db, objects: objects}
}

// Close closes the session database.
func (a *Archive) Close() error {
	return a.db.Close()
}

// DB exposes the session database for workspace metadata.
func (a *Archive) DB() *store.DB {
	return a.db
}

// Save writes every snapshot of m and records the session under name.
func (a *Archive) Save(name string, m *history.Manager) error {
	state := m.State()
	if state.Present == nil {
		return ErrNotInitialized
	}

	rec := store.SessionRecord{Name: name}
	for _, snap := range state.Past {
		h, err := a.putSnapshot(snap)
		if err != nil {
			return err
		}
		rec.Past = append(rec.Past, h.String())
	}
	h, err := a.putSnapshot(*state.Present)
	if err != nil {
		return err
	}
	rec.Present = h.String()
	for _, snap := range state.Future {
		h, err := a.putSnapshot(snap)
		if err != nil {
			return err
		}
		rec.Future = append(rec.Future, h.String())
	}

	if err := a.db.PutSession(rec); err != nil {
		return fmt.Errorf("save session %s: %w", name, err)
	}
	return nil
}

// Load rebuilds the history of a saved session together with a store holding
// its present state.
func (a *Archive) Load(name string, limit int) (*tree.Store, *history.Manager, error) {
	rec, err := a.db.GetSession(name)
	if err != nil {
		return nil, nil, err
	}

	var state history.State
	if state.Past, err = a.loadAll(rec.Past); err != nil {
		return nil, nil, err
	}
	if state.Future, err = a.loadAll(rec.Future); err != nil {
		return nil, nil, err
	}
	present, err := a.loadHex(rec.Present)
	if err != nil {
		return nil, nil, err
	}
	state.Present = &present

	return tree.New(present.Items()), history.Resume(state, limit), nil
}

// Exists reports whether a session record exists.
func (a *Archive) Exists(name string) (bool, error) {
	_, err := a.db.GetSession(name)
	if errors.Is(err, store.ErrSessionNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Sessions lists saved session names.
func (a *Archive) Sessions() ([]string, error) {
	return a.db.ListSessions()
}

// Delete forgets a session. Its snapshot objects are kept.
func (a *Archive) Delete(name string) error {
	return a.db.DeleteSession(name)
}

// Snapshot loads a single stored snapshot.
func (a *Archive) Snapshot(h cas.Hash) (history.Snapshot, error) {
	data, err := a.objects.Get(h)
	if err != nil {
		return history.Snapshot{}, err
	}
	snap, err := history.ParseSnapshot(data)
	if err != nil {
		return history.Snapshot{}, fmt.Errorf("snapshot %s: %w", h.Short(), err)
	}
	return snap, nil
}

func (a *Archive) putSnapshot(snap history.Snapshot) (cas.Hash, error) {
	data := snap.CanonicalBytes()
	h := cas.SumB3(data)

	has, err := a.objects.Has(h)
	if err != nil {
		return h, err
	}
	if has {
		return h, nil
	}
	if err := a.objects.Put(h, data); err != nil {
		return h, fmt.Errorf("store snapshot %s: %w", h.Short(), err)
	}
	return h, nil
}

func (a *Archive) loadHex(s string) (history.Snapshot, error) {
	h, err := cas.ParseHash(s)
	if err != nil {
		return history.Snapshot{}, err
	}
	return a.Snapshot(h)
}

func (a *Archive) loadAll(hashes []string) ([]history.Snapshot, error) {
	out := make([]history.Snapshot, 0, len(hashes))
	for _, s := range hashes {
		snap, err := a.loadHex(s)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}
