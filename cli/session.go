package cli

import (
	"fmt"
	"os"

	"github.com/javanhut/arbor/internal/archive"
	"github.com/javanhut/arbor/internal/config"
	"github.com/javanhut/arbor/internal/history"
	"github.com/javanhut/arbor/internal/names"
	"github.com/javanhut/arbor/internal/tree"
)

// metaCurrentSession is the workspace meta key set by `arbor sessions use`.
const metaCurrentSession = "current_session"

// session is one loaded editing session: the live store, its history and the
// archive they were loaded from.
type session struct {
	name    string
	cfg     *config.Config
	archive *archive.Archive
	store   *tree.Store
	history *history.Manager
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openArchive() (*archive.Archive, error) {
	if _, err := os.Stat(workspaceDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("not in an arbor workspace (no %s directory found, run 'arbor init')", workspaceDir)
	}
	a, err := archive.Open(workspaceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	return a, nil
}

// resolveSessionName picks --session, then the workspace's current session,
// then core.session from config.
func resolveSessionName(a *archive.Archive, cfg *config.Config) string {
	if sessionName != "" {
		return sessionName
	}
	if name, err := a.DB().GetMeta(metaCurrentSession); err == nil && name != "" {
		return name
	}
	return cfg.Core.Session
}

// openSession loads the active session from the workspace archive.
func openSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := openArchive()
	if err != nil {
		return nil, err
	}

	name := resolveSessionName(a, cfg)
	st, mgr, err := a.Load(name, cfg.Core.HistoryLimit)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to load session %q: %w", name, err)
	}

	return &session{
		name:    name,
		cfg:     cfg,
		archive: a,
		store:   st,
		history: mgr,
	}, nil
}

// commit records the store's contents as a new history state and saves.
func (s *session) commit() error {
	s.history.PushNewState(s.store)
	return s.save()
}

func (s *session) save() error {
	if err := s.archive.Save(s.name, s.history); err != nil {
		return fmt.Errorf("failed to save session %q: %w", s.name, err)
	}
	return nil
}

func (s *session) Close() error {
	return s.archive.Close()
}

// mustGet returns the item or a user facing error.
func (s *session) mustGet(text string) (tree.Item, error) {
	id, ok := s.store.Resolve(text)
	if !ok {
		return tree.Item{}, fmt.Errorf("no item with id %q", text)
	}
	item, _ := s.store.GetItem(id)
	return item, nil
}

// parent resolves a parent argument; "-" is the root parent.
func (s *session) parent(text string) (tree.ID, error) {
	if text == rootParent || text == "" {
		return tree.Root, nil
	}
	id, ok := s.store.Resolve(text)
	if !ok {
		return tree.Root, fmt.Errorf("no item with id %q to use as parent", text)
	}
	return id, nil
}

// states returns every history state, oldest first.
func (s *session) states() []history.Snapshot {
	state := s.history.State()
	all := append([]history.Snapshot(nil), state.Past...)
	if state.Present != nil {
		all = append(all, *state.Present)
	}
	return append(all, state.Future...)
}

// findState resolves a state name or hash prefix. Identical states share a
// hash, so several matches with the same hash are not ambiguous.
func (s *session) findState(name string) (history.Snapshot, error) {
	var match *history.Snapshot
	all := s.states()
	for i := range all {
		if !names.Matches(name, all[i].Hash()) {
			continue
		}
		if match != nil && match.Hash() != all[i].Hash() {
			return history.Snapshot{}, fmt.Errorf("%q matches more than one state, give more of the hash", name)
		}
		match = &all[i]
	}
	if match == nil {
		return history.Snapshot{}, fmt.Errorf("no state named %q in session %s", name, s.name)
	}
	return *match, nil
}
