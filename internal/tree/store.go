// Package tree implements the loom data layer: a set of branching documents
// (trees of text nodes) with strict parent/child invariants, navigation, and
// automatic persistence of the whole state after every mutation.
//
// A Store is not safe for concurrent use. All calls must be serialized by the
// caller; the session package does this with a single writer goroutine.
//
// Lookups return deep copies. Operations addressing a missing tree or node are
// silent no-ops (or return nil/false) so callers can act on possibly stale ids.
package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"loom/internal/logging"

	"github.com/google/uuid"
)

// DefaultStorageName is the blob name the snapshot is persisted under.
const DefaultStorageName = "loom-trees"

var (
	// ErrTreeNotFound is returned by ExportTree for an unknown tree id.
	ErrTreeNotFound = errors.New("tree not found")
	// ErrInvalidTree wraps every ingest rejection (parse or invariant failure).
	ErrInvalidTree = errors.New("invalid tree")
)

// Persister is the durable storage collaborator: a named blob store.
// Read returns (nil, nil) when nothing has been written yet.
type Persister interface {
	Read(name string) ([]byte, error)
	Write(name string, data []byte) error
}

// Store owns every Tree and Node.
type Store struct {
	trees        map[string]*Tree
	order        []string // tree ids in insertion order
	activeTreeID string

	persister   Persister
	storageName string
	persistErr  error

	now   func() int64
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithPersister makes every mutation write the snapshot to p.
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithStorageName overrides DefaultStorageName.
func WithStorageName(name string) Option {
	return func(s *Store) { s.storageName = name }
}

// WithClock overrides the millisecond clock.
func WithClock(now func() int64) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the uuid generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore returns an empty store. Call Rehydrate to load persisted state.
func NewStore(opts ...Option) *Store {
	s := &Store{
		trees:       make(map[string]*Tree),
		storageName: DefaultStorageName,
		now:         func() int64 { return time.Now().UnixMilli() },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rehydrate replaces in-memory state with the persisted snapshot. A missing
// blob leaves the store empty. Trees that fail validation are dropped.
func (s *Store) Rehydrate() error {
	if s.persister == nil {
		return nil
	}

	timer := logging.StartTimer(logging.CategoryTree, "Rehydrate")
	defer timer.Stop()

	data, err := s.persister.Read(s.storageName)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if data == nil {
		logging.Tree("No persisted snapshot %q, starting empty", s.storageName)
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if snap.Version > SnapshotVersion {
		return fmt.Errorf("snapshot version %d is newer than supported %d", snap.Version, SnapshotVersion)
	}

	s.trees = make(map[string]*Tree, len(snap.Trees))
	s.order = s.order[:0]
	for id, t := range snap.Trees {
		if err := ValidateTree(t); err != nil {
			logging.TreeWarn("Dropping persisted tree %s: %v", id, err)
			continue
		}
		if t.ID != id {
			logging.TreeWarn("Dropping persisted tree %s: key does not match id %s", id, t.ID)
			continue
		}
		s.trees[id] = t
		s.order = append(s.order, id)
	}

	// Map order is lost on the wire; creation time approximates insertion order.
	sort.Slice(s.order, func(i, j int) bool {
		a, b := s.trees[s.order[i]], s.trees[s.order[j]]
		if a.Created != b.Created {
			return a.Created < b.Created
		}
		return a.ID < b.ID
	})

	s.activeTreeID = snap.ActiveTreeID
	if _, ok := s.trees[s.activeTreeID]; !ok {
		s.activeTreeID = s.firstTreeID()
	}

	logging.Tree("Rehydrated %d trees (active=%s)", len(s.trees), s.activeTreeID)
	return nil
}

// Snapshot returns a deep copy of the persisted portion of the state.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version:      SnapshotVersion,
		Trees:        make(map[string]*Tree, len(s.trees)),
		ActiveTreeID: s.activeTreeID,
	}
	for id, t := range s.trees {
		snap.Trees[id] = t.Clone()
	}
	return snap
}

// PersistError returns the error from the most recent failed write, or nil
// once a later write succeeds.
func (s *Store) PersistError() error {
	return s.persistErr
}

// commit re-serializes the full snapshot after a mutation. Write failures are
// logged and recorded but never undo the in-memory change.
func (s *Store) commit(op string) {
	if s.persister == nil {
		return
	}
	data, err := json.Marshal(Snapshot{
		Version:      SnapshotVersion,
		Trees:        s.trees,
		ActiveTreeID: s.activeTreeID,
	})
	if err != nil {
		s.persistErr = fmt.Errorf("failed to marshal snapshot: %w", err)
		logging.StoreError("%s: %v", op, s.persistErr)
		return
	}
	if err := s.persister.Write(s.storageName, data); err != nil {
		s.persistErr = err
		logging.StoreError("%s: failed to persist snapshot: %v", op, err)
		return
	}
	s.persistErr = nil
	logging.StoreDebug("%s: persisted snapshot (%d bytes)", op, len(data))
}

func (s *Store) firstTreeID() string {
	if len(s.order) == 0 {
		return ""
	}
	return s.order[0]
}

func (s *Store) insertTree(t *Tree) {
	if _, exists := s.trees[t.ID]; !exists {
		s.order = append(s.order, t.ID)
	}
	s.trees[t.ID] = t
	s.activeTreeID = t.ID
}

// CreateTree creates a tree holding one empty root node, makes it active and
// returns its id. An empty name becomes "Untitled".
func (s *Store) CreateTree(name string) string {
	if name == "" {
		name = "Untitled"
	}
	now := s.now()
	rootID := s.newID()
	t := &Tree{
		ID:     s.newID(),
		Name:   name,
		RootID: rootID,
		Nodes: map[string]*Node{
			rootID: {ID: rootID, Children: []string{}, Created: now, Modified: now},
		},
		CurrentNodeID: rootID,
		Created:       now,
		Modified:      now,
	}
	s.insertTree(t)
	logging.Tree("Created tree %s (%q)", t.ID, name)
	s.commit("CreateTree")
	return t.ID
}

// LoadTree inserts or overwrites a fully formed tree and makes it active.
// The tree is validated and copied; the caller keeps no reference into the store.
func (s *Store) LoadTree(t *Tree) error {
	if err := ValidateTree(t); err != nil {
		return err
	}
	s.insertTree(t.Clone())
	logging.Tree("Loaded tree %s (%d nodes)", t.ID, len(t.Nodes))
	s.commit("LoadTree")
	return nil
}

// DeleteTree removes a tree. If it was active, focus moves to the earliest
// inserted remaining tree, or to none.
func (s *Store) DeleteTree(treeID string) {
	if _, ok := s.trees[treeID]; !ok {
		return
	}
	delete(s.trees, treeID)
	for i, id := range s.order {
		if id == treeID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.activeTreeID == treeID {
		s.activeTreeID = s.firstTreeID()
	}
	logging.Tree("Deleted tree %s", treeID)
	s.commit("DeleteTree")
}

// SetActiveTree focuses a tree. Unknown ids are ignored so focus never dangles.
func (s *Store) SetActiveTree(treeID string) {
	if _, ok := s.trees[treeID]; !ok || s.activeTreeID == treeID {
		return
	}
	s.activeTreeID = treeID
	s.commit("SetActiveTree")
}

// ActiveTreeID returns the focused tree id, or "" when there are no trees.
func (s *Store) ActiveTreeID() string {
	return s.activeTreeID
}

// UpdateTreeName renames a tree.
func (s *Store) UpdateTreeName(treeID, name string) {
	t, ok := s.trees[treeID]
	if !ok {
		return
	}
	t.Name = name
	t.Modified = s.now()
	s.commit("UpdateTreeName")
}

// GetTree returns a copy of the tree, or nil.
func (s *Store) GetTree(treeID string) *Tree {
	t, ok := s.trees[treeID]
	if !ok {
		return nil
	}
	return t.Clone()
}

// ListTrees summarizes all trees in insertion order.
func (s *Store) ListTrees() []Summary {
	out := make([]Summary, 0, len(s.order))
	for _, id := range s.order {
		t := s.trees[id]
		out = append(out, Summary{
			ID:        t.ID,
			Name:      t.Name,
			NodeCount: len(t.Nodes),
			Created:   t.Created,
			Modified:  t.Modified,
			Active:    t.ID == s.activeTreeID,
		})
	}
	return out
}
