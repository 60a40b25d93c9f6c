package pattern

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"understudy/model"
)

// Store holds the three learned pattern mappings: movement transitions,
// resource-type preferences, and combat-ability usage. Writers run only at
// session-stop boundaries; Predict-path readers take snapshot copies, so a
// read/write lock is enough.
type Store struct {
	mu        sync.RWMutex
	movement  map[string]*Stats
	resources map[string]*Stats
	combat    map[string]*Stats
}

func NewStore() *Store {
	return &Store{
		movement:  make(map[string]*Stats),
		resources: make(map[string]*Stats),
		combat:    make(map[string]*Stats),
	}
}

// MoveKey serializes an ordered position pair as a movement transition key.
func MoveKey(from, to model.Point) string {
	return fmt.Sprintf("%d,%d->%d,%d", from.X, from.Y, to.X, to.Y)
}

// ParseMoveKey is the inverse of MoveKey. ok is false for keys that don't
// match the format, which load tolerates by keeping the entry as-is (the key
// only needs to be stable, not parseable, for scoring).
func ParseMoveKey(key string) (from, to model.Point, ok bool) {
	n, err := fmt.Sscanf(key, "%d,%d->%d,%d", &from.X, &from.Y, &to.X, &to.Y)
	return from, to, err == nil && n == 4
}

// UpdateMovement folds one observation into the movement transition entry,
// creating it on first sight.
func (st *Store) UpdateMovement(key string, successRate, elapsed float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.update(st.movement, key, successRate, elapsed)
}

// UpdateResource folds one observation into the resource-type entry.
// Gathering contributes no elapsed time.
func (st *Store) UpdateResource(resourceType string, successRate float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.update(st.resources, resourceType, successRate, 0)
}

// UpdateCombat folds one observation into the combat-ability entry.
func (st *Store) UpdateCombat(ability string, successRate float64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.update(st.combat, ability, successRate, 0)
}

func (st *Store) update(m map[string]*Stats, key string, successRate, elapsed float64) {
	s, ok := m[key]
	if !ok {
		s = &Stats{}
		m[key] = s
	}
	s.Update(successRate, elapsed)
}

// Entry is a snapshot of one keyed Stats value.
type Entry struct {
	Key   string
	Stats Stats
}

// Movement returns a sorted-key copy of the movement mapping. Sorted
// enumeration keeps selector scoring deterministic across runs.
func (st *Store) Movement() []Entry { return st.entries(st.movement) }

// Resources returns a sorted-key copy of the resource-preference mapping.
func (st *Store) Resources() []Entry { return st.entries(st.resources) }

// Combat returns a sorted-key copy of the combat-ability mapping.
func (st *Store) Combat() []Entry { return st.entries(st.combat) }

func (st *Store) entries(m map[string]*Stats) []Entry {
	st.mu.RLock()
	defer st.mu.RUnlock()

	out := make([]Entry, 0, len(m))
	for k, s := range m {
		out = append(out, Entry{Key: k, Stats: *s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Len reports the entry counts of the three mappings.
func (st *Store) Len() (movement, resources, combat int) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.movement), len(st.resources), len(st.combat)
}

// document is the persisted JSON shape.
type document struct {
	Movement  map[string]*Stats `json:"movement"`
	Resources map[string]*Stats `json:"resources"`
	Combat    map[string]*Stats `json:"combat"`
}

// Save writes the pattern document, creating parent directories as needed.
func (st *Store) Save(path string) error {
	st.mu.RLock()
	doc := document{
		Movement:  st.movement,
		Resources: st.resources,
		Combat:    st.combat,
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	st.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal patterns: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create pattern dir: %w", err)
		}
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write patterns: %w", err)
	}
	return nil
}

// Load replaces the store contents with the persisted document. Load is
// tolerant by contract: a missing file means a fresh start, and a malformed
// or unreadable file is logged and treated as empty. Neither is fatal.
func (st *Store) Load(path string) {
	payload, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("pattern document unreadable, starting empty", "path", path, "error", err)
		}
		return
	}

	var doc document
	if err := json.Unmarshal(payload, &doc); err != nil {
		slog.Warn("pattern document malformed, starting empty", "path", path, "error", err)
		return
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	st.movement = nonNil(doc.Movement)
	st.resources = nonNil(doc.Resources)
	st.combat = nonNil(doc.Combat)
	slog.Info("loaded learned patterns",
		"path", path,
		"movement", len(st.movement),
		"resources", len(st.resources),
		"combat", len(st.combat),
	)
}

func nonNil(m map[string]*Stats) map[string]*Stats {
	if m == nil {
		return make(map[string]*Stats)
	}
	for k, s := range m {
		if s == nil {
			delete(m, k)
		}
	}
	return m
}
