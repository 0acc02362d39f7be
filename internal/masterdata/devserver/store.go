// Package devserver is a local stand-in for the master-data and run
// submission API. It keeps everything in memory and is seeded from YAML.
package devserver

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/drillrun/runwiz/internal/dependency"
	rr "github.com/drillrun/runwiz/internal/runrecord"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrUnknownTier = errors.New("unknown tier")
	ErrDuplicate   = errors.New("run_number already exists")
	ErrNoRunNumber = errors.New("run_number is required")
)

// MasterKinds are the tiers editable through the master-data endpoints.
var MasterKinds = []string{"customers", "wells", "rigs", "services"}

// Record is one selectable option. Parent is the id of the option it
// depends on, empty for root tiers.
type Record struct {
	ID     string `json:"id" yaml:"id"`
	Label  string `json:"label" yaml:"label"`
	Parent string `json:"parent,omitempty" yaml:"parent,omitempty"`
}

// Run is an accepted submission.
type Run struct {
	ID         string     `json:"id"`
	Key        string     `json:"idempotency_key"`
	RunNumber  string     `json:"run_number"`
	Payload    rr.Payload `json:"payload"`
	ReceivedAt time.Time  `json:"received_at"`
}

// Store holds options and runs.
type Store struct {
	mu      sync.RWMutex
	options map[string][]Record
	taken   map[string]bool
	runs    []Run
	byKey   map[string]int
}

// NewStore builds a store from seed.
func NewStore(seed Seed) *Store {
	s := &Store{
		options: make(map[string][]Record, len(seed.Options)),
		taken:   make(map[string]bool),
		byKey:   make(map[string]int),
	}
	for tier, recs := range seed.Options {
		s.options[tier] = slices.Clone(recs)
	}
	for _, k := range MasterKinds {
		if _, ok := s.options[k]; !ok {
			s.options[k] = nil
		}
	}
	for _, n := range seed.RunNumbers {
		s.taken[n] = true
	}
	return s
}

// Options returns the records of tier whose parent is parent.
func (s *Store) Options(tier, parent string) ([]dependency.Option, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, ok := s.options[tier]
	if !ok {
		return nil, ErrUnknownTier
	}
	out := []dependency.Option{}
	for _, r := range recs {
		if r.Parent == parent {
			out = append(out, dependency.Option{ID: r.ID, Label: r.Label})
		}
	}
	return out, nil
}

// Exists reports whether a run number is taken.
func (s *Store) Exists(runNumber string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.taken[runNumber]
}

// AddRun records a submission. A repeated idempotency key returns the
// run recorded the first time with created false.
func (s *Store) AddRun(key string, p rr.Payload) (Run, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == "" {
		key = p.ID
	}
	if i, ok := s.byKey[key]; ok && key != "" {
		return s.runs[i], false, nil
	}

	v, _ := p.Get(rr.Ref(rr.StepRun, rr.FieldRunNumber))
	num := rr.FormatValue(v)
	if num == "" {
		return Run{}, false, ErrNoRunNumber
	}
	if s.taken[num] {
		return Run{}, false, ErrDuplicate
	}

	run := Run{
		ID:         uuid.NewString(),
		Key:        key,
		RunNumber:  num,
		Payload:    p,
		ReceivedAt: time.Now().UTC(),
	}
	s.taken[num] = true
	s.runs = append(s.runs, run)
	if key != "" {
		s.byKey[key] = len(s.runs) - 1
	}
	return run, true, nil
}

// Runs returns every accepted run in arrival order.
func (s *Store) Runs() []Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.runs)
}

// List returns every record of a master kind.
func (s *Store) List(kind string) ([]Record, error) {
	if !slices.Contains(MasterKinds, kind) {
		return nil, ErrUnknownTier
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Record{}, s.options[kind]...), nil
}

// Create adds a record to a master kind, generating an id when empty.
func (s *Store) Create(kind string, r Record) (Record, error) {
	if !slices.Contains(MasterKinds, kind) {
		return Record{}, ErrUnknownTier
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options[kind] = append(s.options[kind], r)
	return r, nil
}

// Delete removes a record from a master kind.
func (s *Store) Delete(kind, id string) error {
	if !slices.Contains(MasterKinds, kind) {
		return ErrUnknownTier
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.options[kind]
	i := slices.IndexFunc(recs, func(r Record) bool { return r.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	s.options[kind] = slices.Delete(recs, i, i+1)
	return nil
}
