package draft

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drillrun/runwiz/internal/config"
	"github.com/drillrun/runwiz/internal/nats"
	"github.com/drillrun/runwiz/internal/runrecord"
)

func sampleDraft() Draft {
	steps := runrecord.DefaultSteps()
	st := runrecord.NewState(steps)
	st[runrecord.StepRun] = runrecord.Slot{Fields: runrecord.Fields{
		runrecord.FieldRunNumber:   "R-100",
		runrecord.FieldHoleSection: "hs-12",
	}}
	st[runrecord.StepDepth] = runrecord.Slot{
		Fields:  runrecord.Fields{runrecord.FieldIntervalFrom: 1000.0, runrecord.FieldIntervalTo: 5000.0},
		Derived: runrecord.Fields{runrecord.FieldIntervalLength: 4000.0},
	}
	return Draft{ID: NewID(), Steps: steps, Cursor: 2, Slots: st}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	d := sampleDraft()

	blob, err := Encode(d)
	require.NoError(t, err)

	back, err := Decode(blob, runrecord.DefaultSteps())
	require.NoError(t, err)
	assert.Equal(t, Version, back.Version)
	assert.Equal(t, d.ID, back.ID)
	assert.Equal(t, d.Cursor, back.Cursor)
	assert.Equal(t, d.Slots, back.Slots)
	assert.False(t, back.SavedAt.IsZero())
}

func TestDecode_Incompatible(t *testing.T) {
	steps := runrecord.DefaultSteps()
	good := sampleDraft()

	mutate := func(f func(m map[string]any)) []byte {
		blob, err := Encode(good)
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(blob, &m))
		f(m)
		out, err := json.Marshal(m)
		require.NoError(t, err)
		return out
	}

	tests := []struct {
		name string
		blob []byte
	}{
		{"garbage", []byte("{not json")},
		{"old version", mutate(func(m map[string]any) { m["version"] = 0 })},
		{"other steps", mutate(func(m map[string]any) { m["steps"] = []string{"run", "review"} })},
		{"cursor past end", mutate(func(m map[string]any) { m["cursor"] = 6 })},
		{"negative cursor", mutate(func(m map[string]any) { m["cursor"] = -1 })},
		{"unknown slot", mutate(func(m map[string]any) {
			m["slots"].(map[string]any)["casing"] = map[string]any{"fields": map[string]any{}}
		})},
		{"review slot", mutate(func(m map[string]any) {
			m["slots"].(map[string]any)["review"] = map[string]any{"fields": map[string]any{}}
		})},
		{"missing id", mutate(func(m map[string]any) { delete(m, "id") })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.blob, steps)
			assert.ErrorIs(t, err, ErrIncompatible)
		})
	}
}

func TestDecode_FillsMissingSlots(t *testing.T) {
	d := sampleDraft()
	d.Slots = runrecord.State{runrecord.StepRun: {Fields: runrecord.Fields{runrecord.FieldRunName: "x"}}}
	blob, err := Encode(d)
	require.NoError(t, err)

	back, err := Decode(blob, runrecord.DefaultSteps())
	require.NoError(t, err)
	assert.Len(t, back.Slots, 5)
	assert.NotNil(t, back.Slots[runrecord.StepTieOn].Fields)
}

func TestPersister_DropsOlderRevisions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p := NewPersister(store, "run-wizard")

	require.NoError(t, p.Save(ctx, 0, 2, []byte("newer")))
	assert.ErrorIs(t, p.Save(ctx, 0, 1, []byte("older")), ErrStale)

	blob, ok, err := p.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("newer"), blob)
	assert.Equal(t, 1, store.Saves())
}

func TestPersister_ClearInvalidatesEarlierSaves(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	p := NewPersister(store, "run-wizard")

	epoch := p.Epoch()
	require.NoError(t, p.Save(ctx, epoch, 1, []byte("one")))

	require.NoError(t, p.Clear(ctx))
	assert.ErrorIs(t, p.Save(ctx, epoch, 2, []byte("late")), ErrStale)

	_, ok, err := p.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "a late save must not resurrect the draft")

	require.NoError(t, p.Save(ctx, p.Epoch(), 3, []byte("two")))
	blob, ok, err := p.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("two"), blob)
}

// exerciseStore runs the Store contract against s.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Load(ctx, "run-wizard")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Save(ctx, "run-wizard", []byte(`{"a":1}`)))
	require.NoError(t, s.Save(ctx, "run-wizard", []byte(`{"a":2}`)))
	blob, err := s.Load(ctx, "run-wizard")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":2}`, string(blob))

	require.NoError(t, s.Clear(ctx, "run-wizard"))
	_, err = s.Load(ctx, "run-wizard")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Clear(ctx, "run-wizard"), "clearing twice is harmless")
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	exerciseStore(t, s)
	assert.Equal(t, 2, s.Saves())
	assert.Equal(t, 2, s.Clears())
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "drafts")
	s := NewFileStore(dir)
	exerciseStore(t, s)
	assert.Equal(t, filepath.Join(dir, "k.json"), s.Path("k"))
}

func TestSQLiteStore(t *testing.T) {
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "drafts.db"))
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestKVStore(t *testing.T) {
	e, err := nats.Start(t.TempDir())
	require.NoError(t, err)
	defer e.Close()

	kv, err := e.DraftBucket(context.Background())
	require.NoError(t, err)
	exerciseStore(t, NewKVStore(kv))
}

func TestOpen_Backends(t *testing.T) {
	ctx := context.Background()
	for _, backend := range []string{config.BackendMemory, config.BackendFile, config.BackendSQLite, config.BackendNATS} {
		t.Run(backend, func(t *testing.T) {
			cfg := config.Default()
			cfg.DataDir = t.TempDir()
			cfg.DraftBackend = backend

			s, closeFn, err := Open(ctx, cfg)
			require.NoError(t, err)
			defer func() { assert.NoError(t, closeFn()) }()

			require.NoError(t, s.Save(ctx, cfg.DraftKey, []byte("{}")))
			blob, err := s.Load(ctx, cfg.DraftKey)
			require.NoError(t, err)
			assert.Equal(t, []byte("{}"), blob)
		})
	}

	cfg := config.Default()
	cfg.DraftBackend = "redis"
	_, closeFn, err := Open(ctx, cfg)
	assert.Error(t, err)
	assert.NotNil(t, closeFn)
}
