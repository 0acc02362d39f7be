package hooks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rr "github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/wizard"
)

func payload() rr.Payload {
	st := rr.NewState(rr.DefaultSteps())
	st[rr.StepRun].Fields[rr.FieldRunNumber] = "R-77"
	return rr.BuildPayload("cq1abc", rr.DefaultSteps(), st)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Nil(t, cfg, "missing file means no hooks")

	yml := "version: 1\nhooks:\n  post_submit:\n    - command: echo hi\n      timeout: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(yml), 0o644))
	cfg, err = LoadConfig(dir)
	require.NoError(t, err)
	require.Len(t, cfg.Hooks.PostSubmit, 1)
	assert.Equal(t, "echo hi", cfg.Hooks.PostSubmit[0].Command)
	assert.Equal(t, 5, cfg.Hooks.PostSubmit[0].Timeout)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("hooks: ["), 0o644))
	_, err = LoadConfig(dir)
	assert.Error(t, err)
}

func TestExecute(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	vars := Variables{RunID: "cq1abc", RunNumber: "R-77"}

	tests := []struct {
		name     string
		hook     *HookConfig
		stdin    string
		expected string
		contains string
	}{
		{name: "nil hook", hook: nil, expected: ""},
		{name: "variables expanded", hook: &HookConfig{Command: "echo {{run_number}} {{run_id}}"}, expected: "R-77 cq1abc\n"},
		{name: "stdin passed", hook: &HookConfig{Command: "cat"}, stdin: `{"id":"x"}`, expected: `{"id":"x"}`},
		{name: "failure reported in output", hook: &HookConfig{Command: "echo oops >&2; exit 3"}, contains: "[Hook command failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Execute(ctx, tt.hook, dir, vars, []byte(tt.stdin))
			require.NoError(t, err)
			if tt.contains != "" {
				assert.Contains(t, out, tt.contains)
				return
			}
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestExecute_Timeout(t *testing.T) {
	out, err := Execute(context.Background(), &HookConfig{Command: "sleep 5", Timeout: 1}, t.TempDir(), Variables{}, nil)
	require.NoError(t, err)
	assert.Contains(t, out, "timed out after 1s")
}

func TestExecuteAll_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExecuteAll(ctx, []*HookConfig{{Command: "echo test", Timeout: 5}}, t.TempDir(), payload())
	assert.Error(t, err)
}

func TestSubmitter_RunsHooksAfterSuccess(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Hooks: HooksConfig{PostSubmit: []*HookConfig{
		{Command: "cat > submitted-{{run_number}}.json"},
	}}}

	var got rr.Payload
	next := wizard.SubmitFunc(func(_ context.Context, p rr.Payload) error {
		got = p
		return nil
	})

	sub := Wrap(next, cfg, dir)
	require.NoError(t, sub.Submit(context.Background(), payload()))
	assert.Equal(t, "cq1abc", got.ID)

	data, err := os.ReadFile(filepath.Join(dir, "submitted-R-77.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cq1abc"`)
}

func TestSubmitter_SkipsHooksOnFailure(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{Hooks: HooksConfig{PostSubmit: []*HookConfig{{Command: "touch ran"}}}}
	next := wizard.SubmitFunc(func(context.Context, rr.Payload) error { return errors.New("409") })

	err := Wrap(next, cfg, dir).Submit(context.Background(), payload())
	assert.EqualError(t, err, "409")
	assert.NoFileExists(t, filepath.Join(dir, "ran"))
}

func TestWrap_NoHooks(t *testing.T) {
	next := wizard.SubmitFunc(func(context.Context, rr.Payload) error { return nil })
	_, wrapped := Wrap(next, nil, "").(*Submitter)
	assert.False(t, wrapped)
}
