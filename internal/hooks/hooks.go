package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/runrecord"
)

// ConfigFileName is the name of the hooks configuration file.
const ConfigFileName = ".runwiz.hooks.yml"

// LoadConfig loads the hooks configuration from the working directory.
// Returns nil if the config file doesn't exist (hooks are optional).
// Returns an error only if the file exists but cannot be parsed.
func LoadConfig(workDir string) (*Config, error) {
	configPath := filepath.Join(workDir, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("No hooks config found at %s", configPath)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read hooks config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse hooks config: %w", err)
	}

	logger.Debug("Loaded hooks config from %s (version: %d)", configPath, cfg.Version)
	return &cfg, nil
}

// Variables holds the values expanded in hook commands.
type Variables struct {
	RunID     string
	RunNumber string
}

// VariablesFor extracts the hook variables from a submitted payload.
func VariablesFor(p runrecord.Payload) Variables {
	vars := Variables{RunID: p.ID}
	if v, ok := p.Get(runrecord.Ref(runrecord.StepRun, runrecord.FieldRunNumber)); ok {
		vars.RunNumber = runrecord.FormatValue(v)
	}
	return vars
}

// Execute runs a hook command with stdin as its input and returns its
// output. {{run_id}} and {{run_number}} are expanded first.
// A failing or timed-out command is reported in the output, not as an
// error; only cancellation of ctx is returned as an error.
func Execute(ctx context.Context, hook *HookConfig, workDir string, vars Variables, stdin []byte) (string, error) {
	if hook == nil || hook.Command == "" {
		return "", nil
	}

	command := expandVariables(hook.Command, vars)
	logger.Debug("Executing hook command: %s", command)

	timeout := hook.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	execCtx, cancel := context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
	defer cancel()

	cmd := exec.CommandContext(execCtx, "sh", "-c", command)
	cmd.Dir = workDir
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	if execCtx.Err() == context.DeadlineExceeded {
		logger.Warn("Hook command timed out after %ds: %s", timeout, command)
		return fmt.Sprintf("[Hook timed out after %ds]\nPartial output:\n%s", timeout, stdout.String()), nil
	}

	if err != nil {
		logger.Warn("Hook command failed: %v", err)
		output := stdout.String()
		if stderr.Len() > 0 {
			output += "\n[stderr]\n" + stderr.String()
		}
		return fmt.Sprintf("[Hook command failed: %v]\n%s", err, output), nil
	}

	output := stdout.String()
	if stderr.Len() > 0 {
		logger.Debug("Hook stderr: %s", stderr.String())
		output += "\n[stderr]\n" + stderr.String()
	}

	logger.Debug("Hook executed successfully, output length: %d bytes", len(output))
	return output, nil
}

// ExecuteAll runs hooks in order, each receiving the payload as JSON on
// stdin, and returns their outputs joined by blank lines.
func ExecuteAll(ctx context.Context, hooks []*HookConfig, workDir string, p runrecord.Payload) (string, error) {
	if len(hooks) == 0 {
		return "", nil
	}
	stdin, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling payload for hooks: %w", err)
	}
	vars := VariablesFor(p)

	var outputs []string
	for _, h := range hooks {
		out, err := Execute(ctx, h, workDir, vars, stdin)
		if err != nil {
			return strings.Join(outputs, "\n"), err
		}
		if out != "" {
			outputs = append(outputs, out)
		}
	}
	return strings.Join(outputs, "\n"), nil
}

func expandVariables(command string, vars Variables) string {
	return strings.NewReplacer(
		"{{run_id}}", vars.RunID,
		"{{run_number}}", vars.RunNumber,
	).Replace(command)
}
