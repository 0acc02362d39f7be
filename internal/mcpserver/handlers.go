package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/wizard"
)

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool("run-state",
			mcp.WithDescription("Show the run being entered: every step, field value, option list state and outstanding problem"),
			mcp.WithString("step",
				mcp.Description("Only show this step (run, location, depth, survey, tieon, review)"),
			),
		),
		s.handleRunState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("run-update",
			mcp.WithDescription("Set field values on one step. Derived fields are read-only; an empty string clears a field"),
			mcp.WithString("step", mcp.Required(),
				mcp.Description("Step to update"),
			),
			mcp.WithObject("fields", mcp.Required(),
				mcp.Description("Field name to value, e.g. {\"run_number\": \"R-12\"}"),
			),
		),
		s.handleRunUpdate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("run-navigate",
			mcp.WithDescription("Move between wizard steps"),
			mcp.WithString("action", mcp.Required(),
				mcp.Enum("next", "prev", "jump"),
				mcp.Description("next, prev, or jump to the given step"),
			),
			mcp.WithString("step",
				mcp.Description("Target step for jump"),
			),
		),
		s.handleRunNavigate,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("run-submit",
			mcp.WithDescription("Submit the run. Fails with the list of problems if anything is missing, invalid or still validating"),
		),
		s.handleRunSubmit,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("run-cancel",
			mcp.WithDescription("Discard the run and its saved draft"),
			mcp.WithBoolean("confirm", mcp.Required(),
				mcp.Description("Must be true; the draft cannot be recovered"),
			),
		),
		s.handleRunCancel,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("run-options",
			mcp.WithDescription("List the selectable options of a dependent field"),
			mcp.WithString("field", mcp.Required(),
				mcp.Description("Field reference as step.field, e.g. run.well"),
			),
			mcp.WithBoolean("reload",
				mcp.Description("Retry loading a list that failed"),
			),
		),
		s.handleRunOptions,
	)
}

// handleRunState returns the session snapshot as JSON.
func (s *Server) handleRunState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	step := ""
	if args := request.GetArguments(); args != nil {
		step, _ = args["step"].(string)
	}

	var snap wizard.Snapshot
	if err := s.host.View(ctx, func(c *wizard.Controller) { snap = c.Snapshot() }); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if step != "" {
		for _, sv := range snap.Steps {
			if string(sv.ID) == step {
				return jsonResult(sv)
			}
		}
		return mcp.NewToolResultError(fmt.Sprintf("unknown step %q", step)), nil
	}
	return jsonResult(snap)
}

// handleRunUpdate applies a partial update to one step.
func (s *Server) handleRunUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}

	step, ok := args["step"].(string)
	if !ok || step == "" {
		return mcp.NewToolResultError("missing or invalid 'step' parameter"), nil
	}
	fields, ok := args["fields"].(map[string]any)
	if !ok {
		return mcp.NewToolResultError("'fields' is not an object"), nil
	}
	if len(fields) == 0 {
		return mcp.NewToolResultError("at least one field is required"), nil
	}

	var view wizard.StepView
	err := s.host.Do(ctx, func(c *wizard.Controller) (tea.Cmd, error) {
		cmd, err := c.UpdateStep(runrecord.StepID(step), fields)
		if err != nil {
			return nil, err
		}
		view = stepView(c.Snapshot(), runrecord.StepID(step))
		return cmd, nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(view)
}

// handleRunNavigate moves the cursor.
func (s *Server) handleRunNavigate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}

	action, _ := args["action"].(string)
	target, _ := args["step"].(string)

	var current runrecord.StepID
	err := s.host.Do(ctx, func(c *wizard.Controller) (tea.Cmd, error) {
		var (
			cmd tea.Cmd
			err error
		)
		switch action {
		case "next":
			cmd = c.Advance()
		case "prev":
			cmd = c.Retreat()
		case "jump":
			if target == "" {
				return nil, errors.New("jump needs a 'step'")
			}
			cmd, err = c.Jump(runrecord.StepID(target))
		default:
			return nil, fmt.Errorf("unknown action %q (want next, prev or jump)", action)
		}
		current = c.Current()
		return cmd, err
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Now on step %s", current)), nil
}

// handleRunSubmit submits and waits for the outcome.
func (s *Server) handleRunSubmit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.waitMu.Lock()
	defer s.waitMu.Unlock()
	s.drainEvents()

	err := s.host.Do(ctx, func(c *wizard.Controller) (tea.Cmd, error) {
		return c.Submit(s.submitter)
	})
	var incomplete *wizard.IncompleteError
	if errors.As(err, &incomplete) {
		return mcp.NewToolResultError(incomplete.Error()), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	ev, err := s.await(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submission outcome unknown: %v", err)), nil
	}
	switch ev := ev.(type) {
	case wizard.SubmittedMsg:
		return mcp.NewToolResultText(fmt.Sprintf("Run %s submitted", ev.Payload.ID)), nil
	case wizard.SubmitFailedMsg:
		return mcp.NewToolResultError(fmt.Sprintf("submission failed: %v", ev.Err)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unexpected outcome %T", ev)), nil
	}
}

// handleRunCancel discards the session when confirmed.
func (s *Server) handleRunCancel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	confirm := false
	if args := request.GetArguments(); args != nil {
		confirm, _ = args["confirm"].(bool)
	}
	if !confirm {
		return mcp.NewToolResultText("Cancel not confirmed; the run is kept"), nil
	}

	s.waitMu.Lock()
	defer s.waitMu.Unlock()
	s.drainEvents()

	yes := wizard.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
	finished := false
	if err := s.host.Do(ctx, func(c *wizard.Controller) (tea.Cmd, error) {
		finished = c.Finished()
		return c.Cancel(yes), nil
	}); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if finished {
		return mcp.NewToolResultText("Nothing to discard"), nil
	}

	ev, err := s.await(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cancel outcome unknown: %v", err)), nil
	}
	if _, ok := ev.(wizard.CancelledMsg); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unexpected outcome %T", ev)), nil
	}
	return mcp.NewToolResultText("Run discarded"), nil
}

// handleRunOptions reports the option list of a dependent field.
func (s *Server) handleRunOptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}

	raw, _ := args["field"].(string)
	ref, err := runrecord.ParseFieldRef(raw)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	reload, _ := args["reload"].(bool)

	var (
		view  wizard.FieldView
		found bool
	)
	err = s.host.Do(ctx, func(c *wizard.Controller) (tea.Cmd, error) {
		_, found = c.Options(ref)
		if !found {
			return nil, nil
		}
		var cmd tea.Cmd
		if reload {
			cmd = c.Reload(ref)
		}
		view = c.Field(ref)
		return cmd, nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("%s has no option list", ref)), nil
	}

	if len(view.Choices) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s: %s, no options", ref, view.Options)), nil
	}
	lines := []string{fmt.Sprintf("%s: %s", ref, view.Options)}
	for _, o := range view.Choices {
		lines = append(lines, fmt.Sprintf("  %s: %s", o.ID, o.Label))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) await(ctx context.Context) (tea.Msg, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	select {
	case ev := <-s.host.Events():
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// drainEvents drops outcomes nobody waited for, such as the result of a
// submission whose caller timed out.
func (s *Server) drainEvents() {
	for {
		select {
		case ev := <-s.host.Events():
			log.Debug("dropping stale wizard event %T", ev)
		default:
			return
		}
	}
}

func stepView(snap wizard.Snapshot, step runrecord.StepID) wizard.StepView {
	for _, sv := range snap.Steps {
		if sv.ID == step {
			return sv
		}
	}
	return wizard.StepView{ID: step}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
