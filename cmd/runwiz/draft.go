package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"

	"github.com/drillrun/runwiz/internal/draft"
	"github.com/drillrun/runwiz/internal/logger"
	"github.com/drillrun/runwiz/internal/runrecord"
	"github.com/drillrun/runwiz/internal/tui"
	"github.com/drillrun/runwiz/internal/wizard"
)

var draftFlags struct {
	yes bool
}

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Inspect or manage the saved draft",
}

var draftShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved draft as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDraftStore(cmd, func(store draft.Store) error {
			blob, err := store.Load(cmd.Context(), cfg.DraftKey)
			if errors.Is(err, draft.ErrNotFound) {
				fmt.Println("No saved draft.")
				return nil
			}
			if err != nil {
				return err
			}
			d, err := draft.Decode(blob, steps())
			if err != nil {
				return err
			}
			out, err := draft.Encode(d)
			if err != nil {
				return err
			}
			return tui.HighlightJSON(os.Stdout, string(out)+"\n")
		})
	},
}

var draftClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the saved draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !draftFlags.yes {
			return fmt.Errorf("refusing to discard the draft without --yes")
		}
		return withDraftStore(cmd, func(store draft.Store) error {
			if err := store.Clear(cmd.Context(), cfg.DraftKey); err != nil {
				return err
			}
			fmt.Println("Draft cleared.")
			return nil
		})
	},
}

var draftEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit the saved draft in $EDITOR",
	Long: `Open the saved draft in $EDITOR. The edited draft is checked against the
current step layout and saved only if it still decodes; the change is shown
as a diff.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDraftStore(cmd, func(store draft.Store) error {
			return runDraftEdit(cmd, store)
		})
	},
}

func init() {
	draftClearCmd.Flags().BoolVarP(&draftFlags.yes, "yes", "y", false, "Confirm discarding the draft")
	draftCmd.AddCommand(draftShowCmd)
	draftCmd.AddCommand(draftClearCmd)
	draftCmd.AddCommand(draftEditCmd)
}

// steps is the layout drafts are checked against.
func steps() runrecord.Descriptor {
	return wizard.DefaultCatalog(cfg.ClassificationCutoff).Steps
}

func withDraftStore(cmd *cobra.Command, fn func(draft.Store) error) error {
	store, closeStore, err := draft.Open(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("Closing draft store: %v", err)
		}
	}()
	return fn(store)
}

func runDraftEdit(cmd *cobra.Command, store draft.Store) error {
	ctx := cmd.Context()
	before, err := store.Load(ctx, cfg.DraftKey)
	if errors.Is(err, draft.ErrNotFound) {
		return fmt.Errorf("no saved draft to edit")
	}
	if err != nil {
		return err
	}

	tmpfile, err := os.CreateTemp("", "runwiz_draft_*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()
	if _, err := tmpfile.Write(before); err != nil {
		_ = tmpfile.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmpfile.Close(); err != nil {
		return err
	}

	edit, err := editor.Command("runwiz", tmpfile.Name())
	if err != nil {
		return fmt.Errorf("no editor available: %w", err)
	}
	edit.Stdin, edit.Stdout, edit.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := edit.Run(); err != nil {
		return fmt.Errorf("editor exited: %w", err)
	}

	after, err := os.ReadFile(tmpfile.Name())
	if err != nil {
		return err
	}
	if bytes.Equal(bytes.TrimSpace(before), bytes.TrimSpace(after)) {
		fmt.Println("No changes.")
		return nil
	}
	if _, err := draft.Decode(after, steps()); err != nil {
		return fmt.Errorf("edited draft rejected, nothing saved: %w", err)
	}

	_, _ = fmt.Fprintln(tui.ColorWriter(os.Stdout), tui.RenderDiff(string(before), string(after)))
	if err := store.Save(ctx, cfg.DraftKey, after); err != nil {
		return err
	}
	fmt.Println("Draft saved.")
	return nil
}
