package main

import (
	"fmt"
	"maps"
	"slices"
	"strconv"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/drillrun/runwiz/internal/masterdata"
	"github.com/drillrun/runwiz/internal/tui/theme"
	"github.com/drillrun/runwiz/internal/wizard"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Check the master-data API by loading every root option list",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := masterdata.NewClient(cfg.APIURL, cfg.APITimeout)
		sources := wizard.DefaultCatalog(cfg.ClassificationCutoff).Sources()

		lists, err := masterdata.FetchAll(cmd.Context(), client, sources)
		if err != nil {
			return err
		}

		t := theme.Current()
		tbl := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color(t.FgMuted))).
			Headers("SOURCE", "OPTIONS", "FIRST")
		for _, src := range slices.Sorted(maps.Keys(lists)) {
			first := "-"
			if opts := lists[src]; len(opts) > 0 {
				first = opts[0].Label
			}
			tbl.Row(src, strconv.Itoa(len(lists[src])), first)
		}
		fmt.Println(tbl.String())
		return nil
	},
}
