package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"printguard/internal/history"
)

var historyLimit int

// historyCmd lists recent check runs from the history store.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent check runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.History.Enabled {
			return fmt.Errorf("history is disabled; enable it in %s or set PRINTGUARD_HISTORY_PATH", cfgPath)
		}

		store, err := history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Recent(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no recorded runs")
			return nil
		}

		for _, r := range runs {
			status := "ok"
			if r.Findings > 0 {
				status = fmt.Sprintf("%d finding(s)", r.Findings)
			}
			fmt.Printf("%s  %-40s %d site(s)  %s\n",
				r.CheckedAt.Format(time.RFC3339), r.File, r.Sites, status)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to list")
}
