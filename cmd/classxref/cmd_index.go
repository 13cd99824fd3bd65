package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/dhamidi/classxref/index"
	"github.com/dhamidi/classxref/scan"
	"github.com/dhamidi/classxref/xref"
)

func newIndexCmd() *cobra.Command {
	var showErrors bool

	cmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Index a directory, jar, zip or class file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := index.Open(cfg.DB)
			if err != nil {
				return err
			}
			defer store.Close()

			scanner, err := newScanner(store)
			if err != nil {
				return err
			}
			stats, err := scanner.Run(cmd.Context(), args[0])
			if stats != nil {
				printStats(cmd, stats, showErrors)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&showErrors, "errors", false, "list every unit that failed")

	return cmd
}

func newScanner(store *index.Store) (*scan.Scanner, error) {
	return scan.New(xref.NewAnalyzer(cfg.URLPrefix), store, cfg.Workers, cfg.CacheSize)
}

func printStats(cmd *cobra.Command, stats *scan.Stats, showErrors bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Units: %d\n", stats.Units)
	fmt.Fprintf(out, "Indexed: %d (%d from cache)\n", stats.Indexed, stats.Cached)
	fmt.Fprintf(out, "Failed: %d\n", stats.Failed())

	kinds := make([]string, 0, len(stats.Failures))
	for k := range stats.Failures {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(out, "  %s: %d\n", k, stats.Failures[xref.Kind(k)])
	}
	if showErrors {
		for _, e := range stats.Errors {
			fmt.Fprintf(out, "  - %v\n", e)
		}
	}
}
