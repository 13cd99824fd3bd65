package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/classxref/index"
)

func newSearchCmd() *cobra.Command {
	var field string

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "List indexed classes whose definitions, references or text contain a term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := index.Open(cfg.DB)
			if err != nil {
				return err
			}
			defer store.Close()

			paths, err := store.Search(index.Field(field), args[0])
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&field, "field", "F", string(index.FieldDefs), "field to search (defs, refs, full)")

	return cmd
}
