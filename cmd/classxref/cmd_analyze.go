package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/classxref/format"
	"github.com/dhamidi/classxref/xref"
)

func newAnalyzeCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "analyze <file.class>...",
		Short: "Render class files with their definitions, references and literals",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := format.NewEncoder(outputFormat, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			analyzer := xref.NewAnalyzer(cfg.URLPrefix)
			for _, path := range args {
				res, err := analyzer.AnalyzeFile(path)
				if err != nil {
					return fmt.Errorf("analyze %s (%s): %w", path, xref.KindOf(err), err)
				}
				if err := enc.Encode(res); err != nil {
					return fmt.Errorf("encode %s: %w", path, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "html",
		"output format ("+strings.Join(format.Names, ", ")+")")

	return cmd
}
