package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/classxref/format"
	"github.com/dhamidi/classxref/index"
	"github.com/dhamidi/classxref/xref"
)

func newDiffCmd() *cobra.Command {
	var (
		context int
		html    bool
	)

	cmd := &cobra.Command{
		Use:   "diff <a.class> <b.class>",
		Short: "Show a unified diff of two class renditions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer := xref.NewAnalyzer(cfg.URLPrefix)
			var texts [2]string
			for i, path := range args {
				res, err := analyzer.AnalyzeFile(path)
				if err != nil {
					return fmt.Errorf("analyze %s: %w", path, err)
				}
				texts[i] = res.Text
				if !html {
					texts[i] = index.PlainText(res.Text)
				}
				if lit := res.LiteralText(); lit != "" {
					texts[i] += "\n" + lit
				}
			}
			d, err := format.Diff(args[0], args[1], texts[0], texts[1], context)
			if err != nil {
				return fmt.Errorf("diff: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), d)
			return nil
		},
	}

	cmd.Flags().IntVarP(&context, "context", "U", format.DefaultDiffContext, "lines of context")
	cmd.Flags().BoolVar(&html, "html", false, "diff the hyperlinked text instead of plain text")

	return cmd
}
