package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dhamidi/classxref/config"
)

var log = commonlog.GetLogger("classxref")

// cfg is loaded before any subcommand runs.
var cfg = config.Default()

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		urlPrefix string
		db        string
		workers   int
		cacheSize int
		verbose   int
	)

	rootCmd := &cobra.Command{
		Use:          "classxref",
		Short:        "Cross-reference JVM class files for code search",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("url-prefix") {
				loaded.URLPrefix = urlPrefix
			}
			if flags.Changed("db") {
				loaded.DB = db
			}
			if flags.Changed("workers") {
				loaded.Workers = workers
			}
			if flags.Changed("cache-size") {
				loaded.CacheSize = cacheSize
			}
			if flags.Changed("verbose") {
				loaded.Verbosity = verbose
			}
			cfg = loaded
			commonlog.Configure(cfg.Verbosity, nil)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&urlPrefix, "url-prefix", config.DefaultURLPrefix, "prefix for links in rendered text")
	pf.StringVar(&db, "db", config.DefaultDB, "index database path")
	pf.IntVarP(&workers, "workers", "j", cfg.Workers, "parallel analyses")
	pf.IntVar(&cacheSize, "cache-size", config.DefaultCacheSize, "analysis results kept by content digest")
	pf.CountVarP(&verbose, "verbose", "v", "log verbosity (repeat for more)")

	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newIndexCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newDiffCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}
