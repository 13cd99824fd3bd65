package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/classxref/index"
	"github.com/dhamidi/classxref/scan"
	"github.com/dhamidi/classxref/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		debounce time.Duration
		initial  bool
	)

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Keep the index current as class files change under a directory",
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
			if initial {
				if _, err := scanner.Run(cmd.Context(), args[0]); err != nil {
					return err
				}
			}

			w, err := watch.New(args[0], debounce)
			if err != nil {
				return err
			}
			defer w.Stop()

			err = w.Start(func(ev watch.Event) {
				rel, err := filepath.Rel(w.Root(), ev.Path)
				if err != nil {
					log.Errorf("%s: %v", ev.Path, err)
					return
				}
				name := filepath.ToSlash(rel)
				if ev.Removed {
					if err := store.Delete(name); err != nil {
						log.Errorf("%v", err)
						return
					}
					log.Infof("removed %s", name)
					return
				}
				if err := scanner.Process(scan.Unit{Name: name, Path: ev.Path}); err != nil {
					log.Errorf("%v", err)
					return
				}
				log.Infof("indexed %s", name)
			})
			if err != nil {
				return err
			}
			log.Noticef("watching %s", w.Root())

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)
			select {
			case <-sig:
			case <-cmd.Context().Done():
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "quiet time before a change is indexed")
	cmd.Flags().BoolVar(&initial, "initial", true, "index the directory before watching")

	return cmd
}
