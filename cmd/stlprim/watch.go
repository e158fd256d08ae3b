package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chazu/stlprim/pkg/config"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// settleDelay groups the burst of events an editor save produces.
const settleDelay = 150 * time.Millisecond

func newWatchCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var (
		outPath string
		ascii   bool
	)
	cmd := &cobra.Command{
		Use:   "watch SCENE",
		Short: "Rebuild the STL file whenever the scene file changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("ascii") {
				cfg.Output.ASCII = ascii
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			scenePath := args[0]
			rebuild := func() {
				if err := buildScene(cmd.OutOrStdout(), scenePath, outPath, cfg); err != nil {
					log.Printf("watch: %v", err)
				}
			}
			rebuild()
			return watchFile(ctx, scenePath, settleDelay, rebuild)
		},
	}
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output STL file")
	cmd.Flags().BoolVar(&ascii, "ascii", false, "write ASCII STL instead of binary")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// watchFile calls onChange after path is written, created or renamed over,
// once events have been quiet for delay. The parent directory is watched so
// editors that save by replacing the file are still seen. It returns when
// ctx is done.
func watchFile(ctx context.Context, path string, delay time.Duration, onChange func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch: %w", err)
	}

	timer := time.NewTimer(delay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(delay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch: %v", err)
		case <-timer.C:
			onChange()
		}
	}
}
