// Package main is the entry point for the quill editor core's CLI
// surface: opening a tracked document and inspecting/clearing crash
// recovery records. The interactive renderer quill's core hands off
// to is an external collaborator and is not part of this binary.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dshills/quill/internal/config"
	"github.com/dshills/quill/internal/engine/buffer"
	"github.com/dshills/quill/internal/engine/document"
	"github.com/dshills/quill/internal/logsink"
	"github.com/dshills/quill/internal/recovery"
)

var (
	version = "dev"
	commit  = "unknown"
)

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "quill",
		Short:   "quill — a crash-safe, pluggable text editing core",
		Version: fmt.Sprintf("%s (%s)", version, commit),
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".quill/config.toml", "path to config file")
	root.AddCommand(openCmd(), recoverCmd())
	return root
}

func openCmd() *cobra.Command {
	var readOnly bool
	cmd := &cobra.Command{
		Use:   "open <file>",
		Short: "Open a file under crash-recovery tracking until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(args[0], readOnly)
		},
	}
	cmd.Flags().BoolVar(&readOnly, "readonly", false, "open in read-only mode")
	return cmd
}

func runOpen(path string, readOnly bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	sink, err := logsink.Open(cfg.Log.Path)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer sink.Close()
	log := sink.Entry("cmd/quill")

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	buf, size, err := recovery.OpenTrackedFile(absPath, buffer.WithTabWidth(cfg.Editor.TabWidth))
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	doc := document.NewFromBuffer(buf, document.WithReadOnly(readOnly), document.WithMaxUndoEntries(cfg.Editor.MaxUndoEntries))

	mgr := recovery.NewManager(cfg.Recovery.Dir, cfg.Recovery.Interval,
		recovery.WithWarner(sink.Ring()),
		recovery.WithLogger(log),
	)
	id := uuid.NewString()
	mgr.Register(id, absPath, size, doc)
	mgr.Start()

	log.WithFields(map[string]any{"id": id, "path": absPath}).Info("tracking opened")
	fmt.Printf("opened %s (tracking id %s)\n", path, id)
	fmt.Println("press ctrl-c to save a final recovery snapshot and exit")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	mgr.CheckNow(ctx)
	mgr.Stop()
	mgr.Unregister(id)
	log.Info("shut down cleanly")
	return nil
}

func recoverCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "recover",
		Short: "Inspect or clear crash-recovery records",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if dir != "" {
				return nil
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			dir = cfg.Recovery.Dir
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "recovery directory (defaults to the config's recovery.dir)")
	cmd.AddCommand(recoverListCmd(&dir), recoverClearCmd(&dir))
	return cmd
}

func recoverListCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending recovery records",
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := recovery.ListRecords(*dir)
			if err != nil {
				return fmt.Errorf("list records: %w", err)
			}
			if len(records) == 0 {
				fmt.Println("no recovery records")
				return nil
			}
			for _, m := range records {
				fmt.Printf("%s\t%s\t%d bytes\t%s\n", m.ID, m.OriginalPath, m.FinalBufferSize, m.Timestamp.Format(time.RFC3339))
			}
			return nil
		},
	}
}

func recoverClearCmd(dir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all pending recovery records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := recovery.ClearRecords(*dir); err != nil {
				return fmt.Errorf("clear records: %w", err)
			}
			fmt.Println("cleared recovery records in", *dir)
			return nil
		},
	}
}
