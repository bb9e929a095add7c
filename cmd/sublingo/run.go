package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sublingo-ai/sublingo/internal/config"
	"github.com/sublingo-ai/sublingo/internal/pipeline"
	"github.com/sublingo-ai/sublingo/internal/usage"
)

const lockFileName = "sublingo.lock"

func newRunCommand(configFlag *string) *cobra.Command {
	var outFlag string

	cmd := &cobra.Command{
		Use:   "run <subtitles.srt>",
		Short: "Translate a subtitle file and fit each line to its cue window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPath := args[0]
			outPath := outFlag
			if outPath == "" {
				ext := filepath.Ext(inPath)
				outPath = inPath[:len(inPath)-len(ext)] + ".translated" + ext
			}

			container, err := buildContainer(*configFlag)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return container.Invoke(func(
				store *config.Store,
				logger *zap.Logger,
				meter *usage.Meter,
				runner *pipeline.Runner,
			) error {
				// The log and usage files assume a single writing
				// process; refuse to start a second instance.
				lock := flock.New(filepath.Join(workspaceDir(store), lockFileName))
				locked, err := lock.TryLock()
				if err != nil {
					return fmt.Errorf("acquire workspace lock: %w", err)
				}
				if !locked {
					return errors.New("another sublingo run is already using this workspace")
				}
				defer func() { _ = lock.Unlock() }()

				defer func() {
					if err := meter.Close(); err != nil {
						logger.Warn("failed to persist usage counts", zap.Error(err))
					}
				}()
				defer func() { _ = logger.Sync() }()

				if err := runner.Run(ctx, inPath, outPath); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n\n%s\n", outPath, renderUsage(meter.Snapshot()))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&outFlag, "output", "o", "", "Output subtitle path (default: <input>.translated.srt)")

	return cmd
}
