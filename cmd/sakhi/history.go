package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/sakhi/internal/cli"
	"github.com/Veraticus/sakhi/internal/config"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/Veraticus/sakhi/internal/service"
	"github.com/Veraticus/sakhi/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func historyCmd() *cobra.Command {
	var (
		channelName string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently completed checks",
		Long: `Show recently completed checks, newest first.

Checks are only recorded while history.enabled is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := service.CheckFilter{Limit: limit}
			if channelName != "" {
				ch, err := model.ParseChannel(channelName)
				if err != nil {
					return err
				}
				filter.Channel = ch
			}

			store, err := openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			checks, err := store.ListChecks(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list checks: %w", err)
			}
			if len(checks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("No checks recorded yet"))
				return nil
			}

			counts, err := store.CountChecks(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to count checks: %w", err)
			}
			total := counts[model.LabelSafe] + counts[model.LabelSuspicious]

			fmt.Fprintln(cmd.OutOrStdout(), cli.RenderHistory(checks))
			fmt.Fprintln(cmd.OutOrStdout(), cli.SubtleStyle.Render(fmt.Sprintf("Showing %d of %d checks (%d suspicious, %d safe)",
				len(checks), total, counts[model.LabelSuspicious], counts[model.LabelSafe])))
			return nil
		},
	}

	cmd.Flags().StringVarP(&channelName, "channel", "c", "", "only show checks for one channel")
	cmd.Flags().IntVarP(&limit, "limit", "n", service.DefaultListLimit, "maximum number of checks to show")

	cmd.AddCommand(historyBackupCmd())
	return cmd
}

func historyBackupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <file>",
		Short: "Copy the history database to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openHistory(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			info, err := store.Backup(cmd.Context(), config.ExpandPath(args[0]))
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Backed up %d checks to %s", info.Checks, info.Path)))
			return nil
		},
	}
}

// openHistory opens the history database regardless of history.enabled, so
// earlier records stay readable after recording is turned off.
func openHistory(ctx context.Context) (*storage.SQLiteStorage, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return initStorage(ctx, cfg.Database.Path, slog.Default())
}
