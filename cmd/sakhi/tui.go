package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/sakhi/internal/model"
	"github.com/Veraticus/sakhi/internal/tui"
	"github.com/Veraticus/sakhi/internal/tui/themes"
	"github.com/spf13/cobra"
)

func tuiCmd() *cobra.Command {
	var (
		channelName string
		themeName   string
		logFile     string
	)

	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive checker with one tab per channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ch, err := model.ParseChannel(channelName)
			if err != nil {
				return err
			}
			theme := themes.ByName(themeName)

			// The alternate screen owns stdout; logs go to a file or nowhere.
			var logOut io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
				if err != nil {
					return fmt.Errorf("failed to open log file: %w", err)
				}
				defer f.Close()
				logOut = f
			}
			logger := quietLogger(logOut)

			a, err := newApp(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.Close()

			return tui.Run(cmd.Context(), tui.Config{
				Transport: a.transport,
				Prescreen: a.prescreen,
				Access:    a.access,
			},
				tui.WithInitialChannel(ch),
				tui.WithTheme(theme),
				tui.WithRecorder(a.recorder()),
				tui.WithLogger(logger),
			)
		},
	}

	cmd.Flags().StringVarP(&channelName, "channel", "c", string(model.ChannelPhone), "tab to open first")
	cmd.Flags().StringVar(&themeName, "theme", "default", "color theme (default, catppuccin-mocha)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write warnings and errors to this file")
	return cmd
}
