package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/sakhi/internal/cli"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/spf13/cobra"
)

func batchCmd() *cobra.Command {
	var (
		channelName string
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "batch <file|->",
		Short: "Check many values from a file, one per line",
		Long: `Check every line of a file through one channel.

Blank lines and lines starting with # are skipped. For the qr channel each
line is the path of an image. Use - to read from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := model.ParseChannel(channelName)
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				r = f
			}

			inputs, err := cli.ReadInputs(r, ch)
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("Nothing to check"))
				return nil
			}

			a, err := newApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			ctrl, err := a.controller(ch)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			showProgress := !noProgress
			handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
			ctx := handler.HandleInterrupts(cmd.Context(), a.store != nil)

			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatTitle(fmt.Sprintf("Checking %d %s values", len(inputs), ch.Title())))
			summary, runErr := cli.NewBatchRunner(ctrl, cmd.OutOrStdout(), showProgress).Run(ctx, inputs)
			fmt.Fprintln(cmd.OutOrStdout(), summary.Render())

			if handler.WasInterrupted() {
				return nil
			}
			if runErr != nil && !errors.Is(runErr, ctx.Err()) {
				return runErr
			}
			if summary.Failed > 0 {
				return fmt.Errorf("%w: %d of %d checks could not be completed", errCheckFailed, summary.Failed, summary.Total())
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&channelName, "channel", "c", string(model.ChannelPhone), "channel to check through (phone, sms, url, upi, qr)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")
	return cmd
}
