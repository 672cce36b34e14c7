package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Veraticus/sakhi/internal/cli"
	"github.com/Veraticus/sakhi/internal/common"
	"github.com/Veraticus/sakhi/internal/lifecycle"
	"github.com/Veraticus/sakhi/internal/model"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

var (
	errCheckFailed  = errors.New("check failed")
	errInvalidInput = errors.New("input rejected")
)

type checkTarget struct {
	channel model.Channel
	use     string
	short   string
	prompt  string
}

var checkTargets = []checkTarget{
	{channel: model.ChannelPhone, use: "phone [number]", short: "Check a phone number for spam or fraud", prompt: "Phone number"},
	{channel: model.ChannelSMS, use: "sms [message]", short: "Check the text of a message for phishing", prompt: "Message text"},
	{channel: model.ChannelURL, use: "url [link]", short: "Check a link for phishing", prompt: "URL"},
	{channel: model.ChannelUPI, use: "upi [id]", short: "Check a UPI ID such as name@bank", prompt: "UPI ID"},
}

func channelCmds() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(checkTargets)+1)
	for _, target := range checkTargets {
		cmds = append(cmds, textCheckCmd(target))
	}
	return append(cmds, qrCmd())
}

func textCheckCmd(target checkTarget) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   target.use,
		Short: target.short,
		Long: fmt.Sprintf(`%s.

The value may be given as arguments or, when omitted, typed at the prompt.`, target.short),
		RunE: func(cmd *cobra.Command, args []string) error {
			value := strings.Join(args, " ")
			if len(args) == 0 {
				line, err := cli.NewNonBlockingReader(cmd.InOrStdin()).Prompt(cmd.Context(), cmd.OutOrStdout(), target.prompt)
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				value = line
			}
			return runCheck(cmd, target.channel, model.TextInput(value), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the verdict as JSON")
	return cmd
}

func qrCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "qr <image>",
		Short: "Check a QR code image for a fraudulent payment request",
		Long: `Check a QR code image.

The image is screened locally first. Images without a readable QR code are
rejected before anything is sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			return runCheck(cmd, model.ChannelQR, model.FileInput(filepath.Base(args[0]), data), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the verdict as JSON")
	return cmd
}

func runCheck(cmd *cobra.Command, ch model.Channel, in model.RawInput, asJSON bool) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	ctrl, err := a.controller(ch)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	st := ctrl.Check(ctx, in)
	if err := ctx.Err(); err != nil {
		return err
	}

	if asJSON {
		if err := writeJSON(cmd.OutOrStdout(), ch, st); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), cli.RenderState(ch, st))
	}

	switch st.Phase {
	case lifecycle.PhaseError:
		return common.NewUserError(st.Message, errCheckFailed)
	case lifecycle.PhaseIdle:
		if st.Message != "" {
			return common.NewUserError(st.Message, errInvalidInput)
		}
	}
	return nil
}

// checkOutput is the --json shape.
type checkOutput struct {
	Confidence *float64 `json:"confidence_percent,omitempty"`
	Channel    string   `json:"channel"`
	Status     string   `json:"status"`
	Subject    string   `json:"subject,omitempty"`
	Label      string   `json:"label,omitempty"`
	Display    string   `json:"display,omitempty"`
	Message    string   `json:"message,omitempty"`
	HTTPStatus int      `json:"http_status,omitempty"`
}

func newCheckOutput(ch model.Channel, st lifecycle.State) checkOutput {
	out := checkOutput{
		Channel:    string(ch),
		Status:     st.Phase.String(),
		Message:    st.Message,
		Subject:    st.Subject,
		HTTPStatus: st.StatusCode,
	}
	if st.Phase == lifecycle.PhaseIdle && st.Message != "" {
		out.Status = "invalid"
	}
	if v := st.Verdict; v != nil {
		out.Label = string(v.Label)
		out.Display = v.Display
		out.Subject = v.SubjectEcho
		if v.Confidence != nil {
			pct := v.Confidence.Percent()
			out.Confidence = &pct
		}
	}
	return out
}

func writeJSON(w io.Writer, ch model.Channel, st lifecycle.State) error {
	data, err := sonic.ConfigStd.MarshalIndent(newCheckOutput(ch, st), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode verdict: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
