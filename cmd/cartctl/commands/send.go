package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PocketPalCo/voicecart/internal/infra/feed"
	"github.com/spf13/cobra"
)

var sendNoTimestamp bool

var sendCmd = &cobra.Command{
	Use:   "send <session-id> <message>",
	Short: "Publish an assistant message onto the configured feed",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := feed.New(cfg, nil, slog.Default())
		if err != nil {
			return err
		}
		if f == nil {
			return errors.New("no feed configured, set VCS_FEED_PROVIDER to redis or amqp")
		}
		defer f.Close()

		r := feed.Record{SessionID: args[0], Text: strings.Join(args[1:], " ")}
		if !sendNoTimestamp {
			now := time.Now().UTC()
			r.Timestamp = &now
		}

		if err := f.Publish(cmd.Context(), r); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published to %s\n", f.Name())
		return nil
	},
}

func init() {
	sendCmd.Flags().BoolVar(&sendNoTimestamp, "no-timestamp", false, "omit the delivery timestamp")
	rootCmd.AddCommand(sendCmd)
}
