package commands

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/PocketPalCo/voicecart/internal/core/parser"
	"github.com/PocketPalCo/voicecart/internal/core/session"
	"github.com/PocketPalCo/voicecart/internal/infra/feed"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var replayTrace bool

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Replay an assistant transcript and print the resulting cart",
	Long: `Replay reads one assistant message per line, either plain text or a JSON feed
record ({"text": "...", "timestamp": "..."}), and feeds them in order through a single
cart engine. Use "-" to read from stdin. Blank lines and lines starting with # are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayTrace, "trace", false, "print the outcome of every message")
	rootCmd.AddCommand(replayCmd)
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	in := io.Reader(os.Stdin)
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open transcript: %w", err)
		}
		defer f.Close()
		in = f
	}

	messages, err := readTranscript(in)
	if err != nil {
		return err
	}

	cat, release, err := openCatalog(ctx)
	if err != nil {
		return err
	}
	defer release()

	engine := session.NewEngine("replay", parser.NewExtractor(cat, nil), session.Options{
		LockAfterOrder: cfg.SessionLockAfterOrder,
	})

	out := cmd.OutOrStdout()
	for i, msg := range messages {
		res := engine.Ingest(ctx, msg)
		if replayTrace {
			traceColor(res).Fprintf(out, "%3d %-15s %-14s changed=%-5t duplicate=%-5t %s\n",
				i+1, res.Intent, res.Strategy, res.Changed, res.Duplicate, msg.Text)
		}
	}
	if replayTrace {
		fmt.Fprintln(out)
	}

	renderCart(out, engine.Snapshot(), cfg.CurrencySymbol())
	return nil
}

func traceColor(res session.Outcome) *color.Color {
	switch {
	case res.Duplicate:
		return color.New(color.FgYellow)
	case res.Changed:
		return color.New(color.FgGreen)
	default:
		return color.New(color.Faint)
	}
}

// readTranscript parses every non-blank, non-comment line into a message.
func readTranscript(r io.Reader) ([]session.Message, error) {
	var messages []session.Message

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		messages = append(messages, parseTranscriptLine(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}
	return messages, nil
}

// parseTranscriptLine accepts a feed record or falls back to the raw line. The
// session id of a record is ignored: a replay is one conversation.
func parseTranscriptLine(line string) session.Message {
	if strings.HasPrefix(line, "{") {
		var r feed.Record
		if err := json.Unmarshal([]byte(line), &r); err == nil && strings.TrimSpace(r.Text) != "" {
			return r.Message()
		}
	}
	return session.Message{Text: line}
}
