package cli

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/agentview/core/auditlog"
	"github.com/spf13/cobra"
)

// NewEventsCmd prints the hook event audit log.
func NewEventsCmd() *cobra.Command {
	var (
		follow bool
		tailN  int
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the hook event audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			reader := auditlog.NewReader(cfg.AuditLog)

			events, err := reader.Tail(tailN)
			if err != nil {
				return err
			}
			asJSON := jsonFlag(cmd)
			for _, ev := range events {
				printEvent(cmd, ev, asJSON)
			}

			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			stream, stopTail, err := reader.Follow()
			if err != nil {
				return err
			}
			defer stopTail()

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-stream:
					if !ok {
						return nil
					}
					printEvent(cmd, ev, asJSON)
				}
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep the log open and stream new events")
	cmd.Flags().IntVarP(&tailN, "tail", "n", 20, "Number of trailing events to show (0 for all)")
	return cmd
}

func printEvent(cmd *cobra.Command, ev auditlog.Event, asJSON bool) {
	if asJSON {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return
	}

	parts := []string{ev.Action}
	if ev.Event != "" {
		parts = append(parts, ev.Event)
	}
	if ev.State != "" {
		parts = append(parts, "state="+ev.State)
	}
	if ev.ToolName != "" {
		parts = append(parts, "tool="+ev.ToolName)
	}
	if ev.SkipReason != "" {
		parts = append(parts, "skip="+ev.SkipReason)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s  %-12s %s %s\n",
		mutedStyle.Render(ev.TS.Local().Format("15:04:05")),
		shortID(ev.SessionID),
		strings.Join(parts, " "),
		mutedStyle.Render(ev.Cwd),
	)
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
