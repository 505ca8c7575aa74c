package cli

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/agentview/core/engine"
	"github.com/agentview/core/poller"
	"github.com/agentview/core/session"
	"github.com/spf13/cobra"
)

// NewWatchCmd streams state transitions for one or more paths until
// interrupted.
func NewWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <path> [path...]",
		Short: "Watch paths and print session state transitions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := engine.New(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			transitions := poller.New(eng, cfg, args...).Run(ctx)
			asJSON := jsonFlag(cmd)

			for tr := range transitions {
				if asJSON {
					data, err := json.Marshal(tr)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), string(data))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-40s %s -> %s\n",
					mutedStyle.Render(tr.At.Format("15:04:05")),
					tr.Path,
					renderTransitionState(tr.Previous),
					renderTransitionState(tr.Current),
				)
			}
			return nil
		},
	}
	return cmd
}

func renderTransitionState(resolved *session.ResolvedState) string {
	if resolved == nil {
		return mutedStyle.Render("none")
	}
	s := renderState(resolved.State)
	if resolved.FromLock {
		s += " " + mutedStyle.Render("(lock)")
	}
	return s
}
