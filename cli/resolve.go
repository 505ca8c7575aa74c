package cli

import (
	"encoding/json"
	"fmt"

	"github.com/agentview/core/engine"
	"github.com/spf13/cobra"
)

// NewResolveCmd answers a single state query for a path.
func NewResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Resolve the agent session state for a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := engine.New(cfg)
			if err != nil {
				return err
			}

			resolved := eng.ResolveStateWithDetails(args[0])

			if jsonFlag(cmd) {
				out := map[string]interface{}{"path": args[0], "resolved": resolved}
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			if resolved == nil {
				fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("no active session"))
				return nil
			}

			provenance := "record freshness"
			if resolved.FromLock {
				provenance = "live lock"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n",
				renderState(resolved.State),
				mutedStyle.Render(fmt.Sprintf("(via %s)", provenance)))
			if resolved.SessionID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "session: %s\n", resolved.SessionID)
			}
			return nil
		},
	}
	return cmd
}
