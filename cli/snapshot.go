package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/agentview/core/engine"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

// NewSnapshotCmd dumps everything both signal sources currently contain.
func NewSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Show every known session record and lock entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			eng, err := engine.New(cfg)
			if err != nil {
				return err
			}

			snap := eng.Snapshot()

			if jsonFlag(cmd) {
				data, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", headerStyle.Render("state file"), snap.StateFile)
			fmt.Fprintf(out, "%s   %s\n\n", headerStyle.Render("lock root"), snap.LockRoot)

			if len(snap.Sessions) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("no session records"))
			} else {
				table := newTable(cmd, []string{"SESSION", "STATE", "AGE", "CWD", "WORKING ON", "RESOLVED"})
				for _, s := range snap.Sessions {
					resolved := mutedStyle.Render("none")
					if s.Resolved != nil {
						resolved = renderState(s.Resolved.State)
						if s.Resolved.FromLock {
							resolved += " " + mutedStyle.Render("(lock)")
						}
					}
					table.Append([]string{
						s.SessionID,
						renderState(s.State),
						formatAge(s.Age),
						s.Cwd,
						s.WorkingOn,
						resolved,
					})
				}
				if err := table.Render(); err != nil {
					return err
				}
			}
			fmt.Fprintln(out)

			if len(snap.Locks) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("no lock entries"))
				return nil
			}
			table := newTable(cmd, []string{"PATH", "PID", "LIVE", "CREATED"})
			for _, lock := range snap.Locks {
				live := errStyle.Render("no")
				if lock.Live {
					live = okStyle.Render("yes")
				}
				table.Append([]string{
					lock.Path,
					strconv.Itoa(lock.PID),
					live,
					lock.Created.Local().Format("2006-01-02 15:04:05"),
				})
			}
			return table.Render()
		},
	}
	return cmd
}

// newTable configures a borderless table matching the rest of the output.
func newTable(cmd *cobra.Command, headers []string) *tablewriter.Table {
	table := tablewriter.NewTable(cmd.OutOrStdout(),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Lines:      tw.LinesNone,
				Separators: tw.SeparatorsNone,
			},
		}),
		tablewriter.WithPadding(tw.Padding{Left: "", Right: "  "}),
	)
	table.Header(headers)
	return table
}
