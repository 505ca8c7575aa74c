package cli

import (
	"fmt"
	"os"

	"github.com/agentview/core/auditlog"
	"github.com/agentview/core/engine"
	"github.com/agentview/core/errors"
	"github.com/agentview/core/schema"
	"github.com/spf13/cobra"
)

// NewDoctorCmd checks the health of everything this engine reads: the
// config, the state document (including schema validation), the lock root,
// and the audit log.
func NewDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the state file, lock directory, and audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadConfig(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			healthy := true

			report := func(ok bool, format string, a ...interface{}) {
				mark := okStyle.Render("✓")
				if !ok {
					mark = errStyle.Render("✗")
					healthy = false
				}
				fmt.Fprintf(out, "%s %s\n", mark, fmt.Sprintf(format, a...))
			}
			note := func(format string, a ...interface{}) {
				fmt.Fprintf(out, "  %s\n", mutedStyle.Render(fmt.Sprintf(format, a...)))
			}

			// State document.
			if _, err := os.Stat(cfg.StateFile); os.IsNotExist(err) {
				report(true, "state file absent (no sessions yet): %s", cfg.StateFile)
			} else {
				validator, err := schema.NewValidator()
				if err != nil {
					return err
				}
				if err := validator.ValidateFile(cfg.StateFile); err != nil {
					report(false, "state file invalid: %s", cfg.StateFile)
					note("%v", err)
				} else {
					report(true, "state file valid: %s", cfg.StateFile)
				}
			}

			// Engine view over both sources.
			eng, err := engine.New(cfg)
			if err != nil {
				return err
			}
			snap := eng.Snapshot()
			note("%d session record(s), document version %d", len(snap.Sessions), snap.Version)

			// Lock root.
			if _, err := os.Stat(cfg.LockRoot); os.IsNotExist(err) {
				report(true, "lock root absent (no locks yet): %s", cfg.LockRoot)
			} else {
				live := 0
				for _, lock := range snap.Locks {
					if lock.Live {
						live++
					}
				}
				report(true, "lock root readable: %s", cfg.LockRoot)
				note("%d lock(s), %d live", len(snap.Locks), live)
			}

			// Audit log.
			events, skipped, err := auditlog.NewReader(cfg.AuditLog).ReadAll()
			switch {
			case err != nil:
				report(false, "audit log unreadable: %s", cfg.AuditLog)
				note("%v", err)
			case skipped > 0:
				report(true, "audit log readable with %d malformed line(s): %s", skipped, cfg.AuditLog)
			default:
				report(true, "audit log readable (%d event(s)): %s", len(events), cfg.AuditLog)
			}

			if !healthy {
				return errors.New(errors.ErrCodeStateInvalid, "one or more checks failed")
			}
			return nil
		},
	}
	return cmd
}
