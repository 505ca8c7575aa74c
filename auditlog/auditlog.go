// Package auditlog reads the append-only JSON-lines log of hook
// invocations. It is diagnostic input only: nothing in the resolution path
// depends on it, but it is what makes writer behavior debuggable when the
// two primary signals disagree.
package auditlog

import (
	"bufio"
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/agentview/core/errors"
	"github.com/agentview/core/logging"
	"github.com/hpcloud/tail"
	"github.com/sirupsen/logrus"
)

// Event is one hook invocation as logged by the external writer. Fields
// beyond ts/session_id/action are event-specific and usually empty.
type Event struct {
	TS         time.Time `json:"ts"`
	SessionID  string    `json:"session_id"`
	Action     string    `json:"action"`
	Event      string    `json:"event,omitempty"`
	State      string    `json:"state,omitempty"`
	Cwd        string    `json:"cwd,omitempty"`
	ProjectDir string    `json:"project_dir,omitempty"`

	NotificationType string `json:"notification_type,omitempty"`
	Trigger          string `json:"trigger,omitempty"`
	StopHookActive   bool   `json:"stop_hook_active,omitempty"`
	ToolName         string `json:"tool_name,omitempty"`
	ToolUseID        string `json:"tool_use_id,omitempty"`
	Source           string `json:"source,omitempty"`
	Reason           string `json:"reason,omitempty"`
	SubagentDelta    int    `json:"subagent_delta,omitempty"`
	WriteStatus      string `json:"write_status,omitempty"`
	SkipReason       string `json:"skip_reason,omitempty"`
}

// Reader reads a hook event log.
type Reader struct {
	path string
	log  *logrus.Entry
}

func NewReader(path string) *Reader {
	return &Reader{path: path, log: logging.NewLogger("auditlog")}
}

// Path returns the log file location.
func (r *Reader) Path() string {
	return r.path
}

// ReadAll parses the whole log. Malformed lines are skipped and counted,
// never fatal; the writer may be appending mid-read and the final line can
// be torn. A missing file yields zero events. The error covers only an
// unreadable existing file.
func (r *Reader) ReadAll() ([]Event, int, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, errors.AuditLogInvalid(r.path, err)
	}
	defer f.Close()

	var (
		events  []Event
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			skipped++
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return events, skipped, errors.AuditLogInvalid(r.path, err)
	}

	if skipped > 0 {
		r.log.WithFields(logrus.Fields{"path": r.path, "skipped": skipped}).
			Debug("skipped malformed audit log lines")
	}
	return events, skipped, nil
}

// Tail returns the last n events.
func (r *Reader) Tail(n int) ([]Event, error) {
	events, _, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

// Follow streams events appended to the log, starting at its current end.
// The returned stop function terminates the stream and closes the channel.
// Malformed lines are dropped silently, matching ReadAll.
func (r *Reader) Follow() (<-chan Event, func(), error) {
	t, err := tail.TailFile(r.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: false,
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return nil, nil, errors.AuditLogInvalid(r.path, err)
	}

	out := make(chan Event)
	go func() {
		defer close(out)
		for line := range t.Lines {
			if line.Err != nil || line.Text == "" {
				continue
			}
			var ev Event
			if err := json.Unmarshal([]byte(line.Text), &ev); err != nil {
				continue
			}
			out <- ev
		}
	}()

	stop := func() {
		t.Stop()
		t.Cleanup()
	}
	return out, stop, nil
}
