//go:build linux

package lockregistry

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// clockTicksPerSecond is the kernel's USER_HZ. It has been 100 on every
// supported architecture for decades; reading it via sysconf would drag in
// cgo for no practical gain.
const clockTicksPerSecond = 100

// procStartTime derives the process start time from /proc: field 22 of
// /proc/<pid>/stat is the start offset in clock ticks since boot, and
// /proc/stat's btime line is the boot time in Unix seconds.
func procStartTime(pid int) (time.Time, bool) {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return time.Time{}, false
	}

	// The comm field (2) is parenthesized and may contain spaces; fields
	// are only positionally reliable after the closing paren.
	raw := string(data)
	end := strings.LastIndexByte(raw, ')')
	if end < 0 {
		return time.Time{}, false
	}
	fields := strings.Fields(raw[end+1:])
	// fields[0] is field 3 of stat, so start time (field 22) is fields[19].
	if len(fields) < 20 {
		return time.Time{}, false
	}
	ticks, err := strconv.ParseUint(fields[19], 10, 64)
	if err != nil {
		return time.Time{}, false
	}

	boot, ok := bootTime()
	if !ok {
		return time.Time{}, false
	}

	offset := time.Duration(ticks) * time.Second / clockTicksPerSecond
	return boot.Add(offset), true
}

func bootTime() (time.Time, bool) {
	data, err := os.ReadFile("/proc/stat")
	if err != nil {
		return time.Time{}, false
	}
	for _, line := range strings.Split(string(data), "\n") {
		if !strings.HasPrefix(line, "btime ") {
			continue
		}
		secs, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, "btime ")), 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		return time.Unix(secs, 0), true
	}
	return time.Time{}, false
}
