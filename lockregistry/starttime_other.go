//go:build !linux

package lockregistry

import "time"

// procStartTime is unavailable off Linux; liveness then rests on the probe
// alone and PID reuse goes undetected.
func procStartTime(pid int) (time.Time, bool) {
	return time.Time{}, false
}
