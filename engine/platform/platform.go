package platform

import (
	"time"
)

var startTime = time.Now()

// GetAbsoluteTime returns the seconds elapsed since the process started.
func GetAbsoluteTime() float64 {
	return time.Since(startTime).Seconds()
}

// Sleep gives the remaining frame time back to the OS.
func Sleep(ms float64) {
	if ms <= 0 {
		return
	}
	time.Sleep(time.Duration(ms * float64(time.Millisecond)))
}
