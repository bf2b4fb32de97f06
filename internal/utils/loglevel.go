package utils

import (
	"log"
	"sync/atomic"
)

var debugEnabled atomic.Bool

// SetDebug turns debug-level log output on or off for the whole process.
func SetDebug(on bool) {
	debugEnabled.Store(on)
}

func Debugf(format string, v ...any) {
	if !debugEnabled.Load() {
		return
	}
	log.Printf(format, v...)
}
