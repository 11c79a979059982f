// Package monitoring holds the diagnostic logger shared by library packages.
package monitoring

import (
	"log"
	"time"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}

// Stage logs the start of a named run stage and returns a func that logs its
// completion with the elapsed time.
func Stage(name string, now func() time.Time) func() {
	start := now()
	Logf("%s: started", name)
	return func() {
		Logf("%s: done in %s", name, now().Sub(start).Round(time.Millisecond))
	}
}
