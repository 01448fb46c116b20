//go:build windows

package signals

import (
	"os"
	"os/signal"
)

func init() {
	signal.Notify(sigChan, os.Interrupt)
}

// Handle dispatches signals to the registered handlers until StopHandle
// is called. Windows has no SIGHUP, so halts go through the halt file.
func Handle() {
	for {
		sig, ok := <-sigChan
		if !ok {
			// closed channel
			return
		}
		if sig == os.Interrupt {
			handleInterrupted()
		}
	}
}
