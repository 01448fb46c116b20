//go:build !windows

package signals

import (
	"os/signal"
	"syscall"
)

func init() {
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
}

// Handle dispatches signals to the registered handlers until StopHandle
// is called.
func Handle() {
	for {
		sig, ok := <-sigChan
		if !ok {
			// closed channel
			return
		}
		switch sig {
		case syscall.SIGHUP:
			handleHalt()
		case syscall.SIGINT, syscall.SIGTERM:
			handleInterrupted()
		}
	}
}
