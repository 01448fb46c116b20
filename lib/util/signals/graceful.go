package signals

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// defaultGracefulTimeout bounds how long an interrupt waits for the
// pre-shutdown handlers before the interrupt handlers run.
const defaultGracefulTimeout = 10 * time.Second

var (
	preShutdownMu       sync.RWMutex
	preShutdownHandlers []registeredHandler
	gracefulTimeout     = defaultGracefulTimeout
)

// RegisterPreShutdownHandler registers a handler that runs before the
// interrupt handlers. The batch runner uses it to stop launching runs and
// wait for the running ones, so they are only killed once the graceful
// timeout has passed.
//
// Pre-shutdown handlers each run in their own goroutine, so a hung handler
// does not hold up the others. Nil handlers are ignored and return -1.
func RegisterPreShutdownHandler(f Handler) HandlerID {
	if f == nil {
		return -1
	}
	mu.Lock()
	id := nextID
	nextID++
	mu.Unlock()

	preShutdownMu.Lock()
	defer preShutdownMu.Unlock()
	preShutdownHandlers = append(preShutdownHandlers, registeredHandler{id: id, fn: f})
	return id
}

// DeregisterPreShutdownHandler removes a pre-shutdown handler by ID.
func DeregisterPreShutdownHandler(id HandlerID) {
	preShutdownMu.Lock()
	defer preShutdownMu.Unlock()
	for i, h := range preShutdownHandlers {
		if h.id == id {
			preShutdownHandlers = append(preShutdownHandlers[:i], preShutdownHandlers[i+1:]...)
			return
		}
	}
}

// SetGracefulTimeout configures the maximum time to wait for pre-shutdown
// handlers to complete. If zero or negative, the default is used.
func SetGracefulTimeout(timeout time.Duration) {
	preShutdownMu.Lock()
	defer preShutdownMu.Unlock()
	if timeout <= 0 {
		gracefulTimeout = defaultGracefulTimeout
	} else {
		gracefulTimeout = timeout
	}
}

// handlePreShutdown runs all registered pre-shutdown handlers with a timeout.
// Returns true if all handlers completed within the timeout, false otherwise.
func handlePreShutdown() bool {
	preShutdownMu.RLock()
	snapshot := make([]registeredHandler, len(preShutdownHandlers))
	copy(snapshot, preShutdownHandlers)
	timeout := gracefulTimeout
	preShutdownMu.RUnlock()

	if len(snapshot) == 0 {
		return true
	}

	var wg sync.WaitGroup
	for _, h := range snapshot {
		wg.Add(1)
		go func(fn Handler) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fmt.Fprintf(os.Stderr, "signals: panic in pre-shutdown handler: %v\n", r)
				}
			}()
			fn()
		}(h.fn)
	}
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		fmt.Fprintf(os.Stderr, "signals: pre-shutdown handlers timed out after %s\n", timeout)
		return false
	}
}
