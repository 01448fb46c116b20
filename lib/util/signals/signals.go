package signals

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
)

// sigChan is buffered to avoid missing signals delivered while no receiver is ready.
var sigChan = make(chan os.Signal, 1)

// Handler is a function called when a signal is received.
type Handler func()

// HandlerID is a unique identifier returned by registration functions,
// used to deregister individual handlers.
type HandlerID int

type registeredHandler struct {
	id HandlerID
	fn Handler
}

var (
	mu           sync.RWMutex
	halters      []registeredHandler
	interrupters []registeredHandler
	nextID       HandlerID
	stopOnce     sync.Once
)

// RegisterHaltHandler registers a handler called on SIGHUP. A halt asks a
// batch to stop launching new runs and let the running ones finish.
// Nil handlers are ignored and return -1.
func RegisterHaltHandler(f Handler) HandlerID {
	return register(&halters, f)
}

// DeregisterHaltHandler removes a previously registered halt handler by ID.
func DeregisterHaltHandler(id HandlerID) {
	deregister(&halters, id)
}

// RegisterInterruptHandler registers a handler called on SIGINT/SIGTERM,
// after the pre-shutdown handlers. Nil handlers are ignored and return -1.
func RegisterInterruptHandler(f Handler) HandlerID {
	return register(&interrupters, f)
}

// DeregisterInterruptHandler removes a previously registered interrupt handler by ID.
func DeregisterInterruptHandler(id HandlerID) {
	deregister(&interrupters, id)
}

func register(list *[]registeredHandler, f Handler) HandlerID {
	if f == nil {
		return -1
	}
	mu.Lock()
	defer mu.Unlock()
	id := nextID
	nextID++
	*list = append(*list, registeredHandler{id: id, fn: f})
	return id
}

func deregister(list *[]registeredHandler, id HandlerID) {
	mu.Lock()
	defer mu.Unlock()
	for i, h := range *list {
		if h.id == id {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}

func handleHalt() {
	run(&halters, "halt")
}

func handleInterrupted() {
	handlePreShutdown()
	run(&interrupters, "interrupt")
}

func run(list *[]registeredHandler, kind string) {
	mu.RLock()
	snapshot := make([]registeredHandler, len(*list))
	copy(snapshot, *list)
	mu.RUnlock()
	for _, h := range snapshot {
		func() {
			defer func() {
				if r := recover(); r != nil {
					// The signals package has no logger; write directly to stderr
					// so panicking handlers are visible in logs/console.
					fmt.Fprintf(os.Stderr, "signals: panic in %s handler: %v\n", kind, r)
				}
			}()
			h.fn()
		}()
	}
}

// StopHandle closes the signal channel, causing Handle() to return.
// It first calls signal.Stop to prevent signal delivery to the closed channel.
// Safe to call multiple times; only the first call takes effect.
func StopHandle() {
	stopOnce.Do(func() {
		signal.Stop(sigChan)
		close(sigChan)
	})
}
