package signals

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetHandlers clears all registered handlers for the duration of a test.
func resetHandlers(t *testing.T) {
	t.Helper()
	mu.Lock()
	oldHalters, oldInterrupters := halters, interrupters
	halters, interrupters = nil, nil
	mu.Unlock()
	preShutdownMu.Lock()
	oldPre, oldTimeout := preShutdownHandlers, gracefulTimeout
	preShutdownHandlers = nil
	preShutdownMu.Unlock()

	t.Cleanup(func() {
		mu.Lock()
		halters, interrupters = oldHalters, oldInterrupters
		mu.Unlock()
		preShutdownMu.Lock()
		preShutdownHandlers, gracefulTimeout = oldPre, oldTimeout
		preShutdownMu.Unlock()
	})
}

func TestHaltHandlerCalled(t *testing.T) {
	resetHandlers(t)

	called := false
	RegisterHaltHandler(func() { called = true })
	handleHalt()
	assert.True(t, called)
}

func TestInterruptHandlersCalledInOrder(t *testing.T) {
	resetHandlers(t)

	var order []int
	for i := 0; i < 3; i++ {
		i := i
		RegisterInterruptHandler(func() { order = append(order, i) })
	}
	handleInterrupted()
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestNilHandlersIgnored(t *testing.T) {
	resetHandlers(t)

	assert.Equal(t, HandlerID(-1), RegisterHaltHandler(nil))
	assert.Equal(t, HandlerID(-1), RegisterInterruptHandler(nil))
	assert.Equal(t, HandlerID(-1), RegisterPreShutdownHandler(nil))
	assert.Empty(t, halters)
	assert.Empty(t, interrupters)
	assert.Empty(t, preShutdownHandlers)
}

func TestDeregister(t *testing.T) {
	resetHandlers(t)

	var calls int32
	h := RegisterHaltHandler(func() { atomic.AddInt32(&calls, 1) })
	i := RegisterInterruptHandler(func() { atomic.AddInt32(&calls, 1) })
	p := RegisterPreShutdownHandler(func() { atomic.AddInt32(&calls, 1) })
	DeregisterHaltHandler(h)
	DeregisterInterruptHandler(i)
	DeregisterPreShutdownHandler(p)
	DeregisterHaltHandler(HandlerID(9999))

	handleHalt()
	handleInterrupted()
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestPanickingHandlerDoesNotStopOthers(t *testing.T) {
	resetHandlers(t)

	called := false
	RegisterInterruptHandler(func() { panic("boom") })
	RegisterInterruptHandler(func() { called = true })
	handleInterrupted()
	assert.True(t, called)
}

// TestPreShutdownRunsBeforeInterrupt checks that a draining handler
// finishes before the interrupt handlers cancel anything.
func TestPreShutdownRunsBeforeInterrupt(t *testing.T) {
	resetHandlers(t)

	var mu sync.Mutex
	var order []string
	RegisterInterruptHandler(func() {
		mu.Lock()
		order = append(order, "cancel")
		mu.Unlock()
	})
	RegisterPreShutdownHandler(func() {
		time.Sleep(10 * time.Millisecond)
		mu.Lock()
		order = append(order, "drain")
		mu.Unlock()
	})

	handleInterrupted()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"drain", "cancel"}, order)
}

func TestPreShutdownTimeout(t *testing.T) {
	resetHandlers(t)
	SetGracefulTimeout(50 * time.Millisecond)

	release := make(chan struct{})
	defer close(release)
	var second int32
	RegisterPreShutdownHandler(func() { <-release })
	RegisterPreShutdownHandler(func() { atomic.StoreInt32(&second, 1) })

	start := time.Now()
	assert.False(t, handlePreShutdown())
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&second), "a hung handler does not block the others")
}

func TestSetGracefulTimeoutDefault(t *testing.T) {
	resetHandlers(t)

	SetGracefulTimeout(-1)
	assert.Equal(t, defaultGracefulTimeout, gracefulTimeout)
	SetGracefulTimeout(time.Minute)
	assert.Equal(t, time.Minute, gracefulTimeout)
}

func TestSigChanIsBuffered(t *testing.T) {
	require.NotNil(t, sigChan)
	assert.Equal(t, 1, cap(sigChan))
}
