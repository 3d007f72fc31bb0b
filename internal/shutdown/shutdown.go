// Package shutdown turns interrupt signals into context cancellation and
// runs registered cleanup in reverse order.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Handler manages graceful shutdown of one scan.
//
// The first signal cancels Context so running work can wind down and
// report partial results. A second signal calls OnForce. Cleanup callbacks
// run when Shutdown is called, whether or not a signal arrived.
type Handler struct {
	mu sync.Mutex

	callbacks     []Callback
	callbackNames []string

	interrupted    atomic.Bool
	isShuttingDown atomic.Bool
	done           chan struct{}
	timeout        time.Duration
	result         Result

	ctx    context.Context
	cancel context.CancelFunc

	sigChan  chan os.Signal
	stopOnce sync.Once

	onInterrupt func(os.Signal)
	onForce     func(os.Signal)
}

// Callback is a function called during shutdown.
type Callback func(ctx context.Context) error

// Config holds shutdown configuration.
type Config struct {
	Timeout     time.Duration
	Signals     []os.Signal
	OnInterrupt func(sig os.Signal)
	OnForce     func(sig os.Signal)
}

// DefaultConfig returns default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout: 10 * time.Second,
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
	}
}

// New creates a handler whose context derives from parent and starts
// listening for signals.
func New(parent context.Context, cfg Config) *Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if len(cfg.Signals) == 0 {
		cfg.Signals = DefaultConfig().Signals
	}

	ctx, cancel := context.WithCancel(parent)

	h := &Handler{
		done:        make(chan struct{}),
		timeout:     cfg.Timeout,
		ctx:         ctx,
		cancel:      cancel,
		sigChan:     make(chan os.Signal, 2),
		onInterrupt: cfg.OnInterrupt,
		onForce:     cfg.OnForce,
	}

	signal.Notify(h.sigChan, cfg.Signals...)
	go h.listen()

	return h
}

func (h *Handler) listen() {
	count := 0
	for {
		select {
		case sig, ok := <-h.sigChan:
			if !ok {
				return
			}
			count++
			if count == 1 {
				h.interrupt(sig)
				continue
			}
			if h.onForce != nil {
				h.onForce(sig)
			}
		case <-h.done:
			return
		}
	}
}

func (h *Handler) interrupt(sig os.Signal) {
	if !h.interrupted.CompareAndSwap(false, true) {
		return
	}
	if h.onInterrupt != nil {
		h.onInterrupt(sig)
	}
	h.cancel()
}

// Register registers a shutdown callback with a name.
func (h *Handler) Register(name string, callback Callback) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.callbacks = append(h.callbacks, callback)
	h.callbackNames = append(h.callbackNames, name)
}

// RegisterFunc registers a simple cleanup function.
func (h *Handler) RegisterFunc(name string, fn func()) {
	h.Register(name, func(ctx context.Context) error {
		fn()
		return nil
	})
}

// RegisterServer registers a component with a Shutdown(ctx) method.
func (h *Handler) RegisterServer(name string, server GracefulServer) {
	h.Register(name, server.Shutdown)
}

// Context is cancelled on the first signal or when Shutdown begins.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted reports whether a signal (or Trigger) cancelled the context.
func (h *Handler) Interrupted() bool {
	return h.interrupted.Load()
}

// IsShuttingDown returns whether Shutdown has been called.
func (h *Handler) IsShuttingDown() bool {
	return h.isShuttingDown.Load()
}

// Done returns a channel that is closed when shutdown completes.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}

// Trigger simulates an interrupt signal.
func (h *Handler) Trigger() {
	h.interrupt(syscall.SIGINT)
}

// Shutdown cancels the context, stops signal delivery and runs callbacks
// in reverse registration order, each bounded by the configured timeout.
// Later calls return the first call's result.
func (h *Handler) Shutdown() Result {
	if !h.isShuttingDown.CompareAndSwap(false, true) {
		<-h.done
		return h.result
	}

	start := time.Now()
	h.cancel()
	h.stopSignals()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), h.timeout)
	defer shutdownCancel()

	h.mu.Lock()
	callbacks := make([]Callback, len(h.callbacks))
	names := make([]string, len(h.callbackNames))
	copy(callbacks, h.callbacks)
	copy(names, h.callbackNames)
	h.mu.Unlock()

	var errs []error
	for i := len(callbacks) - 1; i >= 0; i-- {
		if err := h.executeCallback(shutdownCtx, names[i], callbacks[i]); err != nil {
			errs = append(errs, err)
		}
	}

	h.result = Result{Elapsed: time.Since(start), Errors: errs}
	close(h.done)
	return h.result
}

func (h *Handler) stopSignals() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigChan)
	})
}

func (h *Handler) executeCallback(ctx context.Context, name string, callback Callback) error {
	done := make(chan error, 1)

	go func() {
		done <- callback(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return &CallbackError{CallbackName: name, Err: err}
		}
		return nil
	case <-ctx.Done():
		return &TimeoutError{CallbackName: name}
	}
}

// TimeoutError is returned when a callback times out.
type TimeoutError struct {
	CallbackName string
}

func (e *TimeoutError) Error() string {
	return "shutdown callback timed out: " + e.CallbackName
}

// CallbackError wraps a failed callback.
type CallbackError struct {
	CallbackName string
	Err          error
}

func (e *CallbackError) Error() string {
	return "shutdown callback " + e.CallbackName + ": " + e.Err.Error()
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

// Result holds the result of a shutdown operation.
type Result struct {
	Elapsed time.Duration
	Errors  []error
}

// HasErrors returns whether any errors occurred during shutdown.
func (r Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// GracefulServer wraps a component that needs graceful shutdown.
type GracefulServer interface {
	Shutdown(ctx context.Context) error
}
