// Package errors provides panic recovery for command and event goroutines
// and a watchdog that shuts the bot down when errors pile up.
package errors

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PancyStudios/PancyModGo/pkg/logger"
	"github.com/goccy/go-json"
)

// Options tunes the watchdog
type Options struct {
	MaxErrors     int32
	ResetInterval time.Duration
	CheckInterval time.Duration
}

// DefaultOptions allows 15 errors per 5 seconds
func DefaultOptions() Options {
	return Options{
		MaxErrors:     15,
		ResetInterval: 5 * time.Second,
		CheckInterval: time.Second,
	}
}

// ErrorHandler manages error counting and reporting
type ErrorHandler struct {
	errorCount   atomic.Int32
	webhookURL   string
	shutdownFunc func()
	exit         func(code int)
	opts         Options
	client       *http.Client

	stopChan chan struct{}
	stopOnce sync.Once
	tripped  atomic.Bool
}

// ReportErrorOptions contains options for reporting an error
type ReportErrorOptions struct {
	Error   string
	Message string
}

var (
	handler *ErrorHandler
	once    sync.Once
)

// Init initializes the global error handler
func Init(webhookURL string, shutdownFunc func()) *ErrorHandler {
	once.Do(func() {
		handler = NewErrorHandler(webhookURL, shutdownFunc, DefaultOptions())
	})
	return handler
}

// Get returns the global error handler instance
func Get() *ErrorHandler {
	return handler
}

// NewErrorHandler creates and starts an ErrorHandler
func NewErrorHandler(webhookURL string, shutdownFunc func(), opts Options) *ErrorHandler {
	def := DefaultOptions()
	if opts.MaxErrors <= 0 {
		opts.MaxErrors = def.MaxErrors
	}
	if opts.ResetInterval <= 0 {
		opts.ResetInterval = def.ResetInterval
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = def.CheckInterval
	}

	h := &ErrorHandler{
		webhookURL:   webhookURL,
		shutdownFunc: shutdownFunc,
		exit:         os.Exit,
		opts:         opts,
		client:       &http.Client{Timeout: 10 * time.Second},
		stopChan:     make(chan struct{}),
	}
	h.start()
	return h
}

func (h *ErrorHandler) start() {
	go func() {
		reset := time.NewTicker(h.opts.ResetInterval)
		check := time.NewTicker(h.opts.CheckInterval)
		defer reset.Stop()
		defer check.Stop()

		for {
			select {
			case <-reset.C:
				h.errorCount.Store(0)
			case <-check.C:
				if h.errorCount.Load() > h.opts.MaxErrors {
					h.trip()
					return
				}
			case <-h.stopChan:
				return
			}
		}
	}()
}

func (h *ErrorHandler) trip() {
	if !h.tripped.CompareAndSwap(false, true) {
		return
	}
	start := time.Now()
	logger.Warn("Se detectó un número demasiado alto de errores", "CRITICAL")
	logger.Warn("Apagando...", "CRITICAL")

	h.Report(ReportErrorOptions{
		Error:   "Critical Error",
		Message: "Número inusual de errores. Apagando...",
	})

	if h.shutdownFunc != nil {
		h.shutdownFunc()
	}

	logger.Warn(fmt.Sprintf("Finalizando proceso... Tiempo total: %v", time.Since(start)), "CRITICAL")
	h.exit(1)
}

// Stop stops the watchdog
func (h *ErrorHandler) Stop() {
	h.stopOnce.Do(func() { close(h.stopChan) })
}

// IncrementError counts one error
func (h *ErrorHandler) IncrementError() {
	count := h.errorCount.Add(1)
	logger.Error(fmt.Sprintf("Error count: %d", count), "AntiCrash")
}

// Count returns the errors counted in the current window
func (h *ErrorHandler) Count() int32 {
	return h.errorCount.Load()
}

// HandlePanic handles a recovered panic
func (h *ErrorHandler) HandlePanic(recovered interface{}, stack []byte) {
	h.IncrementError()
	logger.Error(fmt.Sprintf("%v\n%s", recovered, stack), "AntiCrash")
}

// Report sends an error report to the Discord webhook
func (h *ErrorHandler) Report(data ReportErrorOptions) {
	if h.webhookURL == "" {
		return
	}

	jsonData, err := json.Marshal(reportPayload(data, time.Now()))
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to marshal error report: %v", err), "AntiCrash")
		return
	}

	req, err := http.NewRequest(http.MethodPost, h.webhookURL, bytes.NewReader(jsonData))
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to create webhook request: %v", err), "AntiCrash")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		logger.Error(fmt.Sprintf("Failed to send error report: %v", err), "AntiCrash")
		return
	}
	defer resp.Body.Close()

	logger.Warn(fmt.Sprintf("Sent ErrorReport to Webhook, Status: %d", resp.StatusCode), "AntiCrash")
}

func reportPayload(data ReportErrorOptions, at time.Time) map[string]interface{} {
	embed := map[string]interface{}{
		"author": map[string]string{
			"name": fmt.Sprintf("Error %s", data.Error),
		},
		"description": data.Message,
		"color":       0xFF0000,
		"footer": map[string]string{
			"text": "PancyMod Go",
		},
		"timestamp": at.Format(time.RFC3339),
	}
	return map[string]interface{}{
		"embeds": []interface{}{embed},
	}
}

// RecoverMiddleware returns a recovery function for use in deferred calls
func RecoverMiddleware() func() {
	return func() {
		if r := recover(); r != nil {
			recovered(r)
		}
	}
}

// Go runs fn in a goroutine guarded by the panic handler
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(fmt.Sprintf("Panic en %s", name), "AntiCrash")
				recovered(r)
			}
		}()
		fn()
	}()
}

func recovered(r interface{}) {
	stack := debug.Stack()
	if handler != nil {
		handler.HandlePanic(r, stack)
		return
	}
	logger.Error(fmt.Sprintf("Panic recovered (no handler): %v", r), "AntiCrash")
}
