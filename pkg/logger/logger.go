// Package logger provides the leveled, prefixed logger used across the bot.
// Output goes through logrus to the console, to log files and, optionally,
// to Discord webhooks.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelCritical LogLevel = iota
	LevelError
	LevelWarn
	LevelSuccess
	LevelInfo
	LevelDebug
	LevelSystem
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelCritical:
		return "CRITICAL"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelSuccess:
		return "SUCCESS"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Color returns the ANSI color code for the log level
func (l LogLevel) Color() string {
	switch l {
	case LevelCritical:
		return "\033[1;31m" // Bold Red
	case LevelError:
		return "\033[31m" // Red
	case LevelWarn:
		return "\033[33m" // Yellow
	case LevelSuccess:
		return "\033[32m" // Green
	case LevelInfo:
		return "\033[36m" // Cyan
	case LevelDebug:
		return "\033[35m" // Magenta
	case LevelSystem:
		return "\033[34m" // Blue
	default:
		return "\033[0m" // Reset
	}
}

// DiscordColor returns the Discord embed color for the log level
func (l LogLevel) DiscordColor() int {
	switch l {
	case LevelCritical, LevelError:
		return 0xFF0000
	case LevelWarn:
		return 0xFFFF00
	case LevelSuccess:
		return 0x00FF00
	case LevelInfo:
		return 0x0000FF
	case LevelDebug:
		return 0x800080
	case LevelSystem:
		return 0x808080
	default:
		return 0xFFFFFF
	}
}

// logrusLevel maps a level onto the logrus level used for filtering
func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LevelCritical, LevelError:
		return logrus.ErrorLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelDebug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

const (
	colorReset = "\033[0m"

	fieldLevel  = "pancy_level"
	fieldPrefix = "prefix"
)

// Options configures a Logger
type Options struct {
	// Dir holds combined.log and error.log. Empty disables file output.
	Dir string
	// Level is a logrus level name ("debug", "info", ...). Defaults to debug.
	Level           string
	ErrorWebhookURL string
	LogsWebhookURL  string
	Console         io.Writer
}

// Logger is the main logging structure
type Logger struct {
	logrus *logrus.Logger
	files  []*os.File
	mu     sync.Mutex
}

var (
	logger *Logger
	once   sync.Once
)

// Init initializes the global logger instance
func Init(errorWebhook, logsWebhook string) *Logger {
	once.Do(func() {
		logger = NewLogger(errorWebhook, logsWebhook)
	})
	return logger
}

// InitWithOptions initializes the global logger with explicit options
func InitWithOptions(opts Options) *Logger {
	once.Do(func() {
		logger = New(opts)
	})
	return logger
}

// Get returns the global logger instance. Without Init it logs to the
// console only.
func Get() *Logger {
	once.Do(func() {
		logger = New(Options{})
	})
	return logger
}

// NewLogger creates a Logger writing to ./logs and the given webhooks
func NewLogger(errorWebhook, logsWebhook string) *Logger {
	return New(Options{
		Dir:             filepath.Join(".", "logs"),
		ErrorWebhookURL: errorWebhook,
		LogsWebhookURL:  logsWebhook,
	})
}

// New creates a Logger from options
func New(opts Options) *Logger {
	l := &Logger{logrus: logrus.New()}

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	l.logrus.SetOutput(console)
	l.logrus.SetFormatter(&prefixFormatter{colors: true})

	level := logrus.DebugLevel
	if opts.Level != "" {
		if parsed, err := logrus.ParseLevel(opts.Level); err == nil {
			level = parsed
		} else {
			fmt.Printf("Nivel de log inválido %q, usando debug\n", opts.Level)
		}
	}
	l.logrus.SetLevel(level)

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			fmt.Printf("Error creating logs directory: %v\n", err)
		}
		if f := openLogFile(filepath.Join(opts.Dir, "combined.log")); f != nil {
			l.files = append(l.files, f)
			l.logrus.AddHook(&fileHook{writer: f, levels: logrus.AllLevels})
		}
		if f := openLogFile(filepath.Join(opts.Dir, "error.log")); f != nil {
			l.files = append(l.files, f)
			l.logrus.AddHook(&fileHook{writer: f, levels: []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel}})
		}
	}

	if opts.ErrorWebhookURL != "" || opts.LogsWebhookURL != "" {
		l.logrus.AddHook(&webhookHook{
			errorURL: opts.ErrorWebhookURL,
			logsURL:  opts.LogsWebhookURL,
			client:   &http.Client{Timeout: 5 * time.Second},
		})
	}

	return l
}

func openLogFile(path string) *os.File {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Error opening log file %s: %v\n", path, err)
		return nil
	}
	return f
}

func (l *Logger) log(level LogLevel, message string, prefix string) {
	l.logrus.WithFields(logrus.Fields{
		fieldLevel:  level,
		fieldPrefix: prefix,
	}).Log(level.logrusLevel(), message)
}

// Close closes the log files
func (l *Logger) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, f := range l.files {
		_ = f.Close()
	}
	l.files = nil
}

// prefixFormatter renders "[time] [LEVEL] [prefix]: message"
type prefixFormatter struct {
	colors bool
}

func (f *prefixFormatter) Format(e *logrus.Entry) ([]byte, error) {
	level, _ := e.Data[fieldLevel].(LogLevel)
	prefix, _ := e.Data[fieldPrefix].(string)

	name := level.String()
	if f.colors {
		name = level.Color() + name + colorReset
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "[%s] [%s] [%s]: %s\n",
		e.Time.Format("2006-01-02 15:04:05"),
		name,
		prefix,
		e.Message,
	)
	return b.Bytes(), nil
}

// fileHook writes uncolored lines for the given levels
type fileHook struct {
	mu     sync.Mutex
	writer io.Writer
	levels []logrus.Level
}

var plainFormatter = &prefixFormatter{}

func (h *fileHook) Levels() []logrus.Level { return h.levels }

func (h *fileHook) Fire(e *logrus.Entry) error {
	line, err := plainFormatter.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.writer.Write(line)
	return err
}

// webhookHook posts entries as Discord embeds. Errors go to errorURL, the
// rest to logsURL.
type webhookHook struct {
	errorURL string
	logsURL  string
	client   *http.Client
}

func (h *webhookHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *webhookHook) Fire(e *logrus.Entry) error {
	level, _ := e.Data[fieldLevel].(LogLevel)
	prefix, _ := e.Data[fieldPrefix].(string)

	url := h.logsURL
	if level <= LevelError {
		url = h.errorURL
	}
	if url == "" {
		return nil
	}

	payload := webhookPayload(level, prefix, e.Message, e.Time)
	go h.post(url, payload)
	return nil
}

func webhookPayload(level LogLevel, prefix, message string, at time.Time) map[string]interface{} {
	embed := map[string]interface{}{
		"title":       fmt.Sprintf("[%s] %s", level.String(), prefix),
		"description": "```" + strings.ReplaceAll(message, "```", "'''") + "```",
		"color":       level.DiscordColor(),
		"timestamp":   at.Format(time.RFC3339),
		"footer": map[string]string{
			"text": "💫 Developed by PancyStudio | PancyMod Go",
		},
	}
	return map[string]interface{}{
		"embeds": []interface{}{embed},
	}
}

func (h *webhookHook) post(url string, payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return
	}
	_ = resp.Body.Close()
}

// Critical logs a critical message
func (l *Logger) Critical(message string, prefix string) {
	l.log(LevelCritical, message, prefix)
}

// Error logs an error message
func (l *Logger) Error(message string, prefix string) {
	l.log(LevelError, message, prefix)
}

// Warn logs a warning message
func (l *Logger) Warn(message string, prefix string) {
	l.log(LevelWarn, message, prefix)
}

// Success logs a success message
func (l *Logger) Success(message string, prefix string) {
	l.log(LevelSuccess, message, prefix)
}

// Info logs an info message
func (l *Logger) Info(message string, prefix string) {
	l.log(LevelInfo, message, prefix)
}

// Debug logs a debug message
func (l *Logger) Debug(message string, prefix string) {
	l.log(LevelDebug, message, prefix)
}

// System logs a system message
func (l *Logger) System(message string, prefix string) {
	l.log(LevelSystem, message, prefix)
}

// Package-level functions for convenience

func Critical(message string, prefix string) { Get().Critical(message, prefix) }

func Error(message string, prefix string) { Get().Error(message, prefix) }

func Warn(message string, prefix string) { Get().Warn(message, prefix) }

func Success(message string, prefix string) { Get().Success(message, prefix) }

func Info(message string, prefix string) { Get().Info(message, prefix) }

func Debug(message string, prefix string) { Get().Debug(message, prefix) }

func System(message string, prefix string) { Get().System(message, prefix) }
