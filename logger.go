package storecrawler

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"cloud.google.com/go/logging"
	"google.golang.org/api/option"
)

// logger is an interface for logging.
type logger interface {
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Debug(format string, args ...interface{})
	Error(format string, args ...interface{})
	Fatal(format string, args ...interface{})
	Printf(format string, args ...interface{})
	Html(html, url, msg string)
}

// defaultLogger writes to stdout and a dated file under the log directory,
// optionally mirroring every entry to Cloud Logging.
type defaultLogger struct {
	logger *log.Logger
	config *configService

	mu       sync.Mutex
	cloud    *logging.Client
	cloudLog *logging.Logger
	snapshot snapshotter
}

func newDefaultLogger(config *configService, siteName string) *defaultLogger {
	return newLoggerWithWriter(config, logWriter(config, siteName))
}

func newLoggerWithWriter(config *configService, w io.Writer) *defaultLogger {
	return &defaultLogger{
		logger: log.New(w, "⏱️ ", log.LstdFlags),
		config: config,
	}
}

func logWriter(config *configService, siteName string) io.Writer {
	currentDate := time.Now().Format("2006-01-02")
	directory := filepath.Join(config.EnvString("LOG_DIR", filepath.Join("storage", "logs")), siteName)
	err := os.MkdirAll(directory, 0755)
	if err != nil {
		log.Printf("Failed to create log directory: %v", err)
		return os.Stdout
	}

	logFilePath := filepath.Join(directory, currentDate+"_application.log")
	file, err := os.OpenFile(logFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Printf("Failed to open log file: %v", err)
		return os.Stdout
	}
	return io.MultiWriter(file, os.Stdout)
}

// attachCloud mirrors subsequent entries to the named Cloud Logging log.
func (l *defaultLogger) attachCloud(ctx context.Context, projectID, logID string, opts ...option.ClientOption) error {
	client, err := logging.NewClient(ctx, "projects/"+projectID, opts...)
	if err != nil {
		return fmt.Errorf("failed to create logging client: %w", err)
	}
	l.mu.Lock()
	l.cloud = client
	l.cloudLog = client.Logger(logID)
	l.mu.Unlock()
	return nil
}

func (l *defaultLogger) setSnapshotter(s snapshotter) {
	l.mu.Lock()
	l.snapshot = s
	l.mu.Unlock()
}

func (l *defaultLogger) emit(severity logging.Severity, prefix, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Print(prefix + msg)

	l.mu.Lock()
	cloudLog := l.cloudLog
	l.mu.Unlock()
	if cloudLog != nil {
		cloudLog.Log(logging.Entry{Severity: severity, Payload: msg})
	}
}

func (l *defaultLogger) Info(format string, args ...interface{}) {
	l.emit(logging.Info, "📢 INFO: ", format, args...)
}

func (l *defaultLogger) Warn(format string, args ...interface{}) {
	l.emit(logging.Warning, "⚠️ WARN: ", format, args...)
}

// Debug is only written in local environments.
func (l *defaultLogger) Debug(format string, args ...interface{}) {
	if l.config == nil || !l.config.isLocalEnv() {
		return
	}
	l.emit(logging.Debug, "🐞 DEBUG: ", format, args...)
}

func (l *defaultLogger) Error(format string, args ...interface{}) {
	l.emit(logging.Error, "🛑 ERROR: ", format, args...)
}

func (l *defaultLogger) Fatal(format string, args ...interface{}) {
	l.emit(logging.Critical, "🚨 FATAL: ", format, args...)
	l.Close()
	os.Exit(1)
}

func (l *defaultLogger) Printf(format string, args ...interface{}) {
	l.logger.Printf(format, args...)
}

// Html logs msg as an error and snapshots the page content that caused it.
func (l *defaultLogger) Html(html, url, msg string) {
	l.Error(msg)

	l.mu.Lock()
	snapshot := l.snapshot
	l.mu.Unlock()
	if snapshot == nil {
		return
	}
	if err := snapshot.Save(context.Background(), html, url, msg); err != nil {
		l.logger.Printf("⚛️ HTML: %v", err)
	}
}

// Close flushes the Cloud Logging mirror, if any.
func (l *defaultLogger) Close() {
	l.mu.Lock()
	client := l.cloud
	l.cloud, l.cloudLog = nil, nil
	l.mu.Unlock()
	if client != nil {
		if err := client.Close(); err != nil {
			l.logger.Printf("🛑 ERROR: failed to flush cloud logs: %v", err)
		}
	}
}

var _ logger = (*defaultLogger)(nil)
