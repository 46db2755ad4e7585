package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"medaware/internal/config"
)

// Log file names, one per level.
const (
	InfoFile     = "info.log"
	WarningFile  = "warning.log"
	ErrorFile    = "error.log"
	CriticalFile = "critical.log"
)

// Logger provides leveled logging (info/warning/error/critical) to files and stdout/stderr.
// Critical is reserved for records that were lost, e.g. a failed verification write.
type Logger struct {
	infoLog     *log.Logger
	warningLog  *log.Logger
	errorLog    *log.Logger
	criticalLog *log.Logger
	logDir      string
	mu          sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(config *config.Config) *Logger {
	if err := os.MkdirAll(config.LogDirectory, 0755); err != nil {
		log.Fatalf("Failed to create log directory: %v", err)
	}

	logger := &Logger{
		logDir: config.LogDirectory,
	}

	logger.setupLoggers()
	return logger
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	return &Logger{
		infoLog:     log.New(io.Discard, "", 0),
		warningLog:  log.New(io.Discard, "", 0),
		errorLog:    log.New(io.Discard, "", 0),
		criticalLog: log.New(io.Discard, "", 0),
	}
}

func (l *Logger) setupLoggers() {
	infoWriter := io.MultiWriter(os.Stdout, l.openLogFile(InfoFile))
	warningWriter := io.MultiWriter(os.Stdout, l.openLogFile(WarningFile))
	errorWriter := io.MultiWriter(os.Stderr, l.openLogFile(ErrorFile))
	// critical entries are mirrored into error.log so one file still shows every failure
	criticalWriter := io.MultiWriter(os.Stderr, l.openLogFile(CriticalFile), l.openLogFile(ErrorFile))

	flags := log.Ldate | log.Ltime | log.Lshortfile
	l.infoLog = log.New(infoWriter, "ℹ️  INFO     ", flags)
	l.warningLog = log.New(warningWriter, "⚠️  WARNING  ", flags)
	l.errorLog = log.New(errorWriter, "❌ ERROR    ", flags)
	l.criticalLog = log.New(criticalWriter, "🚨 CRITICAL ", flags)
}

func (l *Logger) openLogFile(name string) *os.File {
	filename := filepath.Join(l.logDir, name)
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file %s: %v", filename, err)
	}
	return file
}

// output keeps the caller's file:line in the Lshortfile prefix.
func (l *Logger) output(target *log.Logger, format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	target.Output(3, fmt.Sprintf(format, v...))
}

func (l *Logger) Info(format string, v ...interface{}) {
	l.output(l.infoLog, format, v...)
}

func (l *Logger) Warning(format string, v ...interface{}) {
	l.output(l.warningLog, format, v...)
}

func (l *Logger) Error(format string, v ...interface{}) {
	l.output(l.errorLog, format, v...)
}

// Critical writes to critical.log and error.log.
func (l *Logger) Critical(format string, v ...interface{}) {
	l.output(l.criticalLog, format, v...)
}

// Dir returns the directory the log files live in.
func (l *Logger) Dir() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	filePath := filepath.Join(l.logDir, fileName)
	if err := os.Truncate(filePath, 0); err != nil {
		l.Error("Error truncating %s: %v", fileName, err)
		return err
	}

	l.Info("Log file %s has been cleared", fileName)
	return nil
}
