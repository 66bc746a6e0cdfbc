package logger

import (
	"io"
	"os"

	"github.com/aditya-makadiya/sociofeed/pkg/config"
	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *log.Logger
var rotator *lumberjack.Logger

// Init initializes the logger, writing to the rotating file named by log.file
func Init(verbose bool) {
	level, err := log.ParseLevel(config.GetString("log.level"))
	if err != nil {
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}

	var w io.Writer = os.Stderr
	if logFile := config.GetString("log.file"); logFile != "" {
		rotator = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    config.GetInt("log.max_size_mb"),
			MaxBackups: config.GetInt("log.max_backups"),
			Compress:   true,
		}
		w = rotator
	}

	logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "sociofeed",
	})
	logger.SetLevel(level)
}

// InitWithWriter initializes the logger on an arbitrary writer
func InitWithWriter(w io.Writer, level log.Level) {
	logger = log.New(w)
	logger.SetLevel(level)
}

// Close flushes and closes the rotating log file
func Close() error {
	if rotator != nil {
		return rotator.Close()
	}
	return nil
}

// Debug logs a debug message
func Debug(msg string, args ...interface{}) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// Info logs an info message
func Info(msg string, args ...interface{}) {
	if logger != nil {
		logger.Info(msg, args...)
	}
}

// Warn logs a warning message
func Warn(msg string, args ...interface{}) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

// Error logs an error message
func Error(msg string, args ...interface{}) {
	if logger != nil {
		logger.Error(msg, args...)
	}
}

// GetLogger returns the logger instance
func GetLogger() *log.Logger {
	return logger
}
