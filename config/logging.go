package config

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logs builds component loggers that share one output: stderr, plus a
// rotating file when log.file is set.
type Logs struct {
	out  io.Writer
	file *lumberjack.Logger
}

// NewLogs opens the log output described by cfg.
func NewLogs(cfg LogConfig) *Logs {
	l := &Logs{out: os.Stderr}
	if cfg.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}
		l.out = io.MultiWriter(os.Stderr, l.file)
	}
	return l
}

// Writer is the shared output, for middleware that wants an io.Writer.
func (l *Logs) Writer() io.Writer { return l.out }

// Logger returns a logger with a bracketed component prefix, e.g. "[sync] ".
func (l *Logs) Logger(component string) *log.Logger {
	return log.New(l.out, "["+component+"] ", log.LstdFlags)
}

// Close flushes and closes the rotating file, if any.
func (l *Logs) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
