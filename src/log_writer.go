package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// logWriter prefixes every diagnostic line with a timestamp
type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	stamp := time.Now().Format("2006-01-02 15:04:05")
	return w.writer.Write([]byte(fmt.Sprintf("[%s] %s", stamp, p)))
}

// setupLogging routes diagnostics to stderr and a rotating file. The report
// itself goes to stdout and is unaffected, so piping the report stays clean.
func setupLogging(logFilePath string) {
	fileLogger := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     0, // keep regardless of age
		Compress:   false,
	}

	multi := io.MultiWriter(os.Stderr, fileLogger)

	log.SetOutput(&logWriter{writer: multi})
	log.SetFlags(0) // timestamps come from logWriter
}
