// Package logging points the standard logger at stderr and, optionally, a
// size-rotated log file.
package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log output goes.
type Options struct {
	FilePath   string // empty = stderr only
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Writer builds the log destination for opts. The returned closer releases the
// rotating file; it is a no-op when only stderr is used.
func Writer(opts Options, stderr io.Writer) (io.Writer, io.Closer) {
	if opts.FilePath == "" {
		return stderr, nopCloser{}
	}
	maxSize := opts.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 50
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Clean(opts.FilePath),
		MaxSize:    maxSize,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	return io.MultiWriter(stderr, rotator), rotator
}

// Setup installs the destination on the standard logger.
func Setup(opts Options) io.Closer {
	w, closer := Writer(opts, os.Stderr)
	log.SetOutput(w)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if opts.FilePath != "" {
		log.Printf("[server] logging to %s (max %dMB, %d backups)", opts.FilePath, opts.MaxSizeMB, opts.MaxBackups)
	}
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
