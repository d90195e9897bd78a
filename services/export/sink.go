package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/afero"
)

// Sink receives the finished image. It stands in for the browser download.
type Sink interface {
	Save(ctx context.Context, filename string, data []byte) error
}

// DirSink writes exports into a directory.
type DirSink struct {
	fs  afero.Fs
	dir string
}

// NewDirSink returns a sink rooted at dir. A nil fs uses the OS filesystem.
func NewDirSink(fs afero.Fs, dir string) *DirSink {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &DirSink{fs: fs, dir: dir}
}

// Path is where filename is written.
func (s *DirSink) Path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

func (s *DirSink) Save(_ context.Context, filename string, data []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	path := s.Path(filename)
	tmp := path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	log.Printf("[export] wrote %s (%d bytes)", path, len(data))
	return nil
}

var errResponseWritten = errors.New("response already written")

// ResponseSink streams the export as an HTTP attachment.
type ResponseSink struct {
	w       http.ResponseWriter
	written bool
}

func NewResponseSink(w http.ResponseWriter) *ResponseSink {
	return &ResponseSink{w: w}
}

// Written reports whether a response body has been sent.
func (s *ResponseSink) Written() bool {
	return s.written
}

func (s *ResponseSink) Save(_ context.Context, filename string, data []byte) error {
	if s.written {
		return errResponseWritten
	}
	h := s.w.Header()
	h.Set("Content-Type", mimetype.Detect(data).String())
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(filename)))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Cache-Control", "no-store")
	s.w.WriteHeader(http.StatusOK)
	s.written = true
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}

// Download is one file received by a MemorySink.
type Download struct {
	Filename string
	Data     []byte
}

// MemorySink keeps every export in memory.
type MemorySink struct {
	mu        sync.Mutex
	downloads []Download
}

func (s *MemorySink) Save(_ context.Context, filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloads = append(s.downloads, Download{Filename: filename, Data: append([]byte(nil), data...)})
	return nil
}

// Downloads returns a copy of everything saved so far.
func (s *MemorySink) Downloads() []Download {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Download(nil), s.downloads...)
}
