package mission

import (
	"bufio"
	"os"
)

// FileWriter writes the mission log as JSONL. The log can be replayed.
type FileWriter struct {
	*JSONStdoutWriter
	f   *os.File
	buf *bufio.Writer
}

// NewFileWriter creates (or truncates) path and writes records to it.
func NewFileWriter(path string) (*FileWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	return &FileWriter{JSONStdoutWriter: NewJSONWriter(buf), f: f, buf: buf}, nil
}

// Flush writes buffered records to disk.
func (fw *FileWriter) Flush() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.buf.Flush()
}

// Close flushes and closes the file.
func (fw *FileWriter) Close() error {
	err := fw.Flush()
	if cerr := fw.f.Close(); err == nil {
		err = cerr
	}
	return err
}

var (
	_ Writer       = (*FileWriter)(nil)
	_ TargetWriter = (*FileWriter)(nil)
	_ StateWriter  = (*FileWriter)(nil)
	_ Writer       = (*MultiWriter)(nil)
	_ FrameWriter  = (*MultiWriter)(nil)
	_ StateWriter  = (*JSONStdoutWriter)(nil)
	_ TargetWriter = (*JSONStdoutWriter)(nil)
	_ Writer       = nopWriter{}
)
