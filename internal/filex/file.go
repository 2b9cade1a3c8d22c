// Package filex provides filesystem helpers: the data directory used by the
// CLI and the LocalFile handle that uploads read from.
package filex

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// EnsureDir creates dir if needed and returns its absolute path. Relative
// paths are resolved against the current working directory.
func EnsureDir(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("abs: %w", err)
	}

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}

// LocalFile is a file selected for upload. The content is opened lazily so a
// retry can read it again from the start.
type LocalFile struct {
	Name     string
	Size     int64
	Mimetype string

	open func() (io.ReadCloser, error)
}

// Open stats the file at path. The mimetype comes from the extension; unknown
// extensions are sniffed from content.
func Open(path string) (*LocalFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return &LocalFile{
		Name:     filepath.Base(path),
		Size:     info.Size(),
		Mimetype: detectMimetype(path),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// FromBytes wraps in-memory content as a LocalFile. An empty mimetype is
// derived from the name's extension.
func FromBytes(name string, data []byte, mimetype string) *LocalFile {
	if mimetype == "" {
		mimetype = mimeFromExt(name)
	}
	return &LocalFile{
		Name:     name,
		Size:     int64(len(data)),
		Mimetype: mimetype,
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// Reader opens a fresh reader over the file content.
func (f *LocalFile) Reader() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content source", f.Name)
	}
	return f.open()
}

func detectMimetype(path string) string {
	if m := mimeFromExt(path); m != "application/octet-stream" {
		return m
	}
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return "application/octet-stream"
	}
	return mt.String()
}

// mediaTypes covers upload formats missing from minimal system mime tables.
var mediaTypes = map[string]string{
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".mp3":  "audio/mpeg",
	".vtt":  "text/vtt",
	".srt":  "application/x-subrip",
	".pdf":  "application/pdf",
	".md":   "text/markdown",
}

func mimeFromExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if m, ok := mediaTypes[ext]; ok {
		return m
	}
	if m := mime.TypeByExtension(ext); m != "" {
		return m
	}
	return "application/octet-stream"
}
