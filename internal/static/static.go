package static

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/yanshuy/lambda-http/internal/headers"
	"github.com/yanshuy/lambda-http/internal/mimetype"
	"github.com/yanshuy/lambda-http/internal/response"
)

// FileServer serves files below a single root directory fixed at
// construction.
type FileServer struct {
	root string
}

func NewFileServer(root string) *FileServer {
	return &FileServer{root: root}
}

func (s *FileServer) Root() string {
	return s.root
}

// Resolve maps a request path onto the filesystem. The path is cleaned as
// if rooted at "/", so ".." segments can never climb above the root.
func (s *FileServer) Resolve(urlPath string) string {
	clean := path.Clean("/" + urlPath)
	return filepath.Join(s.root, filepath.FromSlash(clean))
}

// Open returns ErrNotFound for missing files and for directories.
func (s *FileServer) Open(urlPath string) (*os.File, fs.FileInfo, error) {
	name := s.Resolve(urlPath)
	f, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, urlPath)
	}
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, urlPath)
	}
	return f, info, nil
}

// ServeFile writes a 200 response carrying the file at urlPath. Errors
// from Open are returned before anything is written, so the caller still
// owns the status line. ErrStreamInterrupted means the headers already
// went out.
func (s *FileServer) ServeFile(w *response.Writer, urlPath string) error {
	f, info, err := s.Open(urlPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w.Headers().Set(headers.ContentType, mimetype.ForPath(urlPath))
	w.SetContentLength(int(info.Size()))
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStreamInterrupted, urlPath, err)
	}
	return w.Finish()
}

var (
	ErrNotFound          = errors.New("file not found")
	ErrStreamInterrupted = errors.New("file stream interrupted")
)
