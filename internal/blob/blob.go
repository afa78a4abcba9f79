// Package blob stores uploaded trip documents on the local filesystem and
// builds their public URLs.
package blob

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/tripdesk/backend/internal/domain"
)

// allowedTypes are the sniffed content types accepted for documents.
var allowedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

// Store keeps files under dir and serves them below baseURL + "/files/".
type Store struct {
	dir     string
	baseURL string
}

// NewStore creates dir if needed.
func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("blob.NewStore: %w", err)
	}
	return &Store{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Upload writes r under a fresh key and returns its public reference. The
// display name is the base name of filename. Only PDF and common image
// types are accepted; anything else is a domain.ErrValidation.
func (s *Store) Upload(ctx context.Context, filename string, r io.Reader) (domain.FileRef, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return domain.FileRef{}, fmt.Errorf("%w: file name is required", domain.ErrValidation)
	}

	br := bufio.NewReaderSize(r, 512)
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return domain.FileRef{}, fmt.Errorf("blob.Store.Upload: %w", err)
	}
	if len(head) == 0 {
		return domain.FileRef{}, fmt.Errorf("%w: file is empty", domain.ErrValidation)
	}
	ctype := http.DetectContentType(head)
	if i := strings.IndexByte(ctype, ';'); i >= 0 {
		ctype = ctype[:i]
	}
	if !allowedTypes[ctype] {
		return domain.FileRef{}, fmt.Errorf("%w: unsupported file type %s", domain.ErrValidation, ctype)
	}

	key := uuid.NewString() + strings.ToLower(path.Ext(name))
	f, err := os.OpenFile(filepath.Join(s.dir, key), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.FileRef{}, fmt.Errorf("blob.Store.Upload: %w", err)
	}
	if _, err := io.Copy(f, contextReader{ctx: ctx, r: br}); err != nil {
		f.Close()
		os.Remove(f.Name())
		return domain.FileRef{}, fmt.Errorf("blob.Store.Upload: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return domain.FileRef{}, fmt.Errorf("blob.Store.Upload: %w", err)
	}

	return domain.FileRef{URL: s.PublicURL(key), Name: name}, nil
}

// PublicURL returns the URL a stored key is served at.
func (s *Store) PublicURL(key string) string {
	return s.baseURL + "/files/" + key
}

// Handler serves stored files. Mount it at /files/.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix("/files/", http.FileServer(noDirFS{http.Dir(s.dir)}))
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// noDirFS hides directory listings.
type noDirFS struct {
	fs http.FileSystem
}

func (n noDirFS) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, os.ErrNotExist
	}
	return f, nil
}
